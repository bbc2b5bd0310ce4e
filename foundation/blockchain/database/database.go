// Package database handles all the lower level support for maintaining the
// blockchain in storage and the records for the accounts that own balances.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// Set of errors the core of the ledger can return. Callers should test for
// these with errors.Is since they are usually wrapped with more context.
var (
	ErrNotFound          = errors.New("not found")
	ErrExists            = errors.New("already exists")
	ErrChainEmpty        = errors.New("no genesis block, chain is empty")
	ErrStaleHead         = errors.New("stale head, block does not extend the latest block")
	ErrInvalidProof      = errors.New("invalid proof, hash does not meet the difficulty requirement")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidInput      = errors.New("invalid input")
)

// BlockStorage interface represents the behavior required to be implemented
// by any package providing support for storing and reading the blockchain.
type BlockStorage interface {
	Insert(blockData BlockData) error
	GetBlock(index uint64) (BlockData, error)
	LastBlock() (BlockData, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database provides an append only view of the blockchain held in storage.
type Database struct {
	mu          sync.RWMutex
	storage     BlockStorage
	latestBlock Block
	hasBlocks   bool
}

// New constructs a database over the specified storage. Every block already
// in storage is validated against its parent before the database is usable.
func New(storage BlockStorage, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		storage: storage,
	}

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		switch {
		case !db.hasBlocks:
			if !block.IsGenesis() || block.Header.PrevBlockHash != GenesisPrevHash {
				return nil, fmt.Errorf("first block in storage is not a genesis block, index %d", block.Header.Index)
			}

		default:
			if err := block.ValidateBlock(db.latestBlock, block.Difficulty, ev); err != nil {
				return nil, fmt.Errorf("validating stored block %d: %w", block.Header.Index, err)
			}
		}

		db.latestBlock = block
		db.hasBlocks = true
	}

	// The walk stops at the first missing index. Storage holding a block
	// past that point means the chain has a gap.
	last, err := storage.LastBlock()
	switch {
	case errors.Is(err, ErrNotFound):
		if db.hasBlocks {
			return nil, fmt.Errorf("storage reports no blocks, chain walked to block %d", db.latestBlock.Header.Index)
		}

	case err != nil:
		return nil, fmt.Errorf("reading last stored block: %w", err)

	case !db.hasBlocks:
		return nil, fmt.Errorf("storage holds block %d but no genesis block", last.Header.Index)

	case last.Header.Index != db.latestBlock.Header.Index:
		return nil, fmt.Errorf("storage holds block %d past the end of the chain at block %d", last.Header.Index, db.latestBlock.Header.Index)
	}

	if db.hasBlocks {
		ev("database: New: loaded chain: height[%d]: latestBlk[%s]", db.latestBlock.Header.Index, db.latestBlock.Hash())
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// LatestBlock returns the block with the highest index.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.hasBlocks {
		return Block{}, ErrChainEmpty
	}

	return db.latestBlock, nil
}

// GetBlock returns the block at the specified index.
func (db *Database) GetBlock(index uint64) (Block, error) {
	blockData, err := db.storage.GetBlock(index)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// Append writes the block to storage if it is the genesis block of an empty
// chain or it extends the latest block. Anything else is rejected with
// ErrStaleHead so the caller can refetch the latest block and try again.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	switch {
	case !db.hasBlocks:
		if !block.IsGenesis() {
			return fmt.Errorf("appending block %d: %w", block.Header.Index, ErrChainEmpty)
		}
		if block.Header.PrevBlockHash != GenesisPrevHash {
			return fmt.Errorf("%w: genesis previous hash must be %q", ErrInvalidInput, GenesisPrevHash)
		}

	default:
		nextIndex := db.latestBlock.Header.Index + 1
		if block.Header.Index != nextIndex {
			return fmt.Errorf("%w: got index %d, exp %d", ErrStaleHead, block.Header.Index, nextIndex)
		}

		if prevHash := db.latestBlock.Hash(); block.Header.PrevBlockHash != prevHash {
			return fmt.Errorf("%w: got previous hash %s, exp %s", ErrStaleHead, block.Header.PrevBlockHash, prevHash)
		}
	}

	// The storage insert is conditional on the index being free. This
	// protects the chain from another writer sharing the same storage.
	if err := db.storage.Insert(NewBlockData(block)); err != nil {
		if errors.Is(err, ErrExists) {
			return fmt.Errorf("%w: block %d already committed", ErrStaleHead, block.Header.Index)
		}
		return err
	}

	db.latestBlock = block
	db.hasBlocks = true

	return nil
}

// Range returns the blocks between from and to inclusive, capped at the
// latest block.
func (db *Database) Range(from uint64, to uint64) ([]Block, error) {
	latest, err := db.LatestBlock()
	if err != nil {
		return nil, err
	}

	if to > latest.Header.Index {
		to = latest.Header.Index
	}

	if from > to {
		return nil, nil
	}

	blocks := make([]Block, 0, to-from+1)
	for i := from; i <= to; i++ {
		block, err := db.GetBlock(i)
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
