package storage

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Memory represents the storage implementation for reading and storing
// blocks and accounts in memory. This implements the database.BlockStorage
// and database.AccountStorage interfaces.
type Memory struct {
	mu       sync.RWMutex
	blocks   map[uint64]database.BlockData
	last     uint64
	accounts map[string]database.Account
}

// NewMemory constructs a Memory value for use.
func NewMemory() *Memory {
	return &Memory{
		blocks:   make(map[uint64]database.BlockData),
		accounts: make(map[string]database.Account),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Insert takes the specified block and stores it in memory. The insert fails
// with database.ErrExists if a block with this index is already stored.
func (m *Memory) Insert(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blocks[blockData.Header.Index]; exists {
		return database.ErrExists
	}

	m.blocks[blockData.Header.Index] = blockData
	if blockData.Header.Index > m.last {
		m.last = blockData.Header.Index
	}

	return nil
}

// GetBlock returns the contents of the specified block by index.
func (m *Memory) GetBlock(index uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blockData, exists := m.blocks[index]
	if !exists {
		return database.BlockData{}, database.ErrNotFound
	}

	return blockData, nil
}

// LastBlock returns the block with the highest index.
func (m *Memory) LastBlock() (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.blocks) == 0 {
		return database.BlockData{}, database.ErrNotFound
	}

	return m.blocks[m.last], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (m *Memory) ForEach() database.Iterator {
	return &blockIterator{getBlock: m.GetBlock}
}

// =============================================================================

// InsertAccount stores a new account. The insert fails with
// database.ErrExists if the address is already taken.
func (m *Memory) InsertAccount(account database.Account) error {
	if account.Address == "" {
		return fmt.Errorf("%w: account address is required", database.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.Address]; exists {
		return database.ErrExists
	}

	m.accounts[account.Address] = account.Copy()

	return nil
}

// GetAccount returns a copy of the account for the specified address.
func (m *Memory) GetAccount(address string) (database.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, exists := m.accounts[address]
	if !exists {
		return database.Account{}, database.ErrNotFound
	}

	return account.Copy(), nil
}

// UpdateAccount replaces the stored account with the specified account. The
// account must already exist.
func (m *Memory) UpdateAccount(account database.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.Address]; !exists {
		return database.ErrNotFound
	}

	m.accounts[account.Address] = account.Copy()

	return nil
}
