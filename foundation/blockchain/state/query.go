package state

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// QueryLimit is the maximum number of blocks returned by one query.
const QueryLimit = 100

// =============================================================================

// QueryAccount returns a copy of the account for the specified address.
func (s *State) QueryAccount(address string) (database.Account, error) {
	return s.ledger.Get(address)
}

// QueryBlock returns the block at the specified index.
func (s *State) QueryBlock(index uint64) (database.Block, error) {
	return s.db.GetBlock(index)
}

// QueryHeight returns the index of the latest block.
func (s *State) QueryHeight() (uint64, error) {
	latest, err := s.db.LatestBlock()
	if err != nil {
		return 0, err
	}

	return latest.Header.Index, nil
}

// QueryBlocksByNumber returns the set of blocks based on block numbers. No
// more than QueryLimit blocks are returned.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) ([]database.Block, error) {
	if from == QueryLatest || to == QueryLatest {
		height, err := s.QueryHeight()
		if err != nil {
			return nil, err
		}

		if from == QueryLatest {
			from = height
		}
		if to == QueryLatest {
			to = height
		}
	}

	if from > to {
		return nil, fmt.Errorf("%w: from %d greater than to %d", database.ErrInvalidInput, from, to)
	}

	if to-from >= QueryLimit {
		to = from + QueryLimit - 1
	}

	return s.db.Range(from, to)
}
