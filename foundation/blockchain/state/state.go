// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis   genesis.Genesis
	Blocks    database.BlockStorage
	Accounts  database.AccountStorage
	EvHandler EventHandler
}

// State manages the blockchain database and the account ledger.
type State struct {
	mu        sync.Mutex
	genesis   genesis.Genesis
	evHandler EventHandler

	db     *database.Database
	ledger *accounts.Ledger
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Access the blockchain in storage. Every stored block is validated
	// before the database can be used.
	db, err := database.New(cfg.Blocks, ev)
	if err != nil {
		return nil, err
	}

	// Create the ledger to manage the balances of the accounts.
	ledger := accounts.New(cfg.Accounts, ev)

	state := State{
		genesis:   cfg.Genesis,
		evHandler: ev,
		db:        db,
		ledger:    ledger,
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: close storage")
	return s.db.Close()
}
