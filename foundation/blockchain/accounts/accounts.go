// Package accounts maintains account balances and transaction histories.
package accounts

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/google/uuid"
)

// stripes is the number of locks addresses are spread across. Two addresses
// sharing a stripe only costs some concurrency.
const stripes = 64

// Ledger manages the balances of the accounts held in storage. Every change
// to an account is a read-modify-write performed under that account's lock.
type Ledger struct {
	storage   database.AccountStorage
	evHandler func(v string, args ...any)
	locks     [stripes]sync.Mutex
}

// New constructs a ledger over the specified account storage.
func New(storage database.AccountStorage, evHandler func(v string, args ...any)) *Ledger {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Ledger{
		storage:   storage,
		evHandler: ev,
	}
}

// Create allocates a new account with a fresh address and a zero balance.
func (l *Ledger) Create() (database.Account, error) {
	account := database.Account{
		ID:      uuid.NewString(),
		Address: uuid.NewString(),
		History: []database.Entry{},
	}

	if err := l.storage.InsertAccount(account); err != nil {
		return database.Account{}, fmt.Errorf("inserting account: %w", err)
	}

	l.evHandler("accounts: Create: account[%s]", account.Address)

	return account, nil
}

// Get returns the account for the specified address.
func (l *Ledger) Get(address string) (database.Account, error) {
	mu := l.lock(address)
	mu.Lock()
	defer mu.Unlock()

	account, err := l.storage.GetAccount(address)
	if err != nil {
		return database.Account{}, fmt.Errorf("account %q: %w", address, err)
	}

	return account, nil
}

// Credit adds the amount to the balance of the specified account and records
// the change in the account's history.
func (l *Ledger) Credit(address string, amount uint64, entryType database.EntryType) (database.Account, error) {
	if amount == 0 {
		return database.Account{}, fmt.Errorf("%w: amount must be greater than 0", database.ErrInvalidInput)
	}

	if !entryType.IsValid() {
		return database.Account{}, fmt.Errorf("%w: unknown entry type %q", database.ErrInvalidInput, entryType)
	}

	mu := l.lock(address)
	mu.Lock()
	defer mu.Unlock()

	account, err := l.storage.GetAccount(address)
	if err != nil {
		return database.Account{}, fmt.Errorf("account %q: %w", address, err)
	}

	if account.Balance > math.MaxUint64-amount {
		return database.Account{}, fmt.Errorf("%w: balance of %q would overflow", database.ErrInvalidInput, address)
	}

	account.Balance += amount
	account.History = append(account.History, database.Entry{
		Type:      entryType,
		Amount:    amount,
		TimeStamp: now(),
	})

	if err := l.storage.UpdateAccount(account); err != nil {
		return database.Account{}, fmt.Errorf("updating account %q: %w", address, err)
	}

	l.evHandler("accounts: Credit: account[%s]: type[%s]: amount[%d]: balance[%d]", address, entryType, amount, account.Balance)

	return account, nil
}

// Transfer moves the amount from one account to another. Both balances and
// both histories change together or not at all.
func (l *Ledger) Transfer(from string, to string, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: amount must be greater than 0", database.ErrInvalidInput)
	}

	if from == to {
		return fmt.Errorf("%w: sending money to yourself, from %s, to %s", database.ErrInvalidInput, from, to)
	}

	unlock := l.lockPair(from, to)
	defer unlock()

	sender, err := l.storage.GetAccount(from)
	if err != nil {
		return fmt.Errorf("sender account %q: %w", from, err)
	}

	recipient, err := l.storage.GetAccount(to)
	if err != nil {
		return fmt.Errorf("recipient account %q: %w", to, err)
	}

	if sender.Balance < amount {
		return fmt.Errorf("%w: balance %d, needed %d", database.ErrInsufficientFunds, sender.Balance, amount)
	}

	if recipient.Balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance of %q would overflow", database.ErrInvalidInput, to)
	}

	// Keep the original sender so the debit can be undone if the credit
	// can't be written.
	original := sender.Copy()
	ts := now()

	sender.Balance -= amount
	sender.History = append(sender.History, database.Entry{
		Type:         database.EntrySend,
		Amount:       amount,
		Counterparty: to,
		TimeStamp:    ts,
	})

	recipient.Balance += amount
	recipient.History = append(recipient.History, database.Entry{
		Type:         database.EntryReceive,
		Amount:       amount,
		Counterparty: from,
		TimeStamp:    ts,
	})

	if err := l.storage.UpdateAccount(sender); err != nil {
		return fmt.Errorf("updating sender %q: %w", from, err)
	}

	if err := l.storage.UpdateAccount(recipient); err != nil {
		if rerr := l.storage.UpdateAccount(original); rerr != nil {
			l.evHandler("accounts: Transfer: ERROR: restoring sender[%s]: %s", from, rerr)
		}
		return fmt.Errorf("updating recipient %q: %w", to, err)
	}

	l.evHandler("accounts: Transfer: from[%s]: to[%s]: amount[%d]", from, to, amount)

	return nil
}

// =============================================================================

// lock returns the mutex that guards the specified address.
func (l *Ledger) lock(address string) *sync.Mutex {
	return &l.locks[stripe(address)]
}

// lockPair locks the mutexes for both addresses in stripe order so two
// transfers in opposite directions can't deadlock. The returned function
// releases the locks.
func (l *Ledger) lockPair(a string, b string) func() {
	sa, sb := stripe(a), stripe(b)
	if sa == sb {
		l.locks[sa].Lock()
		return l.locks[sa].Unlock
	}

	if sb < sa {
		sa, sb = sb, sa
	}

	l.locks[sa].Lock()
	l.locks[sb].Lock()

	return func() {
		l.locks[sb].Unlock()
		l.locks[sa].Unlock()
	}
}

// stripe maps the address to one of the ledger's locks.
func stripe(address string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(address))
	return h.Sum32() % stripes
}

// now returns the current time in unix milliseconds.
func now() uint64 {
	return uint64(time.Now().UTC().UnixMilli())
}
