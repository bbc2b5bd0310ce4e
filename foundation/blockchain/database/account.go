package database

// Set of entry types recorded in an account's transaction history.
const (
	EntryMining  EntryType = "mining"
	EntrySend    EntryType = "send"
	EntryReceive EntryType = "receive"
)

// EntryType represents the kind of balance change an entry records.
type EntryType string

// IsValid reports whether the entry type is one of the known types.
func (et EntryType) IsValid() bool {
	switch et {
	case EntryMining, EntrySend, EntryReceive:
		return true
	}
	return false
}

// Entry represents a single balance change in an account's history.
type Entry struct {
	Type         EntryType `json:"type"`
	Amount       uint64    `json:"amount"`
	Counterparty string    `json:"counterparty,omitempty"`
	TimeStamp    uint64    `json:"timestamp"`
}

// Account represents information stored in the database for an individual
// account. Accounts are never deleted.
type Account struct {
	ID      string  `json:"id"`
	Address string  `json:"address"`
	Balance uint64  `json:"balance"`
	History []Entry `json:"transaction_history"`
}

// Copy returns a deep copy of the account so the history can't be shared.
func (a Account) Copy() Account {
	cpy := a
	if a.History != nil {
		cpy.History = make([]Entry, len(a.History))
		copy(cpy.History, a.History)
	}
	return cpy
}

// =============================================================================

// AccountStorage interface represents the behavior required to be implemented
// by any package providing support for storing and reading accounts.
type AccountStorage interface {
	InsertAccount(account Account) error
	GetAccount(address string) (Account, error)
	UpdateAccount(account Account) error
}
