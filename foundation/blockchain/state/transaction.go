package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// SubmitTransfer moves the amount between two accounts. Transfers are ledger
// bookkeeping and are not recorded in a block.
func (s *State) SubmitTransfer(from string, to string, amount uint64) error {
	s.evHandler("state: SubmitTransfer: from[%s]: to[%s]: amount[%d]", from, to, amount)

	return s.ledger.Transfer(from, to, amount)
}

// CreateAccount allocates a new account with a zero balance.
func (s *State) CreateAccount() (database.Account, error) {
	return s.ledger.Create()
}
