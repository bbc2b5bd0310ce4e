package accounts_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newAccount(t *testing.T, ledger *accounts.Ledger, balance uint64) string {
	t.Helper()

	account, err := ledger.Create()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create an account: %v", failed, err)
	}

	if balance > 0 {
		if _, err := ledger.Credit(account.Address, balance, database.EntryMining); err != nil {
			t.Fatalf("\t%s\tShould be able to fund the account: %v", failed, err)
		}
	}

	return account.Address
}

func TestCreate(t *testing.T) {
	ledger := accounts.New(storage.NewMemory(), nil)

	t.Log("Given the need to create accounts.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen creating two accounts.", testID)
		{
			a, err := ledger.Create()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create an account: %v", failed, testID, err)
			}
			b, err := ledger.Create()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create an account: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to create accounts.", success, testID)

			if a.Address == b.Address || a.Address == "" {
				t.Fatalf("\t%s\tTest %d:\tShould get distinct addresses.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get distinct addresses.", success, testID)

			got, err := ledger.Get(a.Address)
			if err != nil || got.Balance != 0 || len(got.History) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould start with a zero balance and no history: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould start with a zero balance and no history.", success, testID)

			if _, err := ledger.Get("unknown"); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNotFound for an unknown address, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNotFound for an unknown address.", success, testID)
		}
	}
}

func TestTransfer(t *testing.T) {
	type table struct {
		name    string
		from    uint64
		to      uint64
		amount  uint64
		err     error
		expFrom uint64
		expTo   uint64
	}

	tt := []table{
		{name: "basic", from: 10, to: 0, amount: 5, expFrom: 5, expTo: 5},
		{name: "all", from: 10, to: 3, amount: 10, expFrom: 0, expTo: 13},
		{name: "insufficient", from: 10, to: 0, amount: 11, err: database.ErrInsufficientFunds, expFrom: 10, expTo: 0},
		{name: "zero", from: 10, to: 0, amount: 0, err: database.ErrInvalidInput, expFrom: 10, expTo: 0},
	}

	t.Log("Given the need to move balances between accounts.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				ledger := accounts.New(storage.NewMemory(), nil)
				from := newAccount(t, ledger, tst.from)
				to := newAccount(t, ledger, tst.to)

				t.Logf("\tTest %d:\tWhen handling the %s transfer.", testID, tst.name)
				{
					err := ledger.Transfer(from, to, tst.amount)
					switch {
					case tst.err == nil && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould be able to transfer: %v", failed, testID, err)
					case tst.err != nil && !errors.Is(err, tst.err):
						t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected result.", success, testID)

					sender, _ := ledger.Get(from)
					recipient, _ := ledger.Get(to)

					if sender.Balance != tst.expFrom || recipient.Balance != tst.expTo {
						t.Logf("\t%s\tTest %d:\tgot: %d %d", failed, testID, sender.Balance, recipient.Balance)
						t.Logf("\t%s\tTest %d:\texp: %d %d", failed, testID, tst.expFrom, tst.expTo)
						t.Fatalf("\t%s\tTest %d:\tShould have the correct balances.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have the correct balances.", success, testID)

					if tst.err != nil {
						return
					}

					last := sender.History[len(sender.History)-1]
					if last.Type != database.EntrySend || last.Amount != tst.amount || last.Counterparty != to {
						t.Fatalf("\t%s\tTest %d:\tShould record a send entry, got %+v.", failed, testID, last)
					}
					t.Logf("\t%s\tTest %d:\tShould record a send entry.", success, testID)

					last = recipient.History[len(recipient.History)-1]
					if last.Type != database.EntryReceive || last.Amount != tst.amount || last.Counterparty != from {
						t.Fatalf("\t%s\tTest %d:\tShould record a receive entry, got %+v.", failed, testID, last)
					}
					t.Logf("\t%s\tTest %d:\tShould record a receive entry.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestTransferInvalid(t *testing.T) {
	ledger := accounts.New(storage.NewMemory(), nil)
	a := newAccount(t, ledger, 10)

	t.Log("Given the need to reject bad transfers without changing balances.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the recipient doesn't exist.", testID)
		{
			if err := ledger.Transfer(a, "unknown", 1); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNotFound, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNotFound.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the sender doesn't exist.", testID)
		{
			if err := ledger.Transfer("unknown", a, 1); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNotFound, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNotFound.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen sending to the same account.", testID)
		{
			if err := ledger.Transfer(a, a, 1); !errors.Is(err, database.ErrInvalidInput) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrInvalidInput, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrInvalidInput.", success, testID)
		}

		account, _ := ledger.Get(a)
		if account.Balance != 10 || len(account.History) != 1 {
			t.Fatalf("\t%s\tShould leave the account unchanged, got %+v.", failed, account)
		}
		t.Logf("\t%s\tShould leave the account unchanged.", success)
	}
}

func TestConservation(t *testing.T) {
	const (
		numAccounts = 8
		funding     = 100
		workers     = 16
		transfers   = 200
	)

	ledger := accounts.New(storage.NewMemory(), nil)

	addrs := make([]string, numAccounts)
	for i := range addrs {
		addrs[i] = newAccount(t, ledger, funding)
	}

	t.Log("Given the need to keep the total balance stable under concurrent transfers.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen %d goroutines transfer between %d accounts.", testID, workers, numAccounts)
		{
			var wg sync.WaitGroup
			wg.Add(workers)

			for w := 0; w < workers; w++ {
				go func(w int) {
					defer wg.Done()
					for i := 0; i < transfers; i++ {
						from := addrs[(w+i)%numAccounts]
						to := addrs[(w+i*3+1)%numAccounts]
						if from == to {
							continue
						}

						err := ledger.Transfer(from, to, uint64(i%7+1))
						if err != nil && !errors.Is(err, database.ErrInsufficientFunds) {
							panic(fmt.Sprintf("unexpected transfer error: %v", err))
						}
					}
				}(w)
			}

			wg.Wait()

			var total uint64
			for _, addr := range addrs {
				account, err := ledger.Get(addr)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to read account %s: %v", failed, testID, addr, err)
				}

				// Replaying the history must give the balance.
				var replay int64
				for _, e := range account.History {
					switch e.Type {
					case database.EntrySend:
						replay -= int64(e.Amount)
					default:
						replay += int64(e.Amount)
					}
				}
				if replay != int64(account.Balance) {
					t.Fatalf("\t%s\tTest %d:\tShould have a history matching the balance for %s.", failed, testID, addr)
				}

				total += account.Balance
			}
			t.Logf("\t%s\tTest %d:\tShould have histories matching the balances.", success, testID)

			if total != numAccounts*funding {
				t.Fatalf("\t%s\tTest %d:\tShould keep the total at %d, got %d.", failed, testID, numAccounts*funding, total)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the total at %d.", success, testID, numAccounts*funding)
		}
	}
}
