package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common"
)

// maxAddressLength keeps the hex encoded file name of an account under the
// file name limit of common file systems.
const maxAddressLength = 120

// InsertAccount stores a new account on disk in a file labeled with the
// account address. The insert fails with database.ErrExists if the address
// is already taken.
func (d *Disk) InsertAccount(account database.Account) error {
	if account.Address == "" || len(account.Address) > maxAddressLength {
		return fmt.Errorf("%w: account address must be 1 to %d bytes", database.ErrInvalidInput, maxAddressLength)
	}

	return publish(d.getAccountPath(account.Address), account)
}

// GetAccount reads the account for the specified address from disk.
func (d *Disk) GetAccount(address string) (database.Account, error) {
	if len(address) > maxAddressLength {
		return database.Account{}, database.ErrNotFound
	}

	var account database.Account
	if err := read(d.getAccountPath(address), &account); err != nil {
		return database.Account{}, err
	}

	return account, nil
}

// UpdateAccount replaces the stored account with the specified account. The
// account must already exist.
func (d *Disk) UpdateAccount(account database.Account) error {
	if len(account.Address) > maxAddressLength {
		return database.ErrNotFound
	}

	path := d.getAccountPath(account.Address)

	d.acctMu.Lock()
	defer d.acctMu.Unlock()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return database.ErrNotFound
		}
		return err
	}

	return replace(path, account)
}

// getAccountPath forms the path to the specified account. Addresses are
// opaque strings so the file name is the hex form of the address.
func (d *Disk) getAccountPath(address string) string {
	name := common.Bytes2Hex([]byte(address))
	return filepath.Join(d.accountsPath, fmt.Sprintf("%s.json", name))
}
