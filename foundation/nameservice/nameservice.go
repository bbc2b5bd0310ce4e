// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the account addresses the wallet has created.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ext is the extension of the files holding an address.
const ext = ".address"

// validName restricts names to what can be used as a file name.
var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// NameService maintains a map of names and addresses for lookup.
type NameService struct {
	root      string
	addresses map[string]string // name -> address
	names     map[string]string // address -> name
}

// New constructs a name service with the addresses from the root folder. A
// missing folder is an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		root:      root,
		addresses: make(map[string]string),
		names:     make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && fileName == root {
				return filepath.SkipDir
			}
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != ext {
			return nil
		}

		data, err := os.ReadFile(fileName)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(fileName), ext)
		address := strings.TrimSpace(string(data))

		ns.addresses[name] = address
		ns.names[address] = name

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Save records the address under the name in the root folder.
func (ns *NameService) Save(name string, address string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid name %q", name)
	}

	if _, exists := ns.addresses[name]; exists {
		return fmt.Errorf("name %q already exists", name)
	}

	if err := os.MkdirAll(ns.root, 0755); err != nil {
		return err
	}

	path := filepath.Join(ns.root, name+ext)
	if err := os.WriteFile(path, []byte(address+"\n"), 0644); err != nil {
		return err
	}

	ns.addresses[name] = address
	ns.names[address] = name

	return nil
}

// Lookup returns the name for the specified address, or the address itself
// if it has no name.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.names[address]
	if !exists {
		return address
	}
	return name
}

// Resolve returns the address for the specified name. A value that isn't a
// known name is returned as is so addresses can be used directly.
func (ns *NameService) Resolve(nameOrAddress string) string {
	address, exists := ns.addresses[nameOrAddress]
	if !exists {
		return nameOrAddress
	}
	return address
}

// Copy returns a copy of the map of names and addresses.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.addresses))
	for name, address := range ns.addresses {
		cpy[name] = address
	}
	return cpy
}
