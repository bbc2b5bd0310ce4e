// Package storage implements the block and account storage used by the
// database package, either on disk or in memory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// blockIterator walks the blocks of a storage starting with the genesis
// block. This implements the database Iterator interface.
type blockIterator struct {
	getBlock func(index uint64) (database.BlockData, error)
	current  uint64 // Next block index to be read.
	eoc      bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from storage.
func (bi *blockIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := bi.getBlock(bi.current)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			bi.eoc = true
			return database.BlockData{}, nil
		}
		return database.BlockData{}, err
	}
	bi.current++

	return blockData, nil
}

// Done returns the end of chain value.
func (bi *blockIterator) Done() bool {
	return bi.eoc
}

// =============================================================================

// publish writes the value to a temporary file and links it into place. The
// link fails if the file already exists so a document is never overwritten
// or seen half written.
func publish(path string, value any) error {
	tmp, err := writeTemp(path, value)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return database.ErrExists
		}
		return err
	}

	return nil
}

// replace writes the value to a temporary file and renames it over the
// existing file.
func replace(path string, value any) error {
	tmp, err := writeTemp(path, value)
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// writeTemp marshals the value in a human readable format into a temporary
// file next to the specified path.
func writeTemp(path string, value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

// read decodes the JSON document at the specified path.
func read(path string, value any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.ErrNotFound
		}
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(value); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	return nil
}
