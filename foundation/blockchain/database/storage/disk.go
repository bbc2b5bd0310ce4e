package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Disk represents the storage implementation for reading and storing blocks
// and accounts in their own separate files on disk. This implements the
// database.BlockStorage and database.AccountStorage interfaces.
type Disk struct {
	blocksPath   string
	accountsPath string

	mu        sync.RWMutex
	lastIndex uint64
	hasBlocks bool
	acctMu    sync.Mutex
}

// NewDisk constructs a Disk value for use. The folders for the blocks and
// accounts are created under dbPath if they don't exist.
func NewDisk(dbPath string) (*Disk, error) {
	d := Disk{
		blocksPath:   filepath.Join(dbPath, "blocks"),
		accountsPath: filepath.Join(dbPath, "accounts"),
	}

	for _, path := range []string{d.blocksPath, d.accountsPath} {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, err
		}
	}

	// Find the block file with the highest index. Gaps in the chain are left
	// for the database to detect.
	entries, err := os.ReadDir(d.blocksPath)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}

		index, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			continue
		}

		if !d.hasBlocks || index > d.lastIndex {
			d.lastIndex = index
			d.hasBlocks = true
		}
	}

	return &d, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Insert takes the specified block and stores it on disk in a file labeled
// with the block index. The insert fails with database.ErrExists if a block
// with this index is already on disk.
func (d *Disk) Insert(blockData database.BlockData) error {
	if err := publish(d.getPath(blockData.Header.Index), blockData); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasBlocks || blockData.Header.Index > d.lastIndex {
		d.lastIndex = blockData.Header.Index
		d.hasBlocks = true
	}

	return nil
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by index.
func (d *Disk) GetBlock(index uint64) (database.BlockData, error) {
	var blockData database.BlockData
	if err := read(d.getPath(index), &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// LastBlock returns the block with the highest index on disk.
func (d *Disk) LastBlock() (database.BlockData, error) {
	d.mu.RLock()
	index, has := d.lastIndex, d.hasBlocks
	d.mu.RUnlock()

	if !has {
		return database.BlockData{}, database.ErrNotFound
	}

	return d.GetBlock(index)
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &blockIterator{getBlock: d.GetBlock}
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(index uint64) string {
	name := strconv.FormatUint(index, 10)
	return filepath.Join(d.blocksPath, fmt.Sprintf("%s.json", name))
}
