// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Set of default values used when the genesis file doesn't provide them.
const (
	DefaultDifficulty   = 2
	DefaultMiningReward = 1
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Time stamp of the genesis block.
	ChainID      uint16    `json:"chain_id"`      // The chain id represents an unique id for this running instance.
	Difficulty   uint16    `json:"difficulty"`    // How difficult it needs to be to solve the work problem.
	MiningReward uint64    `json:"mining_reward"` // Reward for mining a block.
}

// Default returns the genesis values used when no file exists.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:      1,
		Difficulty:   DefaultDifficulty,
		MiningReward: DefaultMiningReward,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. If the file doesn't exist the
// default genesis is returned. A file without a date gets the default date.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	if genesis.Date.IsZero() {
		genesis.Date = Default().Date
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values can run a chain.
func (g Genesis) Validate() error {
	if g.Date.UnixMilli() < 0 {
		return fmt.Errorf("genesis date %s is before the unix epoch", g.Date.UTC().Format(time.RFC3339))
	}

	if g.Difficulty > database.MaxDifficulty {
		return fmt.Errorf("genesis difficulty %d is greater than %d", g.Difficulty, database.MaxDifficulty)
	}

	if g.MiningReward == 0 {
		return errors.New("genesis mining reward must be greater than 0")
	}

	return nil
}

// TimeStamp returns the genesis date in unix milliseconds.
func (g Genesis) TimeStamp() uint64 {
	return uint64(g.Date.UTC().UnixMilli())
}
