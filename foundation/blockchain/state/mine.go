package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/google/uuid"
)

// RewardError is returned with an accepted block when the mining reward
// couldn't be paid. The block is part of the chain either way.
type RewardError struct {
	Beneficiary string
	Err         error
}

// Error implements the error interface.
func (re *RewardError) Error() string {
	return fmt.Sprintf("paying mining reward to %q: %s", re.Beneficiary, re.Err)
}

// Unwrap returns the wrapped error.
func (re *RewardError) Unwrap() error {
	return re.Err
}

// =============================================================================

// MinedBlock represents a block a miner has found a nonce for and is
// submitting to be added to the chain.
type MinedBlock struct {
	Header      database.BlockHeader
	Hash        string // Optional, must match the computed hash when provided.
	Beneficiary string // Address of the account to receive the mining reward.
}

// Bootstrap writes the genesis block if the chain is empty. Calling it on a
// chain that already has a genesis block does nothing.
func (s *State) Bootstrap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.db.LatestBlock()
	switch {
	case err == nil:
		s.evHandler("state: Bootstrap: chain exists: height[%d]: latestBlk[%s]", latest.Header.Index, latest.Hash())
		return nil

	case !errors.Is(err, database.ErrChainEmpty):
		return err
	}

	block := database.NewGenesisBlock(s.genesis.TimeStamp())
	if err := s.db.Append(block); err != nil {
		return fmt.Errorf("writing genesis block: %w", err)
	}

	s.evHandler("state: Bootstrap: genesis block created: blk[%s]", block.Hash())
	s.blockEvent(block)

	return nil
}

// SubmitMinedBlock validates a block mined by a client against the latest
// block and the difficulty in force. If the block passes, it's added to the
// chain and the beneficiary is paid the mining reward. A reward that can't
// be paid is reported as a *RewardError along with the accepted block.
func (s *State) SubmitMinedBlock(mb MinedBlock) (database.Block, error) {
	s.evHandler("state: SubmitMinedBlock: started: blk[%d]: prevBlk[%s]", mb.Header.Index, mb.Header.PrevBlockHash)
	defer s.evHandler("state: SubmitMinedBlock: completed: blk[%d]", mb.Header.Index)

	block := database.Block{
		ID:          uuid.NewString(),
		Header:      mb.Header,
		Difficulty:  s.genesis.Difficulty,
		Beneficiary: mb.Beneficiary,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.db.LatestBlock()
	if err != nil {
		return database.Block{}, err
	}

	if err := block.ValidateBlock(latest, s.genesis.Difficulty, s.evHandler); err != nil {
		return database.Block{}, err
	}

	if hash := block.Hash(); mb.Hash != "" && !strings.EqualFold(mb.Hash, hash) {
		return database.Block{}, fmt.Errorf("%w: submitted hash %s, computed %s", database.ErrInvalidProof, mb.Hash, hash)
	}

	s.evHandler("state: SubmitMinedBlock: write to storage: blk[%d]", block.Header.Index)

	if err := s.db.Append(block); err != nil {
		return database.Block{}, err
	}

	s.blockEvent(block)

	if err := s.applyMiningReward(block); err != nil {
		return block, &RewardError{Beneficiary: block.Beneficiary, Err: err}
	}

	return block, nil
}

// =============================================================================

// applyMiningReward gives the beneficiary of the block the mining reward.
// A block from an address that isn't a known account is kept without
// paying a reward.
func (s *State) applyMiningReward(block database.Block) error {
	if block.Beneficiary == "" {
		s.evHandler("state: applyMiningReward: blk[%d]: no beneficiary", block.Header.Index)
		return nil
	}

	account, err := s.ledger.Credit(block.Beneficiary, s.genesis.MiningReward, database.EntryMining)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.evHandler("state: applyMiningReward: blk[%d]: WARNING: unknown beneficiary[%s], no reward paid", block.Header.Index, block.Beneficiary)
			return nil
		}

		s.evHandler("state: applyMiningReward: blk[%d]: ERROR: %s", block.Header.Index, err)
		return err
	}

	s.evHandler("state: applyMiningReward: blk[%d]: beneficiary[%s]: balance[%d]", block.Header.Index, block.Beneficiary, account.Balance)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"difficulty":%d,"beneficiary":%q,"header":%s}`, block.Hash(), block.Difficulty, block.Beneficiary, string(blockHeaderJSON))
}
