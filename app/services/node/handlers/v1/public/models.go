package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/validate"
)

// mineRequest is a block the client has already mined. Every header field
// is covered by the hash so all of them must be sent back as mined.
type mineRequest struct {
	Index        uint64 `json:"index" validate:"required"`
	TimeStamp    uint64 `json:"timestamp" validate:"required"`
	Payload      string `json:"payload"`
	PrevHash     string `json:"previous_hash" validate:"required"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash" validate:"omitempty,len=64,hexadecimal"`
	MinerAddress string `json:"miner_address" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (mr mineRequest) Validate() error {
	return validate.Check(mr)
}

func (mr mineRequest) header() database.BlockHeader {
	return database.BlockHeader{
		Index:         mr.Index,
		TimeStamp:     mr.TimeStamp,
		Payload:       mr.Payload,
		PrevBlockHash: mr.PrevHash,
		Nonce:         mr.Nonce,
	}
}

type transferRequest struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required,nefield=Sender"`
	Amount    uint64 `json:"amount" validate:"required,gt=0"`
}

// Validate checks the data in the model is considered clean.
func (tr transferRequest) Validate() error {
	return validate.Check(tr)
}

// =============================================================================

type block struct {
	Index        uint64 `json:"index"`
	TimeStamp    uint64 `json:"timestamp"`
	Payload      string `json:"payload"`
	PrevHash     string `json:"previous_hash"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
	Difficulty   uint16 `json:"difficulty"`
	MinerAddress string `json:"miner_address,omitempty"`
	RewardError  string `json:"reward_error,omitempty"`
}

func toBlock(blk database.Block) block {
	return block{
		Index:        blk.Header.Index,
		TimeStamp:    blk.Header.TimeStamp,
		Payload:      blk.Header.Payload,
		PrevHash:     blk.Header.PrevBlockHash,
		Nonce:        blk.Header.Nonce,
		Hash:         blk.Hash(),
		Difficulty:   blk.Difficulty,
		MinerAddress: blk.Beneficiary,
	}
}

func toBlocks(blks []database.Block) []block {
	blocks := make([]block, len(blks))
	for i, blk := range blks {
		blocks[i] = toBlock(blk)
	}
	return blocks
}

type entry struct {
	Type         string `json:"type"`
	Amount       uint64 `json:"amount"`
	Counterparty string `json:"counterparty,omitempty"`
	TimeStamp    uint64 `json:"timestamp"`
}

type account struct {
	Address string  `json:"address"`
	Balance uint64  `json:"balance"`
	History []entry `json:"transaction_history"`
}

func toAccount(acct database.Account) account {
	history := make([]entry, len(acct.History))
	for i, e := range acct.History {
		history[i] = entry{
			Type:         string(e.Type),
			Amount:       e.Amount,
			Counterparty: e.Counterparty,
			TimeStamp:    e.TimeStamp,
		}
	}

	return account{
		Address: acct.Address,
		Balance: acct.Balance,
		History: history,
	}
}

type genesis struct {
	Date         string `json:"date"`
	ChainID      uint16 `json:"chain_id"`
	Difficulty   uint16 `json:"difficulty"`
	MiningReward uint64 `json:"mining_reward"`
	TimeStamp    uint64 `json:"timestamp"`
}
