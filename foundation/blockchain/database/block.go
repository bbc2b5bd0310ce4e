package database

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// GenesisPrevHash is the reserved previous hash of the genesis block.
const GenesisPrevHash = "0"

// MaxDifficulty is the largest difficulty a hash can satisfy. A SHA-256
// digest is 64 hex characters long.
const MaxDifficulty = 64

// hashLength is the length of a hex encoded SHA-256 digest.
const hashLength = 2 * sha256.Size

// =============================================================================

// BlockHeader represents the fields of a block that are covered by its hash.
type BlockHeader struct {
	Index         uint64 `json:"index"`         // Position in the chain, genesis is 0.
	TimeStamp     uint64 `json:"timestamp"`     // Unix milliseconds when the block was built.
	Payload       string `json:"payload"`       // Opaque data carried by the block.
	PrevBlockHash string `json:"previous_hash"` // Hash of the parent block, "0" for genesis.
	Nonce         uint64 `json:"nonce"`         // Value identified to solve the hash solution.
}

// Block represents a committed or candidate block in the chain.
type Block struct {
	ID          string
	Header      BlockHeader
	Difficulty  uint16 // Number of 0's the hash was required to have.
	Beneficiary string // Address of the account submitting the block.
}

// NewGenesisBlock constructs the index 0 block. The genesis block is never
// mined, its nonce is 0 and it carries no payload.
func NewGenesisBlock(timeStamp uint64) Block {
	return Block{
		ID: uuid.NewString(),
		Header: BlockHeader{
			Index:         0,
			TimeStamp:     timeStamp,
			PrevBlockHash: GenesisPrevHash,
		},
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return Digest(Encode(b.Header))
}

// IsGenesis reports whether this is the index 0 block.
func (b Block) IsGenesis() bool {
	return b.Header.Index == 0
}

// ValidateBlock takes a block and validates it to be the next block after
// the previous block under the specified difficulty.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Index)

	nextIndex := previousBlock.Header.Index + 1
	if b.Header.Index != nextIndex {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrStaleHead, b.Header.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Index)

	prevHash := previousBlock.Hash()
	if b.Header.PrevBlockHash != prevHash {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrStaleHead, b.Header.PrevBlockHash, prevHash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Index)

	hash := b.Hash()
	if !IsHashSolved(difficulty, hash) {
		return fmt.Errorf("%w: %s does not have %d leading zeros", ErrInvalidProof, hash, difficulty)
	}

	return nil
}

// =============================================================================

// Encode returns the canonical string that is hashed for a block. The fields
// are concatenated without separators in the order index, timestamp,
// payload, previous hash and nonce. Numbers are written in base 10.
func Encode(h BlockHeader) string {
	var b strings.Builder
	b.Grow(len(h.Payload) + len(h.PrevBlockHash) + 60)

	b.WriteString(strconv.FormatUint(h.Index, 10))
	b.WriteString(strconv.FormatUint(h.TimeStamp, 10))
	b.WriteString(h.Payload)
	b.WriteString(h.PrevBlockHash)
	b.WriteString(strconv.FormatUint(h.Nonce, 10))

	return b.String()
}

// Digest returns the lower case hex encoded SHA-256 of the value.
func Digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return common.Bytes2Hex(hash[:])
}

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint16, hash string) bool {
	if !IsHash(hash) || int(difficulty) > MaxDifficulty {
		return false
	}

	for _, c := range hash[:difficulty] {
		if c != '0' {
			return false
		}
	}

	return true
}

// IsHash reports whether the value has the shape of a digest produced by
// the Digest function.
func IsHash(hash string) bool {
	if len(hash) != hashLength || hash != strings.ToLower(hash) {
		return false
	}

	_, err := hexutil.Decode("0x" + hash)
	return err == nil
}

// =============================================================================

// BlockData represents what is serialized to disk and over the network.
type BlockData struct {
	ID          string      `json:"id"`
	Hash        string      `json:"hash"`
	Header      BlockHeader `json:"header"`
	Difficulty  uint16      `json:"difficulty"`
	Beneficiary string      `json:"beneficiary,omitempty"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		ID:          block.ID,
		Hash:        block.Hash(),
		Header:      block.Header,
		Difficulty:  block.Difficulty,
		Beneficiary: block.Beneficiary,
	}
}

// ToBlock converts BlockData into a Block. The document is rejected if
// required fields are missing or the stored hash doesn't match the header.
func ToBlock(blockData BlockData) (Block, error) {
	if blockData.ID == "" {
		return Block{}, errors.New("block document missing id")
	}

	if blockData.Header.PrevBlockHash == "" {
		return Block{}, fmt.Errorf("block document %d missing previous hash", blockData.Header.Index)
	}

	block := Block{
		ID:          blockData.ID,
		Header:      blockData.Header,
		Difficulty:  blockData.Difficulty,
		Beneficiary: blockData.Beneficiary,
	}

	if hash := block.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("block document %d hash mismatch, got %s, exp %s", blockData.Header.Index, blockData.Hash, hash)
	}

	return block, nil
}
