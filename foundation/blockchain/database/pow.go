package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// progressInterval is the number of hash attempts between progress events.
const progressInterval = 100_000

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Beneficiary string
	Difficulty  uint16
	PrevBlock   Block
	Payload     string
	EvHandler   func(v string, args ...any)
}

// POW constructs a new Block on top of the previous block and performs the
// work to find a nonce that solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	nb := Block{
		ID: uuid.NewString(),
		Header: BlockHeader{
			Index:         args.PrevBlock.Header.Index + 1,
			TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
			Payload:       args.Payload,
			PrevBlockHash: args.PrevBlock.Hash(),
			Nonce:         0, // Will be identified by the POW algorithm.
		},
		Difficulty:  args.Difficulty,
		Beneficiary: args.Beneficiary,
	}

	nonce, _, err := Mine(ctx, nb.Header, args.Difficulty, args.EvHandler)
	if err != nil {
		return Block{}, err
	}
	nb.Header.Nonce = nonce

	return nb, nil
}

// Mine searches the nonce space starting at 0 for the first nonce where the
// hash of the header satisfies the difficulty. The nonce in the provided
// header is ignored. The search has no upper bound; the context only exists
// so the caller can walk away from it.
func Mine(ctx context.Context, header BlockHeader, difficulty uint16, evHandler func(v string, args ...any)) (uint64, string, error) {
	if difficulty > MaxDifficulty {
		return 0, "", fmt.Errorf("%w: difficulty %d is greater than %d", ErrInvalidInput, difficulty, MaxDifficulty)
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]", header.Index, difficulty)
	defer ev("database: Mine: MINING: completed: blk[%d]", header.Index)

	start := time.Now()
	var attempts uint64

	for header.Nonce = 0; ; header.Nonce++ {
		attempts++

		hash := Digest(Encode(header))
		if IsHashSolved(difficulty, hash) {
			elapsed := time.Since(start)
			ev("database: Mine: MINING: SOLVED: blk[%d]: nonce[%d]: hash[%s]", header.Index, header.Nonce, hash)
			ev("database: Mine: MINING: attempts[%d]: elapsed[%v]: rate[%.2f H/s]", attempts, elapsed, hashRate(attempts, elapsed))
			return header.Nonce, hash, nil
		}

		if attempts%progressInterval == 0 {
			if err := ctx.Err(); err != nil {
				ev("database: Mine: MINING: CANCELLED: attempts[%d]", attempts)
				return 0, "", err
			}

			elapsed := time.Since(start)
			ev("database: Mine: MINING: attempts[%d]: elapsed[%v]: rate[%.2f H/s]", attempts, elapsed, hashRate(attempts, elapsed))
		}
	}
}

// hashRate returns the number of hashes per second.
func hashRate(attempts uint64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(attempts) / secs
}
