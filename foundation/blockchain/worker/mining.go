package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/cenkalti/backoff/v4"
)

// miningOperations mines one block after another until the context is
// cancelled.
func (w *Worker) miningOperations(ctx context.Context) {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for !w.isShutdown() {
		t := time.Now()
		blk, err := w.MineOnce(ctx)
		duration := time.Since(t)

		switch {
		case ctx.Err() != nil:
			w.evHandler("worker: miningOperations: MINING: CANCEL: complete")
			return

		case err != nil:
			w.evHandler("worker: miningOperations: MINING: ERROR: %s", err)

			// The node rejected the block for a reason mining again won't
			// fix right away. Give it a moment before the next attempt.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}

		default:
			w.evHandler("worker: miningOperations: MINING: accepted: blk[%d]: hash[%s]: duration[%v]", blk.Index, blk.Hash, duration)
		}
	}
}

// MineOnce mines the block after the latest block of the node and submits
// it. If another miner extends the chain first, the latest block is fetched
// again and the work starts over.
func (w *Worker) MineOnce(ctx context.Context) (client.Block, error) {
	w.evHandler("worker: MineOnce: MINING: started")
	defer w.evHandler("worker: MineOnce: MINING: completed")

	gen, err := retry(ctx, w.newBackOff(), w.node.Genesis)
	if err != nil {
		return client.Block{}, fmt.Errorf("fetching genesis: %w", err)
	}

	for {
		last, err := retry(ctx, w.newBackOff(), w.node.LastBlock)
		if err != nil {
			return client.Block{}, fmt.Errorf("fetching last block: %w", err)
		}

		header := database.BlockHeader{
			Index:         last.Index + 1,
			TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
			Payload:       w.payload,
			PrevBlockHash: last.Hash,
		}

		nonce, hash, err := database.Mine(ctx, header, gen.Difficulty, w.evHandler)
		if err != nil {
			return client.Block{}, err
		}
		header.Nonce = nonce

		submit := func(ctx context.Context) (client.Block, error) {
			return w.node.SubmitBlock(ctx, header, hash, w.minerAddress)
		}

		blk, err := retry(ctx, w.newBackOff(), submit)
		switch {
		case client.IsStaleHead(err):
			w.evHandler("worker: MineOnce: MINING: stale head: blk[%d]: refetching", header.Index)
			continue

		case err != nil:
			return client.Block{}, fmt.Errorf("submitting block %d: %w", header.Index, err)
		}

		if blk.RewardError != "" {
			w.evHandler("worker: MineOnce: MINING: ERROR: blk[%d] accepted without reward: %s", blk.Index, blk.RewardError)
		}

		return blk, nil
	}
}

// retry calls the function until it succeeds, the node answers with an
// error, or the backoff policy gives up. Only failures to reach the node
// are retried.
func retry[T any](ctx context.Context, bo backoff.BackOff, fn func(ctx context.Context) (T, error)) (T, error) {
	var v T

	op := func() error {
		var err error
		v, err = fn(ctx)
		if client.IsNodeError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		var zero T
		return zero, err
	}

	return v, nil
}
