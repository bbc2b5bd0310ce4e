// Package worker implements the mining workflow of a standalone miner. The
// worker fetches the latest block from a node, solves the next block locally
// and submits it back to the node.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/cenkalti/backoff/v4"
)

// Node represents the behavior the worker needs from a ledger node.
type Node interface {
	Genesis(ctx context.Context) (client.Genesis, error)
	LastBlock(ctx context.Context) (client.Block, error)
	SubmitBlock(ctx context.Context, header database.BlockHeader, hash string, minerAddress string) (client.Block, error)
}

// Config represents the configuration required to run a worker.
type Config struct {
	Node         Node
	MinerAddress string
	Payload      string
	EvHandler    func(v string, args ...any)

	// BackOff returns the policy used to retry a node that can't be
	// reached. An exponential backoff is used when this is nil.
	BackOff func() backoff.BackOff
}

// =============================================================================

// Worker manages the mining workflow against a node.
type Worker struct {
	node         Node
	minerAddress string
	payload      string
	evHandler    func(v string, args ...any)
	newBackOff   func() backoff.BackOff

	wg       sync.WaitGroup
	shut     chan struct{}
	shutOnce sync.Once
	cancel   context.CancelFunc
}

// New constructs a worker for use.
func New(cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	newBackOff := cfg.BackOff
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxInterval = 30 * time.Second
			bo.MaxElapsedTime = 0
			return bo
		}
	}

	return &Worker{
		node:         cfg.Node,
		minerAddress: cfg.MinerAddress,
		payload:      cfg.Payload,
		evHandler:    ev,
		newBackOff:   newBackOff,
		shut:         make(chan struct{}),
	}
}

// Run starts mining blocks in the background until Shutdown is called.
func (w *Worker) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations(ctx)
	}()

	<-hasStarted
}

// Shutdown cancels any mining in progress and waits for the worker to stop.
// It's safe to call more than once.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: signal cancel mining")
		close(w.shut)
		if w.cancel != nil {
			w.cancel()
		}
	})

	w.evHandler("worker: shutdown: terminate goroutines")
	w.wg.Wait()
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
