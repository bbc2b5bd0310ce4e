// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch, err := h.Evts.Subscribe(v.TraceID)
	if err != nil {
		return nil
	}
	defer h.Evts.Unsubscribe(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()

	resp := genesis{
		Date:         gen.Date.UTC().Format(time.RFC3339),
		ChainID:      gen.ChainID,
		Difficulty:   gen.Difficulty,
		MiningReward: gen.MiningReward,
		TimeStamp:    gen.TimeStamp(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// MineBlock accepts a block mined by a client. The block is added if it
// extends the latest block and its hash meets the difficulty.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mineRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest, errs.CodeInvalidInput)
	}

	blk, err := h.State.SubmitMinedBlock(state.MinedBlock{
		Header:      req.header(),
		Hash:        req.Hash,
		Beneficiary: req.MinerAddress,
	})

	// The block is committed even when the reward couldn't be paid.
	var rerr *state.RewardError
	switch {
	case errors.As(err, &rerr):
		h.Log.Errorw("mining reward", "traceid", web.GetTraceID(ctx), "index", blk.Header.Index, "miner", rerr.Beneficiary, "ERROR", rerr.Err)

	case err != nil:
		return fmt.Errorf("submitting block %d: %w", req.Index, err)
	}

	h.Log.Infow("block mined", "traceid", web.GetTraceID(ctx), "index", blk.Header.Index, "hash", blk.Hash(), "miner", blk.Beneficiary)

	resp := toBlock(blk)
	if rerr != nil {
		resp.RewardError = rerr.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// LastBlock returns the latest block in the chain.
func (h Handlers) LastBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toBlock(blk), http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(web.Param(r, "index"))
	if err != nil {
		return err
	}

	blk, err := h.State.QueryBlock(index)
	if err != nil {
		return fmt.Errorf("block %d: %w", index, err)
	}

	return web.Respond(ctx, w, toBlock(blk), http.StatusOK)
}

// BlocksByNumber returns the blocks between from and to. With no range the
// first page of the chain is returned.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, to := uint64(0), uint64(state.QueryLimit-1)

	if fromStr := web.Param(r, "from"); fromStr != "" {
		var err error
		if from, err = parseIndex(fromStr); err != nil {
			return err
		}
		if to, err = parseIndex(web.Param(r, "to")); err != nil {
			return err
		}
	}

	blks, err := h.State.QueryBlocksByNumber(from, to)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toBlocks(blks), http.StatusOK)
}

// Height returns the index of the latest block.
func (h Handlers) Height(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := h.State.QueryHeight()
	if err != nil {
		return err
	}

	resp := struct {
		Height uint64 `json:"height"`
	}{
		Height: height,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreateAccount allocates a new account with a zero balance.
func (h Handlers) CreateAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct, err := h.State.CreateAccount()
	if err != nil {
		return err
	}

	h.Log.Infow("account created", "traceid", web.GetTraceID(ctx), "address", acct.Address)

	return web.Respond(ctx, w, toAccount(acct), http.StatusCreated)
}

// Account returns the balance and history of the account.
func (h Handlers) Account(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct, err := h.State.QueryAccount(web.Param(r, "address"))
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toAccount(acct), http.StatusOK)
}

// SubmitTransfer moves an amount from one account to another.
func (h Handlers) SubmitTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req transferRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest, errs.CodeInvalidInput)
	}

	h.Log.Infow("transfer", "traceid", web.GetTraceID(ctx), "sender", req.Sender, "recipient", req.Recipient, "amount", req.Amount)

	if err := h.State.SubmitTransfer(req.Sender, req.Recipient, req.Amount); err != nil {
		return err
	}

	resp := struct {
		Message string `json:"message"`
	}{
		Message: "transaction completed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func parseIndex(s string) (uint64, error) {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block index %q", s), http.StatusBadRequest, errs.CodeInvalidInput)
	}
	return index, nil
}
