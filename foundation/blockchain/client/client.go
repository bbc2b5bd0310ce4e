// Package client provides support to access a ledger node over its v1 api.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Set of error codes returned by the node that a client acts on.
const (
	CodeStaleHead    = "stale_head"
	CodeInvalidProof = "invalid_proof"
	CodeNotFound     = "not_found"
	CodeChainEmpty   = "chain_empty"
)

// Error is returned when the node responds with an error document.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("node: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsStaleHead reports whether the node rejected a block because the chain
// moved on before it was submitted.
func IsStaleHead(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeStaleHead
}

// IsNotFound reports whether the node has nothing at what was asked for,
// including a chain without a genesis block.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Code == CodeNotFound || e.Code == CodeChainEmpty)
}

// IsNodeError reports whether the node answered with an error document. Any
// other error means the node couldn't be reached.
func IsNodeError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// =============================================================================

// Genesis is the chain configuration the node runs with.
type Genesis struct {
	Date         string `json:"date"`
	ChainID      uint16 `json:"chain_id"`
	Difficulty   uint16 `json:"difficulty"`
	MiningReward uint64 `json:"mining_reward"`
	TimeStamp    uint64 `json:"timestamp"`
}

// Block is a block as the node reports it.
type Block struct {
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

// Header returns the hashed fields of the block.
func (b Block) Header() database.BlockHeader {
	return database.BlockHeader{
		Index:         b.Index,
		TimeStamp:     b.TimeStamp,
		Payload:       b.Payload,
		PrevBlockHash: b.PrevHash,
		Nonce:         b.Nonce,
	}
}

// Entry is one balance change in an account's history.
type Entry struct {
	Type         string `json:"type"`
	Amount       uint64 `json:"amount"`
	Counterparty string `json:"counterparty,omitempty"`
	TimeStamp    uint64 `json:"timestamp"`
}

// Account is an account as the node reports it.
type Account struct {
	Address string  `json:"address"`
	Balance uint64  `json:"balance"`
	History []Entry `json:"transaction_history"`
}

// =============================================================================

// Client talks to a single node.
type Client struct {
	host string
	http *http.Client
}

// New constructs a client for the node at the specified host, such as
// http://localhost:8080.
func New(host string) *Client {
	return &Client{
		host: strings.TrimSuffix(host, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Genesis returns the genesis information of the chain.
func (c *Client) Genesis(ctx context.Context) (Genesis, error) {
	var gen Genesis
	if err := c.send(ctx, http.MethodGet, "/v1/genesis", nil, &gen); err != nil {
		return Genesis{}, err
	}
	return gen, nil
}

// LastBlock returns the latest block in the chain.
func (c *Client) LastBlock(ctx context.Context) (Block, error) {
	var blk Block
	if err := c.send(ctx, http.MethodGet, "/v1/blocks/last", nil, &blk); err != nil {
		return Block{}, err
	}
	return blk, nil
}

// Height returns the index of the latest block.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var resp struct {
		Height uint64 `json:"height"`
	}
	if err := c.send(ctx, http.MethodGet, "/v1/blocks/height", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// Blocks returns the blocks between from and to inclusive. The node caps
// the number of blocks returned.
func (c *Client) Blocks(ctx context.Context, from uint64, to uint64) ([]Block, error) {
	var blocks []Block
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("/v1/blocks/list/%d/%d", from, to), nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// SubmitBlock sends a mined header to the node with the address to reward.
func (c *Client) SubmitBlock(ctx context.Context, header database.BlockHeader, hash string, minerAddress string) (Block, error) {
	req := struct {
		Index        uint64 `json:"index"`
		TimeStamp    uint64 `json:"timestamp"`
		Payload      string `json:"payload"`
		PrevHash     string `json:"previous_hash"`
		Nonce        uint64 `json:"nonce"`
		Hash         string `json:"hash,omitempty"`
		MinerAddress string `json:"miner_address"`
	}{
		Index:        header.Index,
		TimeStamp:    header.TimeStamp,
		Payload:      header.Payload,
		PrevHash:     header.PrevBlockHash,
		Nonce:        header.Nonce,
		Hash:         hash,
		MinerAddress: minerAddress,
	}

	var blk Block
	if err := c.send(ctx, http.MethodPost, "/v1/blocks/mine", req, &blk); err != nil {
		return Block{}, err
	}
	return blk, nil
}

// CreateAccount asks the node to allocate a new account.
func (c *Client) CreateAccount(ctx context.Context) (Account, error) {
	var acct Account
	if err := c.send(ctx, http.MethodPost, "/v1/machines/create", nil, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Account returns the balance and history of the account.
func (c *Client) Account(ctx context.Context, address string) (Account, error) {
	var acct Account
	if err := c.send(ctx, http.MethodGet, "/v1/machines/"+url.PathEscape(address), nil, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Transfer moves the amount between two accounts.
func (c *Client) Transfer(ctx context.Context, sender string, recipient string, amount uint64) error {
	req := struct {
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
		Amount    uint64 `json:"amount"`
	}{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	return c.send(ctx, http.MethodPost, "/v1/tx/submit", req, nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to the node.
func (c *Client) send(ctx context.Context, method string, path string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er struct {
			Code   string            `json:"code"`
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}

		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if err := json.Unmarshal(msg, &er); err != nil || er.Code == "" {
			return &Error{Status: resp.StatusCode, Code: "unknown", Message: strings.TrimSpace(string(msg))}
		}

		return &Error{Status: resp.StatusCode, Code: er.Code, Message: er.Error, Fields: er.Fields}
	}

	if dataRecv != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
