package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestClient(t *testing.T) {
	var submitted map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/last", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"index": 4, "timestamp": 10, "previous_hash": "ab", "hash": "00cd"})
	})
	mux.HandleFunc("/v1/blocks/mine", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&submitted)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"code": "stale_head", "error": "stale head"})
	})
	mux.HandleFunc("/v1/blocks/height", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"height": 4})
	})
	mux.HandleFunc("/v1/blocks/list/1/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"index": 1, "hash": "00a1"}, {"index": 2, "previous_hash": "00a1", "hash": "00b2"}})
	})
	mux.HandleFunc("/v1/machines/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"code": "not_found", "error": "account " + r.URL.EscapedPath() + " not found"})
	})
	mux.HandleFunc("/v1/machines/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := client.New(srv.URL + "/")
	ctx := context.Background()

	t.Log("Given the need to talk to a node.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen reading the last block.", testID)
		{
			blk, err := c.LastBlock(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the last block: %v", failed, testID, err)
			}
			if blk.Index != 4 || blk.Hash != "00cd" || blk.Header().PrevBlockHash != "ab" {
				t.Fatalf("\t%s\tTest %d:\tShould decode the block, got %+v.", failed, testID, blk)
			}
			t.Logf("\t%s\tTest %d:\tShould decode the block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node rejects a block.", testID)
		{
			header := database.BlockHeader{Index: 5, TimeStamp: 11, Payload: "p", PrevBlockHash: "00cd", Nonce: 3}

			_, err := c.SubmitBlock(ctx, header, "", "miner")
			if !client.IsStaleHead(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get a stale head error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a stale head error.", success, testID)

			if submitted["miner_address"] != "miner" || submitted["nonce"] != float64(3) {
				t.Fatalf("\t%s\tTest %d:\tShould send the mined header, got %v.", failed, testID, submitted)
			}
			if _, exists := submitted["hash"]; exists {
				t.Fatalf("\t%s\tTest %d:\tShould leave out an empty hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould send the mined header.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node answers without an error document.", testID)
		{
			_, err := c.Account(ctx, "broken")

			var ne *client.Error
			if !errors.As(err, &ne) || ne.Status != http.StatusInternalServerError || ne.Message != "boom" {
				t.Fatalf("\t%s\tTest %d:\tShould get a node error with the body, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a node error with the body.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading the height and a range of blocks.", testID)
		{
			height, err := c.Height(ctx)
			if err != nil || height != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould get height 4, got %d: %v", failed, testID, height, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get height 4.", success, testID)

			blocks, err := c.Blocks(ctx, 1, 2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the blocks: %v", failed, testID, err)
			}
			if len(blocks) != 2 || blocks[0].Index != 1 || blocks[1].PrevHash != blocks[0].Hash {
				t.Fatalf("\t%s\tTest %d:\tShould decode the linked blocks, got %+v.", failed, testID, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould decode the linked blocks.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the account doesn't exist.", testID)
		{
			_, err := c.Account(ctx, "a/b c")
			if !client.IsNotFound(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get a not found error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a not found error.", success, testID)

			var ne *client.Error
			if !errors.As(err, &ne) || ne.Message != "account /v1/machines/a%2Fb%20c not found" {
				t.Fatalf("\t%s\tTest %d:\tShould escape the address in the path, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould escape the address in the path.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the chain has no genesis block.", testID)
		{
			empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]any{"code": "chain_empty", "error": "chain is empty"})
			}))
			defer empty.Close()

			_, err := client.New(empty.URL).Height(ctx)
			if !client.IsNotFound(err) || client.IsStaleHead(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get a not found error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a not found error.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node can't be reached.", testID)
		{
			down := client.New("http://127.0.0.1:1")
			_, err := down.Genesis(ctx)
			if err == nil || client.IsNodeError(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get a transport error, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a transport error.", success, testID)
		}
	}
}
