package database_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func noEvents(v string, args ...any) {}

func TestEncode(t *testing.T) {
	type table struct {
		name   string
		header database.BlockHeader
		exp    string
	}

	tt := []table{
		{
			name:   "genesis",
			header: database.BlockHeader{Index: 0, TimeStamp: 1704067200000, PrevBlockHash: "0"},
			exp:    "0170406720000000",
		},
		{
			name:   "payload",
			header: database.BlockHeader{Index: 1, TimeStamp: 1700000000000, Payload: "data", PrevBlockHash: "abc", Nonce: 7},
			exp:    "11700000000000dataabc7",
		},
	}

	t.Log("Given the need to encode block headers in a canonical form.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %s header.", testID, tst.name)
				{
					got := database.Encode(tst.header)
					if got != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get the canonical string.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the canonical string.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestDigest(t *testing.T) {
	t.Log("Given the need to hash values with SHA-256.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen handling the value abc.", testID)
		{
			const exp = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

			got := database.Digest("abc")
			if got != exp {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould get the hex encoded digest.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the hex encoded digest.", success, testID)

			if !database.IsHash(got) {
				t.Fatalf("\t%s\tTest %d:\tShould be recognized as a hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be recognized as a hash.", success, testID)
		}
	}
}

func TestIsHashSolved(t *testing.T) {
	type table struct {
		name       string
		difficulty uint16
		hash       string
		exp        bool
	}

	zeros := strings.Repeat("0", 64)
	two := "00" + strings.Repeat("f", 62)

	tt := []table{
		{name: "zero-difficulty", difficulty: 0, hash: strings.Repeat("f", 64), exp: true},
		{name: "solved", difficulty: 2, hash: two, exp: true},
		{name: "not-solved", difficulty: 3, hash: two, exp: false},
		{name: "all-zeros", difficulty: 64, hash: zeros, exp: true},
		{name: "too-difficult", difficulty: 65, hash: zeros, exp: false},
		{name: "short", difficulty: 1, hash: "00", exp: false},
		{name: "upper-case", difficulty: 1, hash: "0" + strings.Repeat("F", 63), exp: false},
		{name: "not-hex", difficulty: 1, hash: "0" + strings.Repeat("z", 63), exp: false},
	}

	t.Log("Given the need to check a hash against a difficulty.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
				{
					got := database.IsHashSolved(tst.difficulty, tst.hash)
					if got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v.", failed, testID, tst.exp, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.exp)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestMine(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	t.Log("Given the need to find the smallest nonce that solves a header.")
	{
		testID := 0
		for difficulty := uint16(0); difficulty <= 3; difficulty++ {
			for i := 0; i < 5; i++ {
				header := database.BlockHeader{
					Index:         rnd.Uint64() % 1000,
					TimeStamp:     rnd.Uint64() % 1_000_000_000_000,
					Payload:       fmt.Sprintf("payload-%d", rnd.Int63()),
					PrevBlockHash: database.Digest(fmt.Sprint(rnd.Int63())),
					Nonce:         rnd.Uint64(),
				}

				t.Logf("\tTest %d:\tWhen mining a random header with difficulty %d.", testID, difficulty)
				{
					nonce, hash, err := database.Mine(context.Background(), header, difficulty, noEvents)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine the header: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine the header.", success, testID)

					if difficulty == 0 && nonce != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould accept nonce 0 with no difficulty, got %d.", failed, testID, nonce)
					}

					if !strings.HasPrefix(hash, strings.Repeat("0", int(difficulty))) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, difficulty, hash)
					}
					t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, difficulty)

					header.Nonce = nonce
					if got := database.Digest(database.Encode(header)); got != hash {
						t.Fatalf("\t%s\tTest %d:\tShould get the same hash when recomputed.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the same hash when recomputed.", success, testID)

					for n := uint64(0); n < nonce; n++ {
						header.Nonce = n
						if database.IsHashSolved(difficulty, database.Digest(database.Encode(header))) {
							t.Fatalf("\t%s\tTest %d:\tShould not have a smaller solving nonce, found %d.", failed, testID, n)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould not have a smaller solving nonce.", success, testID)
				}
				testID++
			}
		}
	}
}

func TestMineInvalidDifficulty(t *testing.T) {
	t.Log("Given the need to reject difficulties no hash can satisfy.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen mining with a difficulty of %d.", testID, database.MaxDifficulty+1)
		{
			_, _, err := database.Mine(context.Background(), database.BlockHeader{}, database.MaxDifficulty+1, nil)
			if !errors.Is(err, database.ErrInvalidInput) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrInvalidInput, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrInvalidInput.", success, testID)
		}
	}
}

func TestPOWValidateBlock(t *testing.T) {
	genesis := database.NewGenesisBlock(1704067200000)

	t.Log("Given the need to mine a block on top of a parent.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen mining with difficulty 2.", testID)
		{
			block, err := database.POW(context.Background(), database.POWArgs{
				Beneficiary: "miner",
				Difficulty:  2,
				PrevBlock:   genesis,
				Payload:     "some data",
				EvHandler:   noEvents,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to mine a block.", success, testID)

			if block.Header.Index != 1 || block.Header.PrevBlockHash != genesis.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould link to the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould link to the genesis block.", success, testID)

			if err := block.ValidateBlock(genesis, 2, noEvents); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould validate against the parent: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould validate against the parent.", success, testID)

			other := database.NewGenesisBlock(1)
			if err := block.ValidateBlock(other, 2, noEvents); !errors.Is(err, database.ErrStaleHead) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrStaleHead for a different parent, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrStaleHead for a different parent.", success, testID)

			tampered := block
			tampered.Header.Payload = "other data"
			for database.IsHashSolved(2, tampered.Hash()) {
				tampered.Header.Payload += "!"
			}
			if err := tampered.ValidateBlock(genesis, 2, noEvents); !errors.Is(err, database.ErrInvalidProof) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrInvalidProof for a tampered block, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrInvalidProof for a tampered block.", success, testID)
		}
	}
}

func TestToBlock(t *testing.T) {
	block := database.NewGenesisBlock(1704067200000)

	t.Log("Given the need to reject bad block documents.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen converting stored documents.", testID)
		{
			if _, err := database.ToBlock(database.NewBlockData(block)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept a good document: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a good document.", success, testID)

			bad := database.NewBlockData(block)
			bad.Hash = strings.Repeat("0", 64)
			if _, err := database.ToBlock(bad); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a hash mismatch.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a hash mismatch.", success, testID)

			missing := database.NewBlockData(block)
			missing.ID = ""
			if _, err := database.ToBlock(missing); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a missing id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a missing id.", success, testID)
		}
	}
}
