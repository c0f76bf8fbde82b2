package main

import (
	"crypto/ed25519"
	"testing"
	"time"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/election"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

func signVote(t *testing.T, crypto cryptoprovider.Provider, priv [64]byte, v election.Vote) election.Vote {
	t.Helper()
	v.Signature = crypto.Sign(priv, voteSignedHash(v))
	return v
}

func TestSubmitVotePersistsAndConfirms(t *testing.T) {
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	crypto := cryptoprovider.Ed25519Provider{}
	l := ledger.New(crypto, ledger.EpochTable{})
	manager := election.NewManager(time.Minute, time.Minute)

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var rep blockgraph.Account
	copy(rep[:], pub)
	var privArr [64]byte
	copy(privArr[:], priv)

	weight := blockgraph.AmountFromUint64(1000)
	if err := db.WithTx(func(tx *store.Tx) error {
		return tx.PutRepresentationWeight(rep, weight)
	}); err != nil {
		t.Fatalf("seed weight: %v", err)
	}

	root := blockgraph.Hash{1}
	block := blockgraph.Hash{2}
	v := signVote(t, crypto, privArr, election.Vote{Voter: rep, Sequence: 1, BlockHash: block})

	accepted, err := submitVote(db, l, manager, crypto, root, block, v, weight, time.Unix(100, 0))
	if err != nil {
		t.Fatalf("submitVote: %v", err)
	}
	if !accepted {
		t.Fatalf("expected vote to be accepted")
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		rec, ok, err := tx.GetVote(root, rep)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatalf("expected vote persisted")
		}
		if rec.Sequence != 1 || rec.BlockHash != block {
			t.Fatalf("unexpected persisted vote: %+v", rec)
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	el, ok := manager.Lookup(root)
	if !ok {
		t.Fatalf("expected election to exist after submitVote")
	}
	winner, confirmed := el.Winner()
	if !confirmed || winner != block {
		t.Fatalf("expected confirmed winner=%v, got winner=%v confirmed=%v", block, winner, confirmed)
	}

	// A stale replay (same sequence) must be rejected both durably and
	// in the tally.
	replay := signVote(t, crypto, privArr, election.Vote{Voter: rep, Sequence: 1, BlockHash: blockgraph.Hash{3}})
	accepted, err = submitVote(db, l, manager, crypto, root, block, replay, weight, time.Unix(101, 0))
	if err != nil {
		t.Fatalf("submitVote(replay): %v", err)
	}
	if accepted {
		t.Fatalf("expected stale replay to be rejected")
	}
}
