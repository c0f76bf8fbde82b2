package bootstrap

import (
	"crypto/ed25519"
	"testing"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

type ingestKey struct {
	account blockgraph.Account
	priv    [64]byte
}

func newIngestKey(t *testing.T) ingestKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var k ingestKey
	copy(k.account[:], pub)
	copy(k.priv[:], priv)
	return k
}

func signIngest(crypto cryptoprovider.Provider, key ingestKey, b *blockgraph.Block) {
	b.Kind = blockgraph.KindState
	b.Signature = crypto.Sign(key.priv, b.Hash())
}

func TestIngestGapPreviousRegistersUnchecked(t *testing.T) {
	db := openTestDB(t)
	l := ledger.New(cryptoprovider.Ed25519Provider{}, ledger.EpochTable{})
	genesis := newIngestKey(t)
	dest := newIngestKey(t)

	genesisHash := blockgraph.Hash{0xee}
	genesisBalance := blockgraph.AmountFromUint64(1_000_000)
	if err := db.WithTx(func(tx *store.Tx) error {
		if err := tx.PutAccount(genesis.account, store.AccountRecord{
			Head: genesisHash, Representative: genesis.account, Open: genesisHash,
			Balance: genesisBalance, BlockCount: 1,
		}); err != nil {
			return err
		}
		if err := tx.PutSideband(genesisHash, store.Sideband{Account: genesis.account, Height: 1}); err != nil {
			return err
		}
		return tx.PutBlockBytes(store.BlockKindState, genesisHash, []byte{1, 2, 3})
	}); err != nil {
		t.Fatalf("seed genesis: %v", err)
	}

	missingPrevious := blockgraph.Hash{0xff, 0xff}
	send := &blockgraph.Block{
		StateAccount:   genesis.account,
		Previous:       missingPrevious,
		Representative: genesis.account,
		StateBalance:   blockgraph.AmountFromUint64(500_000),
		Link:           blockgraph.Hash(dest.account),
	}
	signIngest(cryptoprovider.Ed25519Provider{}, genesis, send)
	raw, err := send.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	var result ledger.Result
	if err := db.WithTx(func(tx *store.Tx) error {
		var err error
		result, err = Ingest(tx, l, TypeState, raw)
		return err
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result != ledger.ResultGapPrevious {
		t.Fatalf("expected gap_previous, got %v", result)
	}

	if err := db.WithTx(func(tx *store.Tx) error {
		entries, err := tx.TakeUnchecked(missingPrevious)
		if err != nil {
			return err
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 unchecked entry, got %d", len(entries))
		}
		if entries[0].Kind != TypeState {
			t.Fatalf("expected stored kind TypeState, got %d", entries[0].Kind)
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestIngestSuccessDoesNotRegisterUnchecked(t *testing.T) {
	db := openTestDB(t)
	l := ledger.New(cryptoprovider.Ed25519Provider{}, ledger.EpochTable{})
	genesis := newIngestKey(t)
	dest := newIngestKey(t)

	genesisHash := blockgraph.Hash{0xee}
	genesisBalance := blockgraph.AmountFromUint64(1_000_000)
	if err := db.WithTx(func(tx *store.Tx) error {
		if err := tx.PutAccount(genesis.account, store.AccountRecord{
			Head: genesisHash, Representative: genesis.account, Open: genesisHash,
			Balance: genesisBalance, BlockCount: 1,
		}); err != nil {
			return err
		}
		if err := tx.PutSideband(genesisHash, store.Sideband{Account: genesis.account, Height: 1}); err != nil {
			return err
		}
		return tx.PutBlockBytes(store.BlockKindState, genesisHash, []byte{1, 2, 3})
	}); err != nil {
		t.Fatalf("seed genesis: %v", err)
	}

	send := &blockgraph.Block{
		StateAccount:   genesis.account,
		Previous:       genesisHash,
		Representative: genesis.account,
		StateBalance:   blockgraph.AmountFromUint64(500_000),
		Link:           blockgraph.Hash(dest.account),
	}
	signIngest(cryptoprovider.Ed25519Provider{}, genesis, send)
	raw, err := send.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	var result ledger.Result
	if err := db.WithTx(func(tx *store.Tx) error {
		var err error
		result, err = Ingest(tx, l, TypeState, raw)
		return err
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result != ledger.ResultProgress {
		t.Fatalf("expected progress, got %v", result)
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		if n := tx.CountUnchecked(send.Hash()); n != 0 {
			t.Fatalf("expected no unchecked entries keyed on the new block's own hash, got %d", n)
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestIngestUnknownTypeIsInvalid(t *testing.T) {
	db := openTestDB(t)
	l := ledger.New(cryptoprovider.Ed25519Provider{}, ledger.EpochTable{})
	var result ledger.Result
	if err := db.WithTx(func(tx *store.Tx) error {
		var err error
		result, err = Ingest(tx, l, TypeNotABlock, []byte{1, 2, 3})
		return err
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result != ledger.ResultInvalid {
		t.Fatalf("expected invalid for unknown type, got %v", result)
	}
}
