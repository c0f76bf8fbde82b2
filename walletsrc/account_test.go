package walletsrc

import (
	"testing"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

func openTestLedgerAndDB(t *testing.T) (*ledger.Ledger, *store.DB) {
	t.Helper()
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return ledger.New(cryptoprovider.Ed25519Provider{}, ledger.EpochTable{}), db
}

// seedWalletGenesis seeds a from-scratch account record directly (the
// same genesis special-case ledger's own tests use, since there is no
// earlier send for a true genesis account to receive from).
func seedWalletGenesis(t *testing.T, db *store.DB, account blockgraph.Account, balance blockgraph.Amount) blockgraph.Hash {
	t.Helper()
	hash := blockgraph.Hash{0xee}
	hash[1] = account[0]
	if err := db.WithTx(func(tx *store.Tx) error {
		if err := tx.PutAccount(account, store.AccountRecord{
			Head: hash, Representative: account, Open: hash, Balance: balance, BlockCount: 1,
		}); err != nil {
			return err
		}
		if err := tx.PutSideband(hash, store.Sideband{Account: account, Height: 1}); err != nil {
			return err
		}
		return tx.PutBlockBytes(store.BlockKindState, hash, []byte{1, 2, 3})
	}); err != nil {
		t.Fatalf("seedWalletGenesis: %v", err)
	}
	return hash
}

func TestBuildSendThenProcessProgresses(t *testing.T) {
	l, db := openTestLedgerAndDB(t)
	var seed [32]byte
	seed[0] = 1
	w := New(cryptoprovider.Ed25519Provider{}, seed)
	genesis := w.Account(0)

	balance := blockgraph.AmountFromUint64(1_000_000)
	seedWalletGenesis(t, db, genesis.Account, balance)

	dest := w.Account(1)
	sendAmount := blockgraph.AmountFromUint64(250_000)

	var result ledger.Result
	if err := db.WithTx(func(tx *store.Tx) error {
		b, err := genesis.BuildSend(tx, l, dest.Account, sendAmount)
		if err != nil {
			return err
		}
		result, err = l.Process(tx, b)
		return err
	}); err != nil {
		t.Fatalf("build+process send: %v", err)
	}
	if result != ledger.ResultProgress {
		t.Fatalf("expected progress, got %v", result)
	}
}

func TestBuildSendInsufficientFunds(t *testing.T) {
	l, db := openTestLedgerAndDB(t)
	var seed [32]byte
	seed[0] = 2
	w := New(cryptoprovider.Ed25519Provider{}, seed)
	genesis := w.Account(0)
	dest := w.Account(1)

	balance := blockgraph.AmountFromUint64(100)
	seedWalletGenesis(t, db, genesis.Account, balance)

	if err := db.WithViewTx(func(tx *store.Tx) error {
		_, err := genesis.BuildSend(tx, l, dest.Account, blockgraph.AmountFromUint64(200))
		if err != ErrInsufficientFunds {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestBuildReceiveOpensAccount(t *testing.T) {
	l, db := openTestLedgerAndDB(t)
	var seed [32]byte
	seed[0] = 3
	w := New(cryptoprovider.Ed25519Provider{}, seed)
	genesis := w.Account(0)
	dest := w.Account(1)

	balance := blockgraph.AmountFromUint64(1_000_000)
	seedWalletGenesis(t, db, genesis.Account, balance)

	sendAmount := blockgraph.AmountFromUint64(300_000)
	var sendHash blockgraph.Hash
	if err := db.WithTx(func(tx *store.Tx) error {
		b, err := genesis.BuildSend(tx, l, dest.Account, sendAmount)
		if err != nil {
			return err
		}
		if _, err := l.Process(tx, b); err != nil {
			return err
		}
		sendHash = b.Hash()
		return nil
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	var result ledger.Result
	if err := db.WithTx(func(tx *store.Tx) error {
		b, err := dest.BuildReceive(tx, l, sendHash)
		if err != nil {
			return err
		}
		result, err = l.Process(tx, b)
		return err
	}); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if result != ledger.ResultProgress {
		t.Fatalf("expected progress, got %v", result)
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		bal, err := l.Balance(tx, dest.Account)
		if err != nil {
			return err
		}
		if bal.Cmp(sendAmount) != 0 {
			t.Fatalf("balance mismatch: got %v want %v", bal, sendAmount)
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBuildChangeMovesRepresentative(t *testing.T) {
	l, db := openTestLedgerAndDB(t)
	var seed [32]byte
	seed[0] = 4
	w := New(cryptoprovider.Ed25519Provider{}, seed)
	genesis := w.Account(0)
	newRep := w.Account(1)

	balance := blockgraph.AmountFromUint64(500_000)
	seedWalletGenesis(t, db, genesis.Account, balance)

	var result ledger.Result
	if err := db.WithTx(func(tx *store.Tx) error {
		b, err := genesis.BuildChange(tx, l, newRep.Account)
		if err != nil {
			return err
		}
		result, err = l.Process(tx, b)
		return err
	}); err != nil {
		t.Fatalf("change: %v", err)
	}
	if result != ledger.ResultProgress {
		t.Fatalf("expected progress, got %v", result)
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		info, ok, err := l.Account(tx, genesis.Account)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatal("expected account to exist")
		}
		if info.Representative != newRep.Account {
			t.Fatalf("representative not updated: got %v want %v", info.Representative, newRep.Account)
		}
		if info.Balance.Cmp(balance) != 0 {
			t.Fatalf("balance should be unchanged by a change block: got %v want %v", info.Balance, balance)
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
