package ledger

import (
	"testing"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/store"
)

func TestBalanceUnknownAccountIsZero(t *testing.T) {
	l, db := openTestLedger(t)
	ghost := newTestKey(t)

	if err := db.WithViewTx(func(tx *store.Tx) error {
		bal, err := l.Balance(tx, ghost.account)
		if err != nil {
			return err
		}
		if bal.Cmp(blockgraph.Amount{}) != 0 {
			t.Fatalf("expected zero balance for unknown account, got %v", bal)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestWeightBootstrapOverride(t *testing.T) {
	l, db := openTestLedger(t)
	rep := newTestKey(t)
	override := blockgraph.AmountFromUint64(42)
	l.BootstrapWeights = map[blockgraph.Account]blockgraph.Amount{rep.account: override}
	l.BootstrapWeightHeight = 100

	if err := db.WithViewTx(func(tx *store.Tx) error {
		w, err := l.Weight(tx, rep.account, 50)
		if err != nil {
			return err
		}
		if w.Cmp(override) != 0 {
			t.Fatalf("expected bootstrap override weight, got %v want %v", w, override)
		}
		w, err = l.Weight(tx, rep.account, 150)
		if err != nil {
			return err
		}
		if w.Cmp(blockgraph.Amount{}) != 0 {
			t.Fatalf("expected override dropped past height, got %v", w)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSetConfirmedHeightIsMonotonic(t *testing.T) {
	l, db := openTestLedger(t)
	genesis := newTestKey(t)
	seedGenesis(t, db, genesis.account, blockgraph.AmountFromUint64(1), genesis.account)

	if err := db.WithTx(func(tx *store.Tx) error {
		if err := l.SetConfirmedHeight(tx, genesis.account, 5); err != nil {
			return err
		}
		return l.SetConfirmedHeight(tx, genesis.account, 2)
	}); err != nil {
		t.Fatalf("tx: %v", err)
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		info, ok, err := l.Account(tx, genesis.account)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatalf("expected account")
		}
		if info.ConfirmedHeight != 5 {
			t.Fatalf("expected confirmed height to stay at high-water mark 5, got %d", info.ConfirmedHeight)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
