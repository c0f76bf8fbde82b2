package store

import (
	"testing"

	"nanoforge.dev/node/blockgraph"
)

func TestUncheckedPutTakeDrainsInOrder(t *testing.T) {
	db := openTestDB(t)
	var dep blockgraph.Hash
	dep[0] = 1

	if err := db.WithTx(func(tx *Tx) error {
		if err := tx.PutUnchecked(dep, blockKindState, []byte{1}); err != nil {
			return err
		}
		return tx.PutUnchecked(dep, blockKindState, []byte{2})
	}); err != nil {
		t.Fatalf("PutUnchecked: %v", err)
	}

	var entries []UncheckedEntry
	if err := db.WithTx(func(tx *Tx) error {
		var err error
		entries, err = tx.TakeUnchecked(dep)
		return err
	}); err != nil {
		t.Fatalf("TakeUnchecked: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Raw[0] != 1 || entries[1].Raw[0] != 2 {
		t.Fatalf("expected arrival order, got %+v", entries)
	}

	if err := db.WithViewTx(func(tx *Tx) error {
		if n := tx.CountUnchecked(dep); n != 0 {
			t.Fatalf("expected drained bucket to be gone, count=%d", n)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestUncheckedCountBeforeDrain(t *testing.T) {
	db := openTestDB(t)
	var dep blockgraph.Hash
	dep[0] = 2

	if err := db.WithTx(func(tx *Tx) error {
		return tx.PutUnchecked(dep, blockKindSend, []byte{9})
	}); err != nil {
		t.Fatalf("PutUnchecked: %v", err)
	}
	if err := db.WithViewTx(func(tx *Tx) error {
		if n := tx.CountUnchecked(dep); n != 1 {
			t.Fatalf("expected 1, got %d", n)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestTakeUncheckedOnUnknownDependencyIsEmpty(t *testing.T) {
	db := openTestDB(t)
	var dep blockgraph.Hash
	dep[0] = 0xff
	var entries []UncheckedEntry
	if err := db.WithTx(func(tx *Tx) error {
		var err error
		entries, err = tx.TakeUnchecked(dep)
		return err
	}); err != nil {
		t.Fatalf("TakeUnchecked: %v", err)
	}
	if entries != nil {
		t.Fatalf("expected nil, got %+v", entries)
	}
}
