package ledger

import (
	"testing"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/store"
)

func TestRegionOfBucketsByLeadingByte(t *testing.T) {
	var a, b blockgraph.Account
	a[0] = 0x07
	b[0] = 0x07
	b[1] = 0xff // differs only past the leading byte
	if RegionOf(a) != RegionOf(b) {
		t.Fatalf("expected same region, got %d and %d", RegionOf(a), RegionOf(b))
	}

	var c blockgraph.Account
	c[0] = 0x08
	if RegionOf(a) == RegionOf(c) {
		t.Fatalf("expected different regions for differing leading byte")
	}
}

func TestUpdateChecksumIsOrderIndependentAcrossAccounts(t *testing.T) {
	db := openTestDB(t)
	var a, b blockgraph.Account
	a[0], b[0] = 0x10, 0x10 // same region

	headA := blockgraph.Hash{0x01}
	headB := blockgraph.Hash{0x02}

	var digestAB, digestBA blockgraph.Hash
	if err := db.WithTx(func(tx *store.Tx) error {
		if err := UpdateChecksum(tx, a, blockgraph.Hash{}, headA); err != nil {
			return err
		}
		if err := UpdateChecksum(tx, b, blockgraph.Hash{}, headB); err != nil {
			return err
		}
		var err error
		digestAB, _, err = tx.GetChecksumRegion(RegionOf(a))
		return err
	}); err != nil {
		t.Fatalf("first order: %v", err)
	}

	db2 := openTestDB(t)
	if err := db2.WithTx(func(tx *store.Tx) error {
		if err := UpdateChecksum(tx, b, blockgraph.Hash{}, headB); err != nil {
			return err
		}
		if err := UpdateChecksum(tx, a, blockgraph.Hash{}, headA); err != nil {
			return err
		}
		var err error
		digestBA, _, err = tx.GetChecksumRegion(RegionOf(a))
		return err
	}); err != nil {
		t.Fatalf("second order: %v", err)
	}

	if digestAB != digestBA {
		t.Fatalf("expected order-independent digest, got %x and %x", digestAB, digestBA)
	}
}

func TestUpdateChecksumTogglesOldContributionOut(t *testing.T) {
	db := openTestDB(t)
	var account blockgraph.Account
	account[0] = 0x20

	oldHead := blockgraph.Hash{0x01}
	newHead := blockgraph.Hash{0x02}

	var moved, direct blockgraph.Hash
	if err := db.WithTx(func(tx *store.Tx) error {
		if err := UpdateChecksum(tx, account, blockgraph.Hash{}, oldHead); err != nil {
			return err
		}
		if err := UpdateChecksum(tx, account, oldHead, newHead); err != nil {
			return err
		}
		var err error
		moved, _, err = tx.GetChecksumRegion(RegionOf(account))
		return err
	}); err != nil {
		t.Fatalf("moved: %v", err)
	}

	db2 := openTestDB(t)
	if err := db2.WithTx(func(tx *store.Tx) error {
		if err := UpdateChecksum(tx, account, blockgraph.Hash{}, newHead); err != nil {
			return err
		}
		var err error
		direct, _, err = tx.GetChecksumRegion(RegionOf(account))
		return err
	}); err != nil {
		t.Fatalf("direct: %v", err)
	}

	if moved != direct {
		t.Fatalf("expected toggling through oldHead to equal a direct open at newHead, got %x vs %x", moved, direct)
	}
}

func TestVerifyChecksumAgreesAfterRealCommits(t *testing.T) {
	l, db := openTestLedger(t)
	genesis := newTestKey(t)
	dest := newTestKey(t)

	genesisBalance := blockgraph.AmountFromUint64(1_000_000)
	genesisHash := seedGenesis(t, db, genesis.account, genesisBalance, genesis.account)

	send := &blockgraph.Block{
		StateAccount:   genesis.account,
		Previous:       genesisHash,
		Representative: genesis.account,
		StateBalance:   blockgraph.AmountFromUint64(400_000),
		Link:           blockgraph.Hash(dest.account),
	}
	signState(cryptoprovider.Ed25519Provider{}, genesis, send)

	if err := db.WithTx(func(tx *store.Tx) error {
		res, err := l.Process(tx, send)
		if err != nil {
			return err
		}
		if res != ResultProgress {
			t.Fatalf("expected ResultProgress, got %v", res)
		}
		return nil
	}); err != nil {
		t.Fatalf("process send: %v", err)
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		recomputed, match, err := VerifyChecksum(tx, RegionOf(genesis.account))
		if err != nil {
			return err
		}
		if !match {
			t.Fatalf("expected recomputed digest to match stored digest, got %x", recomputed)
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyChecksumDetectsTamperedDigest(t *testing.T) {
	db := openTestDB(t)
	var account blockgraph.Account
	account[0] = 0x30
	head := blockgraph.Hash{0x11}

	if err := db.WithTx(func(tx *store.Tx) error {
		if err := tx.PutAccount(account, store.AccountRecord{
			Head: head, Representative: account, Open: head, BlockCount: 1,
		}); err != nil {
			return err
		}
		return UpdateChecksum(tx, account, blockgraph.Hash{}, head)
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := db.WithTx(func(tx *store.Tx) error {
		return tx.PutChecksumRegion(RegionOf(account), blockgraph.Hash{0xff})
	}); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if err := db.WithViewTx(func(tx *store.Tx) error {
		_, match, err := VerifyChecksum(tx, RegionOf(account))
		if err != nil {
			return err
		}
		if match {
			t.Fatalf("expected mismatch against a tampered stored digest")
		}
		return nil
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}
