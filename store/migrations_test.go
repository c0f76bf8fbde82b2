package store

import (
	bolt "go.etcd.io/bbolt"
	"testing"
)

func TestMigrateStampsCurrentVersionAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	var version uint32
	if err := db.bolt.View(func(tx *bolt.Tx) error {
		version = readSchemaVersion(tx.Bucket(bucketMeta))
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("got version %d, want %d", version, CurrentSchemaVersion)
	}

	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate should be a no-op, got: %v", err)
	}
}
