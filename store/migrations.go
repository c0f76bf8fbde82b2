package store

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

// CurrentSchemaVersion is bumped whenever a migration is added below.
// Unlike the teacher's node/store, which tracks schema_version in a
// JSON sidecar manifest next to the bbolt file, the ledger keeps it in
// the meta bucket itself: one file to fsync, one source of truth, and
// migrations run inside the same transaction as the writes they make.
const CurrentSchemaVersion uint32 = 1

type migration struct {
	from uint32
	to   uint32
	run  func(tx *bolt.Tx) error
}

// migrations is the ordered, one-way migration chain. Each entry must
// move the schema forward by exactly one version; Migrate refuses to
// skip or run them out of order.
var migrations = []migration{
	// v0 (uninitialized) -> v1: nothing to transform, just stamps the
	// version once the schema-v1 buckets exist (created by Open).
	{from: 0, to: 1, run: func(tx *bolt.Tx) error { return nil }},
}

// Migrate brings the database up to CurrentSchemaVersion, applying
// any pending migrations in order inside one transaction. Safe to
// call on every Open; a no-op when already current.
func (d *DB) Migrate() error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		version := readSchemaVersion(meta)
		for _, m := range migrations {
			if version != m.from {
				continue
			}
			if err := m.run(tx); err != nil {
				return faultf(FaultBadTransaction, "migration", err)
			}
			version = m.to
			if err := writeSchemaVersion(meta, version); err != nil {
				return err
			}
		}
		if version != CurrentSchemaVersion {
			return faultf(FaultCorrupted, "schema version stuck below current after migrations", nil)
		}
		return nil
	})
}

var schemaVersionKey = []byte("schema_version")

func readSchemaVersion(meta *bolt.Bucket) uint32 {
	v := meta.Get(schemaVersionKey)
	if len(v) != 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(v)
}

func writeSchemaVersion(meta *bolt.Bucket, version uint32) error {
	v := make([]byte, 4)
	binary.LittleEndian.PutUint32(v, version)
	if err := meta.Put(schemaVersionKey, v); err != nil {
		return faultf(FaultAllocation, "write schema version", err)
	}
	return nil
}
