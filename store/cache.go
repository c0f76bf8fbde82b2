package store

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"nanoforge.dev/node/blockgraph"
)

// UncheckedEntry is one block waiting on a dependency (its previous,
// source, or link block) that has not arrived yet. kind is stored
// alongside the raw bytes so the entry can be re-dispatched to
// Process without re-parsing to recover the variant.
type UncheckedEntry struct {
	Kind blockKind
	Raw  []byte
}

// PutUnchecked files raw under the nested bucket for dependency, one
// bucket per missing hash emulating LMDB's dup-sort table that bbolt
// lacks (see tables.go). Entries within a dependency's bucket are
// keyed by an auto-incrementing sequence so TakeUnchecked drains them
// in arrival order.
func (tx *Tx) PutUnchecked(dependency blockgraph.Hash, kind blockKind, raw []byte) error {
	top := tx.bucket(bucketUnchecked)
	nested, err := top.CreateBucketIfNotExists(dependency[:])
	if err != nil {
		return faultf(FaultAllocation, "create unchecked bucket", err)
	}
	seq, err := nested.NextSequence()
	if err != nil {
		return faultf(FaultAllocation, "unchecked sequence", err)
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	val := make([]byte, 1+len(raw))
	val[0] = kind
	copy(val[1:], raw)
	return nested.Put(key, val)
}

// TakeUnchecked removes and returns every entry waiting on dependency,
// deleting the nested bucket once drained. Called when a block with
// hash == dependency is successfully processed, per spec §4.1's
// unchecked-drain-on-arrival behavior.
func (tx *Tx) TakeUnchecked(dependency blockgraph.Hash) ([]UncheckedEntry, error) {
	top := tx.bucket(bucketUnchecked)
	nested := top.Bucket(dependency[:])
	if nested == nil {
		return nil, nil
	}
	var entries []UncheckedEntry
	c := nested.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(v) < 1 {
			continue
		}
		entries = append(entries, UncheckedEntry{Kind: v[0], Raw: append([]byte(nil), v[1:]...)})
	}
	if err := top.DeleteBucket(dependency[:]); err != nil && err != bolt.ErrBucketNotFound {
		return nil, faultf(FaultAllocation, "delete unchecked bucket", err)
	}
	return entries, nil
}

// CountUnchecked reports how many entries are waiting on dependency.
func (tx *Tx) CountUnchecked(dependency blockgraph.Hash) int {
	nested := tx.bucket(bucketUnchecked).Bucket(dependency[:])
	if nested == nil {
		return 0
	}
	n := 0
	c := nested.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}
