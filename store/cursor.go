package store

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"nanoforge.dev/node/blockgraph"
)

// AccountCursor walks the accounts table in key order (bbolt keeps
// bucket keys sorted), supporting the begin/begin_at/end/++ style
// iteration spec §4.1 calls for over the account-keyed tables.
type AccountCursor struct {
	c    *bolt.Cursor
	done bool
}

// AccountsCursor opens a cursor positioned before the first account.
func (tx *Tx) AccountsCursor() *AccountCursor {
	return &AccountCursor{c: tx.bucket(bucketAccounts).Cursor()}
}

// Begin positions the cursor at the lexicographically first account.
func (ac *AccountCursor) Begin() (blockgraph.Account, AccountRecord, bool) {
	k, v := ac.c.First()
	return ac.decode(k, v)
}

// BeginAt positions the cursor at the first account >= from.
func (ac *AccountCursor) BeginAt(from blockgraph.Account) (blockgraph.Account, AccountRecord, bool) {
	k, v := ac.c.Seek(from[:])
	return ac.decode(k, v)
}

// Next advances to the following account.
func (ac *AccountCursor) Next() (blockgraph.Account, AccountRecord, bool) {
	k, v := ac.c.Next()
	return ac.decode(k, v)
}

func (ac *AccountCursor) decode(k, v []byte) (blockgraph.Account, AccountRecord, bool) {
	if k == nil {
		ac.done = true
		return blockgraph.Account{}, AccountRecord{}, false
	}
	var a blockgraph.Account
	copy(a[:], k)
	rec, err := decodeAccountRecord(v)
	if err != nil {
		ac.done = true
		return blockgraph.Account{}, AccountRecord{}, false
	}
	return a, rec, true
}

// Done reports whether the cursor has run past the end of the table.
func (ac *AccountCursor) Done() bool { return ac.done }

// PendingCursor walks every receivable owed to one destination
// account, relying on pendingKey's destination-prefixed layout to keep
// a single account's entries contiguous.
type PendingCursor struct {
	destination blockgraph.Account
	c           *bolt.Cursor
}

func (tx *Tx) PendingCursor(destination blockgraph.Account) *PendingCursor {
	return &PendingCursor{destination: destination, c: tx.bucket(bucketPending).Cursor()}
}

func (pc *PendingCursor) Begin() (blockgraph.Hash, PendingInfo, bool) {
	k, v := pc.c.Seek(pc.destination[:])
	return pc.decode(k, v)
}

func (pc *PendingCursor) Next() (blockgraph.Hash, PendingInfo, bool) {
	k, v := pc.c.Next()
	return pc.decode(k, v)
}

func (pc *PendingCursor) decode(k, v []byte) (blockgraph.Hash, PendingInfo, bool) {
	if k == nil || len(k) != 64 {
		return blockgraph.Hash{}, PendingInfo{}, false
	}
	if string(k[:32]) != string(pc.destination[:]) {
		return blockgraph.Hash{}, PendingInfo{}, false
	}
	var sendHash blockgraph.Hash
	copy(sendHash[:], k[32:])
	p, err := decodePendingInfo(v)
	if err != nil {
		return blockgraph.Hash{}, PendingInfo{}, false
	}
	return sendHash, p, true
}

// RandomAccount returns a pseudo-random account from the table,
// implementing spec §4.1's random-block-selection requirement (used
// by the election scheduler to seed confirmation requests across the
// ledger rather than always starting from the same end of the
// keyspace). It seeks to a uniformly chosen 32-byte prefix and takes
// the next key at or after it, wrapping to the first entry if none
// follows — standard "random cursor seek" technique for B-tree stores
// lacking a native sampling primitive.
func (tx *Tx) RandomAccount(seed uint64) (blockgraph.Account, AccountRecord, bool) {
	var probe [32]byte
	binary.BigEndian.PutUint64(probe[:8], seed)
	c := tx.bucket(bucketAccounts).Cursor()
	k, v := c.Seek(probe[:])
	if k == nil {
		k, v = c.First()
	}
	if k == nil {
		return blockgraph.Account{}, AccountRecord{}, false
	}
	var a blockgraph.Account
	copy(a[:], k)
	rec, err := decodeAccountRecord(v)
	if err != nil {
		return blockgraph.Account{}, AccountRecord{}, false
	}
	return a, rec, true
}
