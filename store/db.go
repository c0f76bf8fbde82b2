package store

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"nanoforge.dev/node/blockgraph"
)

// DB is the transactional handle onto one ledger's tables, grounded on
// the teacher's node/store.DB but widened from a single kv.db file's
// worth of UTXO tables to the account-chain tables of spec §4.1.
type DB struct {
	path string
	bolt *bolt.DB
}

// Open creates (or reopens) the bbolt-backed ledger database under
// datadir, ensuring every table in allBuckets exists. It does not
// write a genesis block; callers that find an empty accounts table
// must seed one explicitly.
func Open(datadir string) (*DB, error) {
	if datadir == "" {
		return nil, faultf(FaultBadTransaction, "datadir required", nil)
	}
	path := filepath.Join(datadir, "ledger.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, faultf(FaultAllocation, "open bbolt", err)
	}
	d := &DB{path: path, bolt: bdb}
	if err := d.bolt.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, faultf(FaultAllocation, "create buckets", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.bolt == nil {
		return nil
	}
	return d.bolt.Close()
}

func (d *DB) Path() string { return d.path }

// Tx wraps one bbolt transaction, read-write (WithTx) or read-only
// (WithViewTx). Writers are single-threaded by bbolt's own lock. Every
// table method below runs inside the Tx it is called on rather than
// opening its own, so callers that must apply several table writes
// atomically (a full block Process) make them all inside one WithTx.
type Tx struct {
	bolt *bolt.Tx
}

// WithTx runs fn inside one read-write transaction. A non-nil return
// from fn aborts and rolls back the transaction.
func (d *DB) WithTx(fn func(tx *Tx) error) error {
	return d.bolt.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{bolt: btx})
	})
}

// WithViewTx runs fn inside one read-only transaction.
func (d *DB) WithViewTx(fn func(tx *Tx) error) error {
	return d.bolt.View(func(btx *bolt.Tx) error {
		return fn(&Tx{bolt: btx})
	})
}

func (tx *Tx) bucket(name []byte) *bolt.Bucket {
	return tx.bolt.Bucket(name)
}

// PutBlockBytes stores a block's serialized wire form under its hash,
// in the table matching its kind.
func (tx *Tx) PutBlockBytes(kind blockKind, hash blockgraph.Hash, raw []byte) error {
	b := blockBucketFor(kind)
	if b == nil {
		return faultf(FaultBadTransaction, "unknown block kind", nil)
	}
	return tx.bucket(b).Put(hash[:], raw)
}

// GetBlockBytes searches every block table for hash, since a hash
// belongs to exactly one table by the ledger's root-uniqueness
// invariant (spec §3). Callers that already know the kind should
// prefer PutBlockBytes's table directly; this is for lookups that
// only have a bare hash (e.g. resolving Previous/Link pointers).
func (tx *Tx) GetBlockBytes(hash blockgraph.Hash) ([]byte, blockKind, error) {
	for _, kind := range []blockKind{blockKindState, blockKindSend, blockKindReceive, blockKindOpen, blockKindChange} {
		v := tx.bucket(blockBucketFor(kind)).Get(hash[:])
		if v != nil {
			return append([]byte(nil), v...), kind, nil
		}
	}
	return nil, 0, faultf(FaultNotFound, "block not found: "+hash.String(), nil)
}

// DeleteBlockBytes removes a block from its kind's table, used by
// rollback when undoing a block that is no longer any account's tip.
func (tx *Tx) DeleteBlockBytes(kind blockKind, hash blockgraph.Hash) error {
	b := blockBucketFor(kind)
	if b == nil {
		return faultf(FaultBadTransaction, "unknown block kind", nil)
	}
	return tx.bucket(b).Delete(hash[:])
}

func (tx *Tx) PutSideband(hash blockgraph.Hash, s Sideband) error {
	return tx.bucket(bucketBlocksInfo).Put(hash[:], encodeSideband(s))
}

func (tx *Tx) GetSideband(hash blockgraph.Hash) (Sideband, error) {
	v := tx.bucket(bucketBlocksInfo).Get(hash[:])
	if v == nil {
		return Sideband{}, faultf(FaultNotFound, "sideband not found: "+hash.String(), nil)
	}
	s, err := decodeSideband(v)
	if err != nil {
		return Sideband{}, faultf(FaultCorrupted, "sideband decode", err)
	}
	return s, nil
}

func (tx *Tx) DeleteSideband(hash blockgraph.Hash) error {
	return tx.bucket(bucketBlocksInfo).Delete(hash[:])
}

func (tx *Tx) PutAccount(account blockgraph.Account, rec AccountRecord) error {
	return tx.bucket(bucketAccounts).Put(account[:], encodeAccountRecord(rec))
}

func (tx *Tx) GetAccount(account blockgraph.Account) (AccountRecord, error) {
	v := tx.bucket(bucketAccounts).Get(account[:])
	if v == nil {
		return AccountRecord{}, faultf(FaultNotFound, "account not found: "+account.String(), nil)
	}
	rec, err := decodeAccountRecord(v)
	if err != nil {
		return AccountRecord{}, faultf(FaultCorrupted, "account decode", err)
	}
	return rec, nil
}

func (tx *Tx) DeleteAccount(account blockgraph.Account) error {
	return tx.bucket(bucketAccounts).Delete(account[:])
}

// PutFrontier and DeleteFrontier maintain the frontiers table: a
// block hash mapped to the account that owns it. The legacy commit
// paths write an entry for the new head and delete the one for its
// previous block; state blocks never write an entry.
func (tx *Tx) PutFrontier(account blockgraph.Account, head blockgraph.Hash) error {
	return tx.bucket(bucketFrontiers).Put(head[:], account[:])
}

func (tx *Tx) DeleteFrontier(head blockgraph.Hash) error {
	return tx.bucket(bucketFrontiers).Delete(head[:])
}

func (tx *Tx) PutPending(destination blockgraph.Account, sendHash blockgraph.Hash, p PendingInfo) error {
	key := pendingKey(destination, sendHash)
	return tx.bucket(bucketPending).Put(key, encodePendingInfo(p))
}

func (tx *Tx) GetPending(destination blockgraph.Account, sendHash blockgraph.Hash) (PendingInfo, error) {
	key := pendingKey(destination, sendHash)
	v := tx.bucket(bucketPending).Get(key)
	if v == nil {
		return PendingInfo{}, faultf(FaultNotFound, "pending not found", nil)
	}
	p, err := decodePendingInfo(v)
	if err != nil {
		return PendingInfo{}, faultf(FaultCorrupted, "pending decode", err)
	}
	return p, nil
}

func (tx *Tx) DeletePending(destination blockgraph.Account, sendHash blockgraph.Hash) error {
	return tx.bucket(bucketPending).Delete(pendingKey(destination, sendHash))
}

// pendingKey groups every pending entry for one destination account
// together under iteration order (bbolt keeps keys sorted), so a
// wallet can cursor-scan "all receivables for account X" with the
// 32-byte prefix account[:].
func pendingKey(destination blockgraph.Account, sendHash blockgraph.Hash) []byte {
	key := make([]byte, 64)
	copy(key[:32], destination[:])
	copy(key[32:], sendHash[:])
	return key
}

func (tx *Tx) PutRepresentationWeight(rep blockgraph.Account, weight blockgraph.Amount) error {
	return tx.bucket(bucketRepresentation).Put(rep[:], encodeAmount(weight))
}

func (tx *Tx) GetRepresentationWeight(rep blockgraph.Account) (blockgraph.Amount, error) {
	v := tx.bucket(bucketRepresentation).Get(rep[:])
	if v == nil {
		return blockgraph.Amount{}, nil // no delegated weight yet; zero, not an error
	}
	return decodeAmount(v)
}

// PutVote inserts v, or replaces the currently stored vote for (root,
// rep), only when v.Sequence is strictly greater than what is already
// there — spec §3's "votes are inserted-or-replaced only when a
// higher sequence arrives." Returns whether v was actually stored, so
// a caller that also feeds an in-memory tally (election.Election) can
// tell a stale replay from a genuine update. FinalVoteSequence sorts
// above every real sequence, so a final vote always wins and nothing
// can ever supersede it.
func (tx *Tx) PutVote(root blockgraph.Hash, rep blockgraph.Account, v VoteRecord) (bool, error) {
	key := voteKey(root, rep)
	existing := tx.bucket(bucketVotes).Get(key)
	if existing != nil {
		prev, err := decodeVoteRecord(existing)
		if err != nil {
			return false, faultf(FaultCorrupted, "vote decode", err)
		}
		if v.Sequence <= prev.Sequence {
			return false, nil
		}
	}
	if err := tx.bucket(bucketVotes).Put(key, encodeVoteRecord(v)); err != nil {
		return false, err
	}
	return true, nil
}

func (tx *Tx) GetVote(root blockgraph.Hash, rep blockgraph.Account) (VoteRecord, bool, error) {
	key := voteKey(root, rep)
	v := tx.bucket(bucketVotes).Get(key)
	if v == nil {
		return VoteRecord{}, false, nil
	}
	rec, err := decodeVoteRecord(v)
	if err != nil {
		return VoteRecord{}, false, faultf(FaultCorrupted, "vote decode", err)
	}
	return rec, true, nil
}

func voteKey(root blockgraph.Hash, rep blockgraph.Account) []byte {
	key := make([]byte, 64)
	copy(key[:32], root[:])
	copy(key[32:], rep[:])
	return key
}

// PutChecksumRegion and GetChecksumRegion implement the original
// ledger's checksum-region feature (SPEC_FULL §3): a running XOR
// digest over the frontier contribution of every account in a coarse
// region (maintained by ledger.UpdateChecksum), letting two nodes
// compare regions before falling back to a full bulk-block exchange.
func (tx *Tx) PutChecksumRegion(region byte, digest blockgraph.Hash) error {
	return tx.bucket(bucketChecksum).Put([]byte{region}, digest[:])
}

func (tx *Tx) GetChecksumRegion(region byte) (blockgraph.Hash, bool, error) {
	v := tx.bucket(bucketChecksum).Get([]byte{region})
	if v == nil {
		return blockgraph.Hash{}, false, nil
	}
	var h blockgraph.Hash
	if len(v) != 32 {
		return blockgraph.Hash{}, false, faultf(FaultCorrupted, "checksum region: bad length", nil)
	}
	copy(h[:], v)
	return h, true, nil
}
