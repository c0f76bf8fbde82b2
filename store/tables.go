// Package store is the transactional key-value layer: bbolt-backed
// tables, schema migrations, and cursors over the account-chain
// tables named in spec §4.1. Unchecked and vote inserts go straight
// into the caller's bbolt write transaction (see cache.go) — there is
// no separate in-memory overlay or flush step; bbolt's own write-ahead
// page cache is the only buffering in front of disk. Grounded on the
// teacher's node/store package (db.go, manifest.go, undo.go,
// reorg.go), adapted from a height-indexed UTXO chain to the
// account-chain tables named in spec §4.1.
package store

// Bucket names, one per logical table in spec §4.1. bbolt has no
// native dup-sort table (an LMDB feature the teacher never needed
// either, since its UTXO store has no multimap table); `unchecked`
// is instead a bucket of per-dependency nested buckets, each holding
// insertion-ordered entries — see cache.go.
var (
	bucketAccounts       = []byte("accounts")
	bucketSendBlocks     = []byte("send_blocks")
	bucketReceiveBlocks  = []byte("receive_blocks")
	bucketOpenBlocks     = []byte("open_blocks")
	bucketChangeBlocks   = []byte("change_blocks")
	bucketStateBlocks    = []byte("state_blocks")
	bucketPending        = []byte("pending")
	bucketFrontiers      = []byte("frontiers")
	bucketBlocksInfo     = []byte("blocks_info")
	bucketRepresentation = []byte("representation")
	bucketUnchecked      = []byte("unchecked")
	bucketVotes          = []byte("votes")
	bucketChecksum       = []byte("checksum")
	bucketMeta           = []byte("meta")
)

var allBuckets = [][]byte{
	bucketAccounts, bucketSendBlocks, bucketReceiveBlocks, bucketOpenBlocks,
	bucketChangeBlocks, bucketStateBlocks, bucketPending, bucketFrontiers,
	bucketBlocksInfo, bucketRepresentation, bucketUnchecked, bucketVotes,
	bucketChecksum, bucketMeta,
}

var metaKey = []byte{1}

// blockBucketFor returns the table a given block kind's serialized
// form lives in.
func blockBucketFor(kind blockKind) []byte {
	switch kind {
	case blockKindSend:
		return bucketSendBlocks
	case blockKindReceive:
		return bucketReceiveBlocks
	case blockKindOpen:
		return bucketOpenBlocks
	case blockKindChange:
		return bucketChangeBlocks
	case blockKindState:
		return bucketStateBlocks
	default:
		return nil
	}
}

// blockKind mirrors blockgraph.Kind without importing it, so store
// stays a low-level byte-oriented package (ledger owns the mapping).
// This indirection matches the teacher's store package, which never
// imports the high-level consensus types it serializes — store.go's
// DB methods take already-encoded bytes and raw hash arrays.
type blockKind = byte

const (
	blockKindSend    blockKind = 1
	blockKindReceive blockKind = 2
	blockKindOpen    blockKind = 3
	blockKindChange  blockKind = 4
	blockKindState   blockKind = 5
)

// Exported aliases so callers outside store (ledger owns the mapping
// from blockgraph.Kind) can name a table without reaching into
// store's unexported routing constants.
const (
	BlockKindSend    = blockKindSend
	BlockKindReceive = blockKindReceive
	BlockKindOpen    = blockKindOpen
	BlockKindChange  = blockKindChange
	BlockKindState   = blockKindState
)
