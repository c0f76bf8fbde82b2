package store

import (
	"encoding/binary"
	"fmt"

	"nanoforge.dev/node/blockgraph"
)

// AccountRecord is the accounts table payload: the tip of one
// account's chain plus the summary fields the ledger needs without
// walking the chain. ConfirmedHeight is a supplemented field (not in
// the legacy account_info_v14 layout) tracking the confirmation
// frontier per account, avoiding a full-chain walk on every
// confirmation height query.
//
// Layout: head 32 | representative 32 | open 32 | balance 16 |
// modified u64le | block_count u64le | confirmed_height u64le | epoch u8
type AccountRecord struct {
	Head            blockgraph.Hash
	Representative  blockgraph.Account
	Open            blockgraph.Hash
	Balance         blockgraph.Amount
	Modified        uint64
	BlockCount      uint64
	ConfirmedHeight uint64
	Epoch           blockgraph.Epoch
}

const accountRecordLen = 32 + 32 + 32 + 16 + 8 + 8 + 8 + 1

func encodeAccountRecord(a AccountRecord) []byte {
	out := make([]byte, accountRecordLen)
	off := 0
	copy(out[off:], a.Head[:])
	off += 32
	copy(out[off:], a.Representative[:])
	off += 32
	copy(out[off:], a.Open[:])
	off += 32
	copy(out[off:], a.Balance[:])
	off += 16
	binary.LittleEndian.PutUint64(out[off:], a.Modified)
	off += 8
	binary.LittleEndian.PutUint64(out[off:], a.BlockCount)
	off += 8
	binary.LittleEndian.PutUint64(out[off:], a.ConfirmedHeight)
	off += 8
	out[off] = byte(a.Epoch)
	return out
}

func decodeAccountRecord(b []byte) (AccountRecord, error) {
	if len(b) != accountRecordLen {
		return AccountRecord{}, fmt.Errorf("account record: want %d bytes, got %d", accountRecordLen, len(b))
	}
	var a AccountRecord
	off := 0
	copy(a.Head[:], b[off:off+32])
	off += 32
	copy(a.Representative[:], b[off:off+32])
	off += 32
	copy(a.Open[:], b[off:off+32])
	off += 32
	copy(a.Balance[:], b[off:off+16])
	off += 16
	a.Modified = binary.LittleEndian.Uint64(b[off:])
	off += 8
	a.BlockCount = binary.LittleEndian.Uint64(b[off:])
	off += 8
	a.ConfirmedHeight = binary.LittleEndian.Uint64(b[off:])
	off += 8
	a.Epoch = blockgraph.Epoch(b[off])
	return a, nil
}

// Sideband is the per-block metadata stored in blocks_info, separate
// from the block's own wire bytes: the account it belongs to, its
// height along that account's chain, the wall-clock time it was
// received, and the successor hash (zero until a later block names it
// as previous/link, i.e. until the chain grows past it).
//
// Layout: account 32 | height u64le | timestamp u64le | successor 32 | epoch u8
//
// Epoch records the account's epoch immediately after this block
// committed, so rollback.go's recordBeforeSuccessor can restore the
// exact pre-successor epoch instead of reading whatever the account
// record currently (post-successor) holds.
type Sideband struct {
	Account   blockgraph.Account
	Height    uint64
	Timestamp uint64
	Successor blockgraph.Hash
	Epoch     blockgraph.Epoch
}

const sidebandLen = 32 + 8 + 8 + 32 + 1

func encodeSideband(s Sideband) []byte {
	out := make([]byte, sidebandLen)
	off := 0
	copy(out[off:], s.Account[:])
	off += 32
	binary.LittleEndian.PutUint64(out[off:], s.Height)
	off += 8
	binary.LittleEndian.PutUint64(out[off:], s.Timestamp)
	off += 8
	copy(out[off:], s.Successor[:])
	off += 32
	out[off] = byte(s.Epoch)
	return out
}

func decodeSideband(b []byte) (Sideband, error) {
	if len(b) != sidebandLen {
		return Sideband{}, fmt.Errorf("sideband: want %d bytes, got %d", sidebandLen, len(b))
	}
	var s Sideband
	off := 0
	copy(s.Account[:], b[off:off+32])
	off += 32
	s.Height = binary.LittleEndian.Uint64(b[off:])
	off += 8
	s.Timestamp = binary.LittleEndian.Uint64(b[off:])
	off += 8
	copy(s.Successor[:], b[off:off+32])
	off += 32
	s.Epoch = blockgraph.Epoch(b[off])
	return s, nil
}

// PendingInfo is a receivable: the amount a send made available to a
// destination account, and the source account plus epoch it was
// created at (needed to compute the receiving epoch, per the
// max(current_epoch, pending.epoch) rule in the original ledger).
//
// Layout: source 32 | amount 16 | epoch u8
type PendingInfo struct {
	Source blockgraph.Account
	Amount blockgraph.Amount
	Epoch  blockgraph.Epoch
}

const pendingInfoLen = 32 + 16 + 1

func encodePendingInfo(p PendingInfo) []byte {
	out := make([]byte, pendingInfoLen)
	copy(out[0:32], p.Source[:])
	copy(out[32:48], p.Amount[:])
	out[48] = byte(p.Epoch)
	return out
}

func decodePendingInfo(b []byte) (PendingInfo, error) {
	if len(b) != pendingInfoLen {
		return PendingInfo{}, fmt.Errorf("pending info: want %d bytes, got %d", pendingInfoLen, len(b))
	}
	var p PendingInfo
	copy(p.Source[:], b[0:32])
	copy(p.Amount[:], b[32:48])
	p.Epoch = blockgraph.Epoch(b[48])
	return p, nil
}

// encodeAmount/decodeAmount round-trip a representation-weight total.
func encodeAmount(a blockgraph.Amount) []byte {
	out := make([]byte, 16)
	copy(out, a[:])
	return out
}

func decodeAmount(b []byte) (blockgraph.Amount, error) {
	if len(b) != 16 {
		return blockgraph.Amount{}, fmt.Errorf("amount: want 16 bytes, got %d", len(b))
	}
	var a blockgraph.Amount
	copy(a[:], b)
	return a, nil
}

// VoteRecord is the last stored vote from a representative for a
// given election root, used to enforce sequence monotonicity (spec
// §5's replay-rejection rule) across restarts.
//
// Layout: block_hash 32 | sequence u64le | signature 64 | final u8
type VoteRecord struct {
	BlockHash blockgraph.Hash
	Sequence  uint64
	Signature blockgraph.Signature
	Final     bool
}

const voteRecordLen = 32 + 8 + 64 + 1

// FinalVoteSequence is the sentinel sequence number marking a vote as
// final (irrevocable): no higher sequence can ever supersede it.
const FinalVoteSequence = ^uint64(0)

func encodeVoteRecord(v VoteRecord) []byte {
	out := make([]byte, voteRecordLen)
	off := 0
	copy(out[off:], v.BlockHash[:])
	off += 32
	binary.LittleEndian.PutUint64(out[off:], v.Sequence)
	off += 8
	copy(out[off:], v.Signature[:])
	off += 64
	if v.Final {
		out[off] = 1
	}
	return out
}

func decodeVoteRecord(b []byte) (VoteRecord, error) {
	if len(b) != voteRecordLen {
		return VoteRecord{}, fmt.Errorf("vote record: want %d bytes, got %d", voteRecordLen, len(b))
	}
	var v VoteRecord
	off := 0
	copy(v.BlockHash[:], b[off:off+32])
	off += 32
	v.Sequence = binary.LittleEndian.Uint64(b[off:])
	off += 8
	copy(v.Signature[:], b[off:off+64])
	off += 64
	v.Final = b[off] != 0
	return v, nil
}
