package bootstrap

import (
	"encoding/binary"
	"fmt"

	"nanoforge.dev/node/blockgraph"
)

// FrontierRequest is the payload of a MsgFrontierReq message (spec
// §4.5): (start_account, max_age, max_count). max_age is seconds;
// max_count is the hard cap on streamed entries.
type FrontierRequest struct {
	StartAccount blockgraph.Account
	MaxAge       uint64
	MaxCount     uint32
}

const frontierRequestLen = 32 + 8 + 4

func (r FrontierRequest) Encode() []byte {
	out := make([]byte, frontierRequestLen)
	copy(out[0:32], r.StartAccount[:])
	binary.LittleEndian.PutUint64(out[32:40], r.MaxAge)
	binary.LittleEndian.PutUint32(out[40:44], r.MaxCount)
	return out
}

func DecodeFrontierRequest(b []byte) (FrontierRequest, error) {
	if len(b) != frontierRequestLen {
		return FrontierRequest{}, fmt.Errorf("bootstrap: frontier request: want %d bytes, got %d", frontierRequestLen, len(b))
	}
	var r FrontierRequest
	copy(r.StartAccount[:], b[0:32])
	r.MaxAge = binary.LittleEndian.Uint64(b[32:40])
	r.MaxCount = binary.LittleEndian.Uint32(b[40:44])
	return r, nil
}

// FrontierEntry is one (account, head_hash) pair streamed by the
// server; a zero account terminates the stream.
type FrontierEntry struct {
	Account blockgraph.Account
	Head    blockgraph.Hash
}

const frontierEntryLen = 32 + 32

func (e FrontierEntry) Encode() []byte {
	out := make([]byte, frontierEntryLen)
	copy(out[0:32], e.Account[:])
	copy(out[32:64], e.Head[:])
	return out
}

func DecodeFrontierEntry(b []byte) (FrontierEntry, error) {
	if len(b) != frontierEntryLen {
		return FrontierEntry{}, fmt.Errorf("bootstrap: frontier entry: want %d bytes, got %d", frontierEntryLen, len(b))
	}
	var e FrontierEntry
	copy(e.Account[:], b[0:32])
	copy(e.Head[:], b[32:64])
	return e, nil
}

// IsTerminator reports whether this entry is the zero-account
// stream-end marker.
func (e FrontierEntry) IsTerminator() bool { return e.Account.IsZero() }

// FrontierTerminator is the zero-account sentinel entry.
var FrontierTerminator = FrontierEntry{}

// BulkBlockRequest is the payload of a MsgBulkReq message (spec §4.5):
// (start_hash, end_hash, count). The server walks the account chain
// containing start_hash from newest toward oldest.
type BulkBlockRequest struct {
	StartHash blockgraph.Hash
	EndHash   blockgraph.Hash
	Count     uint32
}

const bulkBlockRequestLen = 32 + 32 + 4

func (r BulkBlockRequest) Encode() []byte {
	out := make([]byte, bulkBlockRequestLen)
	copy(out[0:32], r.StartHash[:])
	copy(out[32:64], r.EndHash[:])
	binary.LittleEndian.PutUint32(out[64:68], r.Count)
	return out
}

func DecodeBulkBlockRequest(b []byte) (BulkBlockRequest, error) {
	if len(b) != bulkBlockRequestLen {
		return BulkBlockRequest{}, fmt.Errorf("bootstrap: bulk request: want %d bytes, got %d", bulkBlockRequestLen, len(b))
	}
	var r BulkBlockRequest
	copy(r.StartHash[:], b[0:32])
	copy(r.EndHash[:], b[32:64])
	r.Count = binary.LittleEndian.Uint32(b[64:68])
	return r, nil
}

// ChecksumRequest is the payload of a MsgChecksumReq message: which
// checksum region the sender wants the peer's current digest for.
// Supplemented addition (SPEC_FULL §3) giving spec.md's checksum table
// (§3) an actual operation, since the distilled spec only named the
// table and never a request/response pair for it.
type ChecksumRequest struct {
	Region byte
}

const checksumRequestLen = 1

func (r ChecksumRequest) Encode() []byte { return []byte{r.Region} }

func DecodeChecksumRequest(b []byte) (ChecksumRequest, error) {
	if len(b) != checksumRequestLen {
		return ChecksumRequest{}, fmt.Errorf("bootstrap: checksum request: want %d bytes, got %d", checksumRequestLen, len(b))
	}
	return ChecksumRequest{Region: b[0]}, nil
}

// ChecksumResponse is the payload of a MsgChecksumResp message: the
// requested region's digest as ledger.VerifyChecksum recomputed it.
type ChecksumResponse struct {
	Region byte
	Digest blockgraph.Hash
}

const checksumResponseLen = 1 + 32

func (r ChecksumResponse) Encode() []byte {
	out := make([]byte, checksumResponseLen)
	out[0] = r.Region
	copy(out[1:], r.Digest[:])
	return out
}

func DecodeChecksumResponse(b []byte) (ChecksumResponse, error) {
	if len(b) != checksumResponseLen {
		return ChecksumResponse{}, fmt.Errorf("bootstrap: checksum response: want %d bytes, got %d", checksumResponseLen, len(b))
	}
	var r ChecksumResponse
	r.Region = b[0]
	copy(r.Digest[:], b[1:])
	return r, nil
}

// Block-type prefix bytes for bulk-block-response entries (spec §4.5:
// "one block per message with a 1-byte type prefix... a type byte of
// not_a_block terminates").
const (
	TypeNotABlock byte = 0
	TypeSend      byte = 1
	TypeReceive   byte = 2
	TypeOpen      byte = 3
	TypeChange    byte = 4
	TypeState     byte = 5
)

// KindToType maps a blockgraph.Kind to its bulk-response type prefix.
func KindToType(k blockgraph.Kind) byte {
	switch k {
	case blockgraph.KindSend:
		return TypeSend
	case blockgraph.KindReceive:
		return TypeReceive
	case blockgraph.KindOpen:
		return TypeOpen
	case blockgraph.KindChange:
		return TypeChange
	case blockgraph.KindState:
		return TypeState
	default:
		return TypeNotABlock
	}
}

// TypeToKind is KindToType's inverse; returns ok=false for
// TypeNotABlock or an unrecognized byte.
func TypeToKind(t byte) (blockgraph.Kind, bool) {
	switch t {
	case TypeSend:
		return blockgraph.KindSend, true
	case TypeReceive:
		return blockgraph.KindReceive, true
	case TypeOpen:
		return blockgraph.KindOpen, true
	case TypeChange:
		return blockgraph.KindChange, true
	case TypeState:
		return blockgraph.KindState, true
	default:
		return blockgraph.KindInvalid, false
	}
}
