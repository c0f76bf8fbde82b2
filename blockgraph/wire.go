package blockgraph

import "encoding/binary"

// Serialize encodes a block to its on-disk/wire byte layout, per spec
// §6, in each variant's field order. Every field is copied as stored,
// with no byte-order conversion: the balance is big-endian in both the
// legacy send and the state variant, and the work bytes are written
// exactly as held in Block.Work for every variant.
func (b *Block) Serialize() ([]byte, error) {
	switch b.Kind {
	case KindSend:
		out := make([]byte, 0, 32+32+16+64+8)
		out = append(out, b.Previous[:]...)
		out = append(out, b.LegacyDestination[:]...)
		out = append(out, b.Balance[:]...)
		out = append(out, b.Signature[:]...)
		out = append(out, b.Work[:]...)
		return out, nil
	case KindReceive:
		out := make([]byte, 0, 32+32+64+8)
		out = append(out, b.Previous[:]...)
		out = append(out, b.SourceHash[:]...)
		out = append(out, b.Signature[:]...)
		out = append(out, b.Work[:]...)
		return out, nil
	case KindOpen:
		out := make([]byte, 0, 32+32+32+64+8)
		out = append(out, b.SourceHash[:]...)
		out = append(out, b.Representative[:]...)
		out = append(out, b.Account[:]...)
		out = append(out, b.Signature[:]...)
		out = append(out, b.Work[:]...)
		return out, nil
	case KindChange:
		out := make([]byte, 0, 32+32+64+8)
		out = append(out, b.Previous[:]...)
		out = append(out, b.Representative[:]...)
		out = append(out, b.Signature[:]...)
		out = append(out, b.Work[:]...)
		return out, nil
	case KindState:
		out := make([]byte, 0, 32*5+16+64+8)
		out = append(out, b.StateAccount[:]...)
		out = append(out, b.Previous[:]...)
		out = append(out, b.Representative[:]...)
		out = append(out, b.StateBalance[:]...) // big-endian, as stored
		out = append(out, b.Link[:]...)
		out = append(out, b.Signature[:]...)
		out = append(out, b.Work[:]...) // big-endian
		return out, nil
	default:
		return nil, parseErr(ErrParseUnknownKind, "serialize: unknown block kind")
	}
}

// blockSizes gives the exact wire length for each kind, used by Parse
// to reject trailing/truncated bytes.
var blockSizes = map[Kind]int{
	KindSend:    32 + 32 + 16 + 64 + 8,
	KindReceive: 32 + 32 + 64 + 8,
	KindOpen:    32 + 32 + 32 + 64 + 8,
	KindChange:  32 + 32 + 64 + 8,
	KindState:   32*5 + 16 + 64 + 8,
}

// Parse decodes a block of the given kind from its wire bytes.
func Parse(kind Kind, b []byte) (*Block, error) {
	size, ok := blockSizes[kind]
	if !ok {
		return nil, parseErr(ErrParseUnknownKind, "parse: unknown block kind")
	}
	if len(b) < size {
		return nil, parseErr(ErrParseTooShort, "parse: block too short")
	}
	if len(b) != size {
		return nil, parseErr(ErrParseTrailingBytes, "parse: trailing bytes")
	}

	blk := &Block{Kind: kind}
	off := 0
	read := func(n int) []byte {
		v := b[off : off+n]
		off += n
		return v
	}

	switch kind {
	case KindSend:
		copy(blk.Previous[:], read(32))
		copy(blk.LegacyDestination[:], read(32))
		copy(blk.Balance[:], read(16))
	case KindReceive:
		copy(blk.Previous[:], read(32))
		copy(blk.SourceHash[:], read(32))
	case KindOpen:
		copy(blk.SourceHash[:], read(32))
		copy(blk.Representative[:], read(32))
		copy(blk.Account[:], read(32))
	case KindChange:
		copy(blk.Previous[:], read(32))
		copy(blk.Representative[:], read(32))
	case KindState:
		copy(blk.StateAccount[:], read(32))
		copy(blk.Previous[:], read(32))
		copy(blk.Representative[:], read(32))
		copy(blk.StateBalance[:], read(16))
		copy(blk.Link[:], read(32))
	}
	copy(blk.Signature[:], read(64))
	copy(blk.Work[:], read(8))
	return blk, nil
}

// MessageHeader is the fixed 8-byte prefix preceding every wire
// message, per spec §6: magic || network || max-ver || use-ver ||
// min-ver || type || extensions16.
type MessageHeader struct {
	Magic      byte
	Network    byte
	MaxVersion byte
	UseVersion byte
	MinVersion byte
	Type       byte
	Extensions uint16
}

const MessageHeaderSize = 8

func (h MessageHeader) Encode() [MessageHeaderSize]byte {
	var out [MessageHeaderSize]byte
	out[0] = h.Magic
	out[1] = h.Network
	out[2] = h.MaxVersion
	out[3] = h.UseVersion
	out[4] = h.MinVersion
	out[5] = h.Type
	binary.LittleEndian.PutUint16(out[6:8], h.Extensions)
	return out
}

func DecodeMessageHeader(b [MessageHeaderSize]byte) MessageHeader {
	return MessageHeader{
		Magic:      b[0],
		Network:    b[1],
		MaxVersion: b[2],
		UseVersion: b[3],
		MinVersion: b[4],
		Type:       b[5],
		Extensions: binary.LittleEndian.Uint16(b[6:8]),
	}
}

// Wire message types, per spec §6. MsgChecksumReq/MsgChecksumResp are
// a supplemented addition (SPEC_FULL §3) exchanging the checksum
// table's rolling per-region digest, used by the bootstrap convergence
// path to confirm two peers' ledgers agree after a sync (spec.md §8
// scenario 5: "B.checksum = A.checksum").
const (
	MsgKeepalive    byte = 1
	MsgPublish      byte = 2
	MsgConfirmReq   byte = 3
	MsgConfirmAck   byte = 4
	MsgBulkReq      byte = 5
	MsgFrontierReq  byte = 6
	MsgChecksumReq  byte = 7
	MsgChecksumResp byte = 8
)
