// Package bootstrap implements the frontier-request / bulk-block-request
// peer protocol (spec §4.5): a client peer discovers it is behind,
// opens a bulk connection, pulls frontiers, diffs them against its own
// ledger, and pulls blocks to reconcile divergences. Grounded on the
// teacher's node/p2p package: the fixed-header framing idiom of
// envelope.go (WriteMessage/ReadMessage over io.Writer/io.Reader, a
// ReadError carrying ban-score-delta/disconnect policy) and the
// dispatch-loop shape of peer.go (per-message read deadline, context
// cancellation unblocking a blocking read by closing the connection).
package bootstrap

import (
	"encoding/binary"
	"fmt"
	"io"

	"nanoforge.dev/node/blockgraph"
)

// MaxPayloadBytes bounds a single message's payload, the bootstrap
// analog of the teacher's MaxRelayMsgBytes — without it a malicious
// peer's declared length could force an unbounded allocation before
// any content is read.
const MaxPayloadBytes = 16 << 20

// Message is one bootstrap wire message: the spec §6 8-byte header
// plus a length-prefixed payload. The header itself carries no length
// field (unlike the teacher's 24-byte transport prefix), so bootstrap
// adds its own 4-byte little-endian length after the header — the one
// place this package's framing diverges from spec §6's literal byte
// layout, needed because a reader has no other way to know the
// payload boundary.
type Message struct {
	Header  blockgraph.MessageHeader
	Payload []byte
}

// ReadError mirrors the teacher's p2p.ReadError: it tells the caller
// whether to disconnect the connection outright or merely drop one
// malformed message and keep reading.
type ReadError struct {
	Err        error
	Disconnect bool
}

func (e *ReadError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// WriteMessage writes one framed message to w.
func WriteMessage(w io.Writer, hdr blockgraph.MessageHeader, payload []byte) error {
	if len(payload) > MaxPayloadBytes {
		return fmt.Errorf("bootstrap: payload too large (%d bytes)", len(payload))
	}
	head := hdr.Encode()
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadMessage reads exactly one framed message from r.
func ReadMessage(r io.Reader) (*Message, *ReadError) {
	var headBuf [blockgraph.MessageHeaderSize]byte
	if _, err := io.ReadFull(r, headBuf[:]); err != nil {
		return nil, &ReadError{Err: err, Disconnect: true}
	}
	hdr := blockgraph.DecodeMessageHeader(headBuf)

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, &ReadError{Err: err, Disconnect: true}
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxPayloadBytes {
		return nil, &ReadError{Err: fmt.Errorf("bootstrap: declared length %d exceeds MaxPayloadBytes", n), Disconnect: true}
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &ReadError{Err: err, Disconnect: true}
		}
	}
	return &Message{Header: hdr, Payload: payload}, nil
}
