package blockgraph

import "golang.org/x/crypto/blake2b"

// Digest256 computes the 256-bit block digest used throughout the
// ledger: hash = digest_256(hashables). nano-node hashes blocks with
// blake2b (confirmed in original_source/nano/lib/blocks.hpp), not
// SHA3 as the UTXO teacher does — this is the one place blockgraph
// departs from consensus/hash.go's sha3_256 in favor of the domain's
// real primitive.
func Digest256(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a non-empty key of bad length; nil key never fails.
		panic(err)
	}
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Digest64 computes a 64-bit work-check digest over root||work, per
// the proof-of-work rule in spec §4.2.
func Digest64(root Hash, work Work) uint64 {
	h, err := blake2b.New(8, nil)
	if err != nil {
		panic(err)
	}
	_, _ = h.Write(root[:])
	_, _ = h.Write(work[:])
	sum := h.Sum(nil)
	var v uint64
	for _, b := range sum {
		v = v<<8 | uint64(b)
	}
	return v
}
