// Package cryptoprovider is the narrow crypto interface the ledger,
// store, and election packages consume — adapted from the teacher's
// crypto.CryptoProvider (crypto/provider.go), but scoped to the
// primitives the account-chain ledger actually needs: blake2b block
// hashing and Ed25519 account-key signature verification, rather than
// the UTXO teacher's ML-DSA/SLH-DSA post-quantum suites.
package cryptoprovider

import "nanoforge.dev/node/blockgraph"

// Provider is implemented by every signer/hasher backend the ledger
// can be wired to. The ledger core never constructs key material
// itself; it only verifies.
type Provider interface {
	// Hash256 computes the block digest (spec §3's 256-bit hash).
	Hash256(parts ...[]byte) blockgraph.Hash
	// Verify checks an Ed25519 signature over hash by the given account.
	Verify(account blockgraph.Account, hash blockgraph.Hash, sig blockgraph.Signature) bool
	// Sign produces an Ed25519 signature over hash with the given
	// private key. Used by the wallet collaborator, not by the
	// validation path.
	Sign(priv [64]byte, hash blockgraph.Hash) blockgraph.Signature
}
