package cryptoprovider

import (
	"crypto/ed25519"

	"nanoforge.dev/node/blockgraph"
)

// Ed25519Provider is the production Provider: blake2b hashing (via
// blockgraph.Digest256) plus stdlib Ed25519 signatures. It replaces
// the teacher's DevStdCryptoProvider, which returned false from every
// verify call and existed only to unblock tooling — our account
// chain has no HSM/wolfcrypt backend to fail over to, so this is the
// only provider, not a dev stand-in.
type Ed25519Provider struct{}

func (Ed25519Provider) Hash256(parts ...[]byte) blockgraph.Hash {
	return blockgraph.Digest256(parts...)
}

func (Ed25519Provider) Verify(account blockgraph.Account, hash blockgraph.Hash, sig blockgraph.Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(account[:]), hash[:], sig[:])
}

func (Ed25519Provider) Sign(priv [64]byte, hash blockgraph.Hash) blockgraph.Signature {
	raw := ed25519.Sign(ed25519.PrivateKey(priv[:]), hash[:])
	var out blockgraph.Signature
	copy(out[:], raw)
	return out
}
