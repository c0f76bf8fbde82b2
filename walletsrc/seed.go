// Package walletsrc is the external-collaborator wallet: it holds a
// seed, deterministically derives per-index account keys from it, and
// constructs signed send/receive/change state blocks against a
// Ledger without ever touching the node's own consensus-critical
// packages. Grounded on other_examples' gonano wallet/account split
// (a Wallet owning Accounts that each build and sign blocks) and the
// teacher's keymgr.go for the at-rest keystore format.
package walletsrc

import (
	"encoding/binary"

	"crypto/ed25519"

	"nanoforge.dev/node/blockgraph"
)

// deriveAccountSeed computes the per-index 32-byte ed25519 seed from a
// wallet's master seed, following the nano-family convention recorded
// in original_source/nano/lib/numbers.hpp's deterministic_key:
// seed_material = blake2b_256(seed || index_be32). Using blockgraph's
// own Digest256 keeps the wallet's key derivation on the same blake2b
// primitive as every other hash in the ledger rather than introducing
// a second hash function.
func deriveAccountSeed(seed [32]byte, index uint32) [32]byte {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	return [32]byte(blockgraph.Digest256(seed[:], idx[:]))
}

// deriveKey returns the account and 64-byte Ed25519 private key for
// one wallet index.
func deriveKey(seed [32]byte, index uint32) (blockgraph.Account, [64]byte) {
	accountSeed := deriveAccountSeed(seed, index)
	priv := ed25519.NewKeyFromSeed(accountSeed[:])
	var account blockgraph.Account
	var privOut [64]byte
	copy(account[:], priv[32:])
	copy(privOut[:], priv)
	return account, privOut
}
