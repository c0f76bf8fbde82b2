package ledger

import (
	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/store"
)

// RegionOf buckets an account into one of 256 checksum regions by its
// leading byte. Spec §3's checksum table keys on a 64-bit
// (prefix, mask) pair, letting a peer request the digest over just
// the subset of accounts it suspects diverges; store.PutChecksumRegion
// already collapsed that wire-level pair down to a single-byte region
// key (see store/tables.go), so RegionOf reproduces the same
// leading-byte partition here rather than reintroducing a 64-bit key
// the store schema no longer carries.
func RegionOf(account blockgraph.Account) byte {
	return account[0]
}

// checksumContribution is one account's term in the XOR chain: its
// frontier folded together with the account itself, so two unrelated
// accounts never cancel each other just because their frontiers
// happen to coincide.
func checksumContribution(account blockgraph.Account, frontier blockgraph.Hash) blockgraph.Hash {
	return blockgraph.Digest256(account[:], frontier[:])
}

func xorHash(a, b blockgraph.Hash) blockgraph.Hash {
	var out blockgraph.Hash
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// UpdateChecksum folds one account's frontier change into its
// region's running digest. Spec §3 names the checksum table as "a
// rolling XOR-chain over frontiers": moving an account's head from
// oldHead to newHead toggles its old contribution out and its new one
// in. XOR is its own inverse, so both toggles collapse into a single
// XOR of (old contribution XOR new contribution) against whatever
// digest is already stored for the region. oldHead is the zero hash
// for an account's first block (open/first state block), which
// contributes nothing to toggle out. Every ledger commit site that
// moves an account's head calls this alongside PutAccount, so the
// stored digest never falls behind the accounts table.
func UpdateChecksum(tx *store.Tx, account blockgraph.Account, oldHead, newHead blockgraph.Hash) error {
	region := RegionOf(account)
	digest, _, err := tx.GetChecksumRegion(region)
	if err != nil {
		return err
	}
	if !oldHead.IsZero() {
		digest = xorHash(digest, checksumContribution(account, oldHead))
	}
	digest = xorHash(digest, checksumContribution(account, newHead))
	return tx.PutChecksumRegion(region, digest)
}

// VerifyChecksum recomputes region's digest from scratch by walking
// every account whose RegionOf matches and folding in its current
// frontier, then reports whether that matches the digest
// UpdateChecksum has been incrementally maintaining. Used by the
// bootstrap convergence path (spec.md §8 scenario 5: "B.checksum =
// A.checksum") as the authoritative comparison rather than trusting
// the rolling digest alone, so a bug in incremental maintenance is
// itself detectable rather than silently trusted.
func VerifyChecksum(tx *store.Tx, region byte) (blockgraph.Hash, bool, error) {
	recomputed, err := recomputeChecksum(tx, region)
	if err != nil {
		return blockgraph.Hash{}, false, err
	}
	stored, ok, err := tx.GetChecksumRegion(region)
	if err != nil {
		return blockgraph.Hash{}, false, err
	}
	if !ok {
		return recomputed, recomputed.IsZero(), nil
	}
	return recomputed, recomputed == stored, nil
}

// recomputeChecksum walks every account in the accounts table and
// XORs in the contribution of every account whose RegionOf matches
// region, ignoring the incrementally maintained digest entirely.
func recomputeChecksum(tx *store.Tx, region byte) (blockgraph.Hash, error) {
	var digest blockgraph.Hash
	cursor := tx.AccountsCursor()
	account, rec, ok := cursor.Begin()
	for ok {
		if RegionOf(account) == region {
			digest = xorHash(digest, checksumContribution(account, rec.Head))
		}
		account, rec, ok = cursor.Next()
	}
	return digest, nil
}
