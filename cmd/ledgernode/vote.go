package main

import (
	"encoding/binary"
	"time"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/election"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

// submitVote verifies and durably persists one incoming representative
// vote, then folds it into the in-memory election tally. Spec §3/§4.4
// describe this path as driven by incoming confirm_ack network
// messages; this build carries no peering layer yet (see DESIGN.md),
// so submitVote is the seam a future p2p receiver would call into.
// It combines three collaborators that otherwise stay ignorant of
// each other: cryptoprovider verifies the signature, ledger.Weight
// resolves delegated weight, and store.Tx.PutVote persists the vote
// with its monotonic-sequence check — all inside one write
// transaction so a rejected persist never reaches the tally.
func submitVote(db *store.DB, l *ledger.Ledger, manager *election.Manager, crypto cryptoprovider.Provider, root, initialBlock blockgraph.Hash, v election.Vote, totalOnlineWeight blockgraph.Amount, now time.Time) (bool, error) {
	el, _ := manager.Get(root, initialBlock)

	verify := func(v election.Vote) bool {
		return crypto.Verify(v.Voter, voteSignedHash(v), v.Signature)
	}

	var accepted bool
	err := db.WithTx(func(tx *store.Tx) error {
		weight := func(voter blockgraph.Account) blockgraph.Amount {
			rec, _, err := l.Account(tx, voter)
			if err != nil {
				return blockgraph.Amount{}
			}
			w, err := l.Weight(tx, voter, rec.BlockCount)
			if err != nil {
				return blockgraph.Amount{}
			}
			return w
		}
		persist := func(root blockgraph.Hash, v election.Vote) (bool, error) {
			return tx.PutVote(root, v.Voter, store.VoteRecord{
				BlockHash: v.BlockHash,
				Sequence:  v.Sequence,
				Signature: v.Signature,
				Final:     v.IsFinal(),
			})
		}
		var verr error
		accepted, verr = el.VoteAndPersist(v, persist, verify, weight, manager.Thresholds, totalOnlineWeight, now)
		return verr
	})
	return accepted, err
}

// voteSignedHash is the payload a vote's signature commits to: spec
// §4.4's hash(block) ∥ sequence.
func voteSignedHash(v election.Vote) blockgraph.Hash {
	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], v.Sequence)
	return blockgraph.Digest256(v.BlockHash[:], seq[:])
}
