package election

import "nanoforge.dev/node/blockgraph"

// Vote is a representative's ballot for a contested account slot:
// {voter, sequence, block, signature}, signature over
// hash(block) ∥ sequence (spec §4.4).
type Vote struct {
	Voter     blockgraph.Account
	Sequence  uint64
	BlockHash blockgraph.Hash
	Signature blockgraph.Signature
}

// FinalSequence is the sentinel vote sequence number marking a vote as
// final (irrevocable): no higher sequence can ever supersede it.
// Mirrors store.FinalVoteSequence; duplicated here rather than
// imported so election has no dependency on the store package's
// on-disk schema.
const FinalSequence = ^uint64(0)

// IsFinal reports whether the vote carries the sentinel sequence.
func (v Vote) IsFinal() bool { return v.Sequence == FinalSequence }
