// Package election implements per-root vote aggregation and
// confirmation thresholds. There is no teacher analog — the UTXO
// chain this repo was copied from has no representative voting — so
// the shape is built from original_source's vote/election semantics,
// borrowing the small-mutex-guarded-map idiom from the teacher's
// node.PeerManager and the decaying-score state-machine shape from
// node/p2p/banscore.go's BanScore (see DESIGN.md).
package election

import (
	"math/big"
	"sync"
	"time"

	"nanoforge.dev/node/blockgraph"
)

// repVote is the last vote a representative cast in one election.
type repVote struct {
	sequence uint64
	block    blockgraph.Hash
}

// Election is an in-memory object tracking one contested account
// slot, keyed by root(block). Spec's election fields map directly:
// root, lastWinner, repVotes (keyed by voter, each carrying its own
// last-seen sequence), lastVoteTime, confirmed.
type Election struct {
	mu sync.Mutex

	root         blockgraph.Hash
	lastWinner   blockgraph.Hash
	repVotes     map[blockgraph.Account]repVote
	tally        map[blockgraph.Hash]blockgraph.Amount
	lastVoteTime time.Time
	confirmed    bool
	confirmedAt  time.Time
	startTime    time.Time
}

func newElection(root, initialBlock blockgraph.Hash) *Election {
	return &Election{
		root:       root,
		lastWinner: initialBlock,
		repVotes:   make(map[blockgraph.Account]repVote),
		tally:      make(map[blockgraph.Hash]blockgraph.Amount),
	}
}

// Root returns the slot identifier this election tracks.
func (e *Election) Root() blockgraph.Hash { return e.root }

// Winner returns the current leading block and whether it is
// confirmed.
func (e *Election) Winner() (blockgraph.Hash, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastWinner, e.confirmed
}

// WeightFunc resolves a representative's current delegated voting
// weight; supplied by the caller (backed by ledger.Weight) so election
// has no store dependency of its own.
type WeightFunc func(voter blockgraph.Account) blockgraph.Amount

// VerifyFunc checks a vote's signature over hash(block) ∥ sequence;
// supplied by the caller so election has no cryptoprovider dependency
// of its own beyond the types it passes through.
type VerifyFunc func(v Vote) bool

// Thresholds are the three ordered confirmation thresholds, each
// expressed as a fraction Num/Den of total online weight S.
// Defaults match spec §4.4: uncontested S/8, contested S/2, flip
// hysteresis +S/8.
type Thresholds struct {
	UncontestedNum, UncontestedDen int64
	ContestedNum, ContestedDen    int64
	FlipNum, FlipDen               int64
}

// DefaultThresholds returns spec §4.4's thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UncontestedNum: 1, UncontestedDen: 8,
		ContestedNum: 1, ContestedDen: 2,
		FlipNum: 1, FlipDen: 8,
	}
}

// Vote processes one incoming vote against the election. now is the
// caller-supplied clock (election never reads the system clock itself,
// so tests can drive it deterministically). totalOnlineWeight is S,
// the sum of representation weight whose votes have been seen within
// the online window; the caller (the vote-aggregator loop) maintains
// that window and passes S in per call.
func (e *Election) Vote(v Vote, verify VerifyFunc, weight WeightFunc, thresholds Thresholds, totalOnlineWeight blockgraph.Amount, now time.Time) bool {
	if !verify(v) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev, seen := e.repVotes[v.Voter]
	if seen && !v.IsFinal() && prev.sequence >= v.Sequence {
		return false // replay or stale
	}

	if seen {
		e.tally[prev.block], _ = e.tally[prev.block].Sub(weight(v.Voter))
	}
	e.repVotes[v.Voter] = repVote{sequence: v.Sequence, block: v.BlockHash}
	added, _ := e.tally[v.BlockHash].Add(weight(v.Voter))
	e.tally[v.BlockHash] = added
	e.lastVoteTime = now

	e.recompute(thresholds, totalOnlineWeight, now)
	return true
}

// PersistFunc durably records a vote for later restart recovery,
// returning whether it actually replaced what was stored (false for a
// stale/replayed sequence) so VoteAndPersist can mirror that into the
// in-memory tally's own replay check. Supplied by the caller (backed
// by store.Tx.PutVote) so election keeps no store dependency of its
// own, matching WeightFunc/VerifyFunc above.
type PersistFunc func(root blockgraph.Hash, v Vote) (bool, error)

// VoteAndPersist persists v via persist before applying it to the
// in-memory tally, so a vote that fails the durable monotonic-sequence
// check (spec §3's "insert-or-replace only on higher sequence") never
// reaches Vote and cannot perturb the tally with a replay. Returns
// false (and leaves the tally untouched) whenever either step
// rejects the vote.
func (e *Election) VoteAndPersist(v Vote, persist PersistFunc, verify VerifyFunc, weight WeightFunc, thresholds Thresholds, totalOnlineWeight blockgraph.Amount, now time.Time) (bool, error) {
	if !verify(v) {
		return false, nil
	}
	stored, err := persist(e.root, v)
	if err != nil {
		return false, err
	}
	if !stored {
		return false, nil
	}
	return e.Vote(v, verify, weight, thresholds, totalOnlineWeight, now), nil
}

// recompute re-derives lastWinner/confirmed from the current tally.
// Must be called with mu held.
func (e *Election) recompute(th Thresholds, total blockgraph.Amount, now time.Time) {
	leader, leaderWeight, distinctBlocks := e.leadingBlock()

	if e.confirmed {
		// Flip: only a leader that beats the confirmed winner by more
		// than S/8 displaces it.
		if leader == e.lastWinner {
			return
		}
		margin := scaledThreshold(total, th.FlipNum, th.FlipDen)
		currentWeight := e.tally[e.lastWinner]
		if cmpAmount(leaderWeight, addAmount(currentWeight, margin)) > 0 {
			e.lastWinner = leader
		}
		return
	}

	e.lastWinner = leader

	var required blockgraph.Amount
	if distinctBlocks <= 1 {
		required = scaledThreshold(total, th.UncontestedNum, th.UncontestedDen)
	} else {
		required = scaledThreshold(total, th.ContestedNum, th.ContestedDen)
	}
	if cmpAmount(leaderWeight, required) >= 0 {
		e.confirmed = true
		e.confirmedAt = now
	}
}

// leadingBlock returns the block with the highest tallied weight, how
// much weight it has, and how many distinct blocks have any vote at
// all (used to decide uncontested vs. contested).
func (e *Election) leadingBlock() (blockgraph.Hash, blockgraph.Amount, int) {
	var leader blockgraph.Hash
	var leaderWeight blockgraph.Amount
	count := 0
	first := true
	for block, w := range e.tally {
		if cmpAmount(w, blockgraph.Amount{}) > 0 {
			count++
		}
		if first || cmpAmount(w, leaderWeight) > 0 {
			leader, leaderWeight = block, w
			first = false
		}
	}
	return leader, leaderWeight, count
}

func addAmount(a, b blockgraph.Amount) blockgraph.Amount {
	sum, overflow := a.Add(b)
	if overflow {
		return blockgraph.Amount{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	}
	return sum
}

func cmpAmount(a, b blockgraph.Amount) int { return a.Cmp(b) }

// scaledThreshold computes floor(total * num / den). The three spec
// ratios (1/8, 1/2) need genuine 128-bit-wide multiplication before
// dividing down, so this is the one place election reaches for
// math/big rather than blockgraph.Amount's byte-array arithmetic —
// Amount.Add/Sub only ever add same-scale quantities, never scale one
// by a fraction.
func scaledThreshold(total blockgraph.Amount, num, den int64) blockgraph.Amount {
	if num <= 0 || den <= 0 {
		return blockgraph.Amount{}
	}
	t := new(big.Int).SetBytes(total[:])
	t.Mul(t, big.NewInt(num))
	t.Div(t, big.NewInt(den))
	var a blockgraph.Amount
	t.FillBytes(a[:])
	return a
}
