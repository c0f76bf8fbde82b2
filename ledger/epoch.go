package ledger

import "nanoforge.dev/node/blockgraph"

// EpochUpgrade names the link marker and the signer key that
// authenticates an upgrade into a given epoch. Grounded on
// original_source/nano/secure/ledger.cpp, which keys its
// epoch_link/epoch_signer pair by epoch rather than using one global
// constant — epoch 1 and epoch 2 upgrades carry distinct link values.
type EpochUpgrade struct {
	Link   blockgraph.Hash
	Signer blockgraph.Account
}

// EpochTable maps the epoch being upgraded *into* to its marker.
// Epoch0 has no entry: there is no upgrade into the genesis epoch.
type EpochTable map[blockgraph.Epoch]EpochUpgrade

// matchEpoch reports whether link is the configured upgrade marker for
// some epoch strictly after fromEpoch, per spec §4.3 step 2 ("the
// configured epoch-link matches B.link"). Epochs are tried in
// ascending order so a node mid-migration always lands on the next
// epoch rather than skipping ahead.
func (t EpochTable) matchEpoch(fromEpoch blockgraph.Epoch, link blockgraph.Hash) (blockgraph.Epoch, EpochUpgrade, bool) {
	for e := fromEpoch + 1; e <= blockgraph.Epoch2; e++ {
		up, ok := t[e]
		if ok && up.Link == link {
			return e, up, true
		}
	}
	return 0, EpochUpgrade{}, false
}
