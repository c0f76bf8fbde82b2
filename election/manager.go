package election

import (
	"sync"
	"time"

	"nanoforge.dev/node/blockgraph"
)

// Manager holds every live election, keyed by root. A single mutex
// guards the map itself; each Election guards its own internal state,
// matching spec §4.4's stated lock hierarchy (election-map-lock before
// election-internal-lock) and the teacher's PeerManager/PeerState
// split (one mutex for the membership map, one per member).
type Manager struct {
	mu        sync.Mutex
	elections map[blockgraph.Hash]*Election

	// GracePeriod is how long a confirmed election is kept around to
	// absorb late votes before Sweep destroys it (spec §4.4's
	// "cleanup: on confirmation the election remains for a grace
	// period... then is destroyed").
	GracePeriod time.Duration

	// MaxLifetime bounds how long an unconfirmed election survives;
	// past it Sweep discards it and the caller re-submits its blocks
	// to the unchecked buffer (spec §5's "elections have a maximum
	// lifetime").
	MaxLifetime time.Duration

	Thresholds Thresholds
}

// NewManager builds a Manager with spec-default thresholds and the
// given grace period / max election lifetime.
func NewManager(gracePeriod, maxLifetime time.Duration) *Manager {
	return &Manager{
		elections:   make(map[blockgraph.Hash]*Election),
		GracePeriod: gracePeriod,
		MaxLifetime: maxLifetime,
		Thresholds:  DefaultThresholds(),
	}
}

// Get returns the election for root, starting one (seeded with
// initialBlock as the current leader) if none exists yet. created
// reports whether this call started it.
func (m *Manager) Get(root blockgraph.Hash, initialBlock blockgraph.Hash) (el *Election, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.elections[root]; ok {
		return el, false
	}
	el = newElection(root, initialBlock)
	el.startTime = timeNow()
	m.elections[root] = el
	return el, true
}

// Lookup returns the election for root without creating one.
func (m *Manager) Lookup(root blockgraph.Hash) (*Election, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elections[root]
	return el, ok
}

// Count reports how many elections are currently live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.elections)
}

// ConfirmationFunc is invoked once, exactly when Sweep destroys a
// confirmed election, to let the ledger apply the outcome (spec
// §4.4: "on destruction the decision is announced to the ledger,
// which invokes rollback if the confirmed block differs from the
// currently stored one at that slot").
type ConfirmationFunc func(root, winner blockgraph.Hash)

// ExpiredFunc is invoked once per unconfirmed election that Sweep
// discards for exceeding MaxLifetime, so the caller can re-submit its
// candidate blocks to the unchecked buffer (spec §5).
type ExpiredFunc func(root blockgraph.Hash)

// Sweep destroys confirmed elections whose grace period has elapsed
// and discards unconfirmed elections past MaxLifetime, calling onConfirm
// / onExpired for each respectively. now is caller-supplied so tests
// can drive the clock.
func (m *Manager) Sweep(now time.Time, onConfirm ConfirmationFunc, onExpired ExpiredFunc) {
	m.mu.Lock()
	var toConfirm, toExpire []*Election
	for root, el := range m.elections {
		el.mu.Lock()
		switch {
		case el.confirmed && now.Sub(el.confirmedAt) >= m.GracePeriod:
			toConfirm = append(toConfirm, el)
			delete(m.elections, root)
		case !el.confirmed && m.MaxLifetime > 0 && now.Sub(el.startTime) >= m.MaxLifetime:
			toExpire = append(toExpire, el)
			delete(m.elections, root)
		}
		el.mu.Unlock()
	}
	m.mu.Unlock()

	for _, el := range toConfirm {
		if onConfirm != nil {
			onConfirm(el.root, el.lastWinner)
		}
	}
	for _, el := range toExpire {
		if onExpired != nil {
			onExpired(el.root)
		}
	}
}

// timeNow exists only so Election carries a startTime without this
// package importing "time" into Vote/Manager call sites that already
// receive now explicitly; Get is the one place that has no caller-
// supplied clock (a brand-new election's own creation moment), so it
// uses the wall clock directly.
func timeNow() time.Time { return time.Now() }
