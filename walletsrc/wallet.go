package walletsrc

import (
	"sync"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
)

// Wallet holds one unlocked seed and lazily derives Accounts from it.
// Grounded on other_examples' gonano Wallet/Account split: a Wallet is
// the seed-holding root, Accounts are thin per-index handles that
// borrow the wallet's crypto provider and representative default
// rather than each carrying their own copy.
type Wallet struct {
	Crypto         cryptoprovider.Provider
	Representative blockgraph.Account

	mu       sync.Mutex
	seed     [32]byte
	accounts map[uint32]*Account
}

// New returns a Wallet unlocked with seed. Callers typically obtain
// seed via a Keystore's Open.
func New(crypto cryptoprovider.Provider, seed [32]byte) *Wallet {
	return &Wallet{
		Crypto:   crypto,
		seed:     seed,
		accounts: make(map[uint32]*Account),
	}
}

// Account returns the (cached) handle for derivation index idx,
// deriving its key material the first time it is requested.
func (w *Wallet) Account(idx uint32) *Account {
	w.mu.Lock()
	defer w.mu.Unlock()
	if a, ok := w.accounts[idx]; ok {
		return a
	}
	account, priv := deriveKey(w.seed, idx)
	rep := w.Representative
	if rep.IsZero() {
		rep = account
	}
	a := &Account{
		wallet:         w,
		index:          idx,
		Account:        account,
		priv:           priv,
		Representative: rep,
	}
	w.accounts[idx] = a
	return a
}
