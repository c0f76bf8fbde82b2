package walletsrc

import (
	"errors"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

// ErrInsufficientFunds is returned by BuildSend when amount exceeds
// the account's current balance.
var ErrInsufficientFunds = errors.New("walletsrc: insufficient funds")

// Account is one derived wallet key, able to construct signed state
// blocks against a Ledger. Every Build* method reads the account's
// current head/balance via ledger.Ledger.Account rather than caching
// it locally, matching other_examples' gonano Account, which always
// re-fetches AccountInfo before building a block so two wallets
// sharing a keystore can't race on a stale frontier.
type Account struct {
	wallet *Wallet

	index          uint32
	Account        blockgraph.Account
	priv           [64]byte
	Representative blockgraph.Account
}

func (a *Account) Index() uint32 { return a.index }

func (a *Account) sign(b *blockgraph.Block) {
	b.Kind = blockgraph.KindState
	b.Signature = a.wallet.Crypto.Sign(a.priv, b.Hash())
}

// BuildSend constructs a signed state "send" block moving amount from
// this account to destination. The caller submits the returned block
// through ledger.Ledger.Process (or bootstrap.Ingest) the same as any
// other incoming block; Account does not process blocks itself.
func (a *Account) BuildSend(tx *store.Tx, l *ledger.Ledger, destination blockgraph.Account, amount blockgraph.Amount) (*blockgraph.Block, error) {
	info, _, err := l.Account(tx, a.Account)
	if err != nil {
		return nil, err
	}
	newBalance, underflow := info.Balance.Sub(amount)
	if underflow {
		return nil, ErrInsufficientFunds
	}
	rep := info.Representative
	if rep.IsZero() {
		rep = a.Representative
	}
	b := &blockgraph.Block{
		StateAccount:   a.Account,
		Previous:       info.Head,
		Representative: rep,
		StateBalance:   newBalance,
		Link:           blockgraph.Hash(destination),
	}
	a.sign(b)
	return b, nil
}

// BuildReceive constructs a signed state block that pockets the
// pending amount created by sendHash, opening the account if it has
// no prior history.
func (a *Account) BuildReceive(tx *store.Tx, l *ledger.Ledger, sendHash blockgraph.Hash) (*blockgraph.Block, error) {
	info, exists, err := l.Account(tx, a.Account)
	if err != nil {
		return nil, err
	}
	pending, err := tx.GetPending(a.Account, sendHash)
	if err != nil {
		return nil, err
	}
	newBalance, overflow := info.Balance.Add(pending.Amount)
	if overflow {
		return nil, errors.New("walletsrc: receive would overflow balance")
	}
	rep := info.Representative
	if !exists || rep.IsZero() {
		rep = a.Representative
	}
	b := &blockgraph.Block{
		StateAccount:   a.Account,
		Previous:       info.Head,
		Representative: rep,
		StateBalance:   newBalance,
		Link:           sendHash,
	}
	a.sign(b)
	return b, nil
}

// BuildChange constructs a signed state block that only changes the
// account's representative, leaving its balance untouched (Link zero,
// per the state-block "same balance" dispatch in ledger.Process).
func (a *Account) BuildChange(tx *store.Tx, l *ledger.Ledger, representative blockgraph.Account) (*blockgraph.Block, error) {
	info, _, err := l.Account(tx, a.Account)
	if err != nil {
		return nil, err
	}
	b := &blockgraph.Block{
		StateAccount:   a.Account,
		Previous:       info.Head,
		Representative: representative,
		StateBalance:   info.Balance,
		Link:           blockgraph.Hash{},
	}
	a.sign(b)
	return b, nil
}
