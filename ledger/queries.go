package ledger

import (
	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/store"
)

// Balance returns an account's current balance by reading its head
// record — spec §4.3: "amount/balance queries walk at most one
// block: they read sidebanded balance when present, else the account
// head." Every committed block's balance already lives in the
// account record, so this never walks the chain itself.
func (l *Ledger) Balance(tx *store.Tx, account blockgraph.Account) (blockgraph.Amount, error) {
	rec, err := tx.GetAccount(account)
	if err != nil {
		if store.IsNotFound(err) {
			return blockgraph.Amount{}, nil
		}
		return blockgraph.Amount{}, err
	}
	return rec.Balance, nil
}

// Weight returns a representative's current delegated voting weight,
// with the bootstrap-weight override applied while ledgerHeight is
// still below BootstrapWeightHeight (spec §4.3's hard-coded checkpoint
// table, dropped permanently once the real height passes it).
func (l *Ledger) Weight(tx *store.Tx, rep blockgraph.Account, ledgerHeight uint64) (blockgraph.Amount, error) {
	if ledgerHeight < l.BootstrapWeightHeight {
		if w, ok := l.BootstrapWeights[rep]; ok {
			return w, nil
		}
	}
	return tx.GetRepresentationWeight(rep)
}

// AccountInfo is a read-only snapshot of an account record, exposed
// to election/bootstrap/wallet callers that need more than the bare
// balance.
type AccountInfo struct {
	Head            blockgraph.Hash
	Representative  blockgraph.Account
	Open            blockgraph.Hash
	Balance         blockgraph.Amount
	BlockCount      uint64
	ConfirmedHeight uint64
	Epoch           blockgraph.Epoch
}

// Account returns the account's current record, or the zero value and
// false if the account does not exist.
func (l *Ledger) Account(tx *store.Tx, account blockgraph.Account) (AccountInfo, bool, error) {
	rec, err := tx.GetAccount(account)
	if err != nil {
		if store.IsNotFound(err) {
			return AccountInfo{}, false, nil
		}
		return AccountInfo{}, false, err
	}
	return AccountInfo{
		Head:            rec.Head,
		Representative:  rec.Representative,
		Open:            rec.Open,
		Balance:         rec.Balance,
		BlockCount:      rec.BlockCount,
		ConfirmedHeight: rec.ConfirmedHeight,
		Epoch:           rec.Epoch,
	}, true, nil
}

// SetConfirmedHeight advances an account's stored confirmation
// height; a height at or below the stored one leaves it unchanged.
// Supplemented feature (SPEC_FULL §3). The election package does not
// call it, and Balance and Weight do not read ConfirmedHeight.
func (l *Ledger) SetConfirmedHeight(tx *store.Tx, account blockgraph.Account, height uint64) error {
	rec, err := tx.GetAccount(account)
	if err != nil {
		return err
	}
	if height <= rec.ConfirmedHeight {
		return nil
	}
	rec.ConfirmedHeight = height
	return tx.PutAccount(account, rec)
}
