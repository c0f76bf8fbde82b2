package ledger

import (
	"errors"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/store"
)

// Rollback undoes blocks back through and including the block at
// hash, so that hash is no longer reachable from any account's head.
// Per spec §4.3: "given a hash H of an account's head, produce a
// minimal set of blocks to undo so that H is no longer in the chain."
// Descendants of hash on the same account chain are undone first,
// newest to oldest; hash itself is undone last. The whole operation
// runs inside tx and is atomic with it.
//
// Cross-account cascade (a send whose destination already received
// it) is handled when the caller still holds the consuming block's
// hash — RollbackReceive below — since the store has no reverse index
// from a send hash to the block that consumed its pending entry. A
// fully automatic cascade would require walking the destination
// account's entire history looking for a block whose source/link
// equals the send hash; that is the one piece of spec §4.3's rollback
// left as an open implementation choice, noted in DESIGN.md.
func (l *Ledger) Rollback(tx *store.Tx, hash blockgraph.Hash) error {
	raw, kind, err := tx.GetBlockBytes(hash)
	if err != nil {
		return err
	}
	b, perr := blockgraph.Parse(blockKindToGraph(kind), raw)
	if perr != nil {
		return perr
	}
	account, err := ownerOf(tx, b, hash)
	if err != nil {
		return err
	}
	rec, err := tx.GetAccount(account)
	if err != nil {
		return err
	}

	cur := rec.Head
	for cur != hash {
		if err := l.rollbackOne(tx, cur); err != nil {
			return err
		}
		rec, err = tx.GetAccount(account)
		if err != nil {
			return err
		}
		if rec.Head == cur {
			return errors.New("ledger: rollback: head did not advance")
		}
		cur = rec.Head
	}
	return l.rollbackOne(tx, hash)
}

// RollbackReceive undoes receiveHash (a receive/open/state-receive
// block) and then re-files its pending entry, used by the caller
// before rolling back the send it consumed — spec §4.3's "cascading:
// if the destination has already received, roll that back first."
func (l *Ledger) RollbackReceive(tx *store.Tx, receiveHash blockgraph.Hash) error {
	return l.Rollback(tx, receiveHash)
}

func ownerOf(tx *store.Tx, b *blockgraph.Block, hash blockgraph.Hash) (blockgraph.Account, error) {
	if a := b.AccountOf(); !a.IsZero() {
		return a, nil
	}
	sb, err := tx.GetSideband(hash)
	if err != nil {
		return blockgraph.Account{}, err
	}
	return sb.Account, nil
}

// rollbackOne undoes exactly one block, which must currently be its
// account's head, restoring the account record and representation
// weight to what they were before it was applied.
func (l *Ledger) rollbackOne(tx *store.Tx, hash blockgraph.Hash) error {
	raw, kind, err := tx.GetBlockBytes(hash)
	if err != nil {
		return err
	}
	b, perr := blockgraph.Parse(blockKindToGraph(kind), raw)
	if perr != nil {
		return perr
	}
	account, err := ownerOf(tx, b, hash)
	if err != nil {
		return err
	}
	rec, err := tx.GetAccount(account)
	if err != nil {
		return err
	}
	if rec.Head != hash {
		return errors.New("ledger: rollback: not the account head")
	}

	if err := undoPendingEffect(tx, b, account, hash, rec); err != nil {
		return err
	}

	if err := tx.DeleteBlockBytes(kind, hash); err != nil {
		return err
	}
	if err := tx.DeleteSideband(hash); err != nil {
		return err
	}
	if b.Kind != blockgraph.KindState {
		if err := tx.DeleteFrontier(hash); err != nil {
			return err
		}
	}

	prevHash := b.Root()
	if b.Kind == blockgraph.KindOpen || prevHash.IsZero() {
		if err := moveWeight(tx, rec.Representative, rec.Balance, blockgraph.Account{}, blockgraph.Amount{}); err != nil {
			return err
		}
		region := RegionOf(account)
		digest, _, err := tx.GetChecksumRegion(region)
		if err != nil {
			return err
		}
		if err := tx.PutChecksumRegion(region, xorHash(digest, checksumContribution(account, hash))); err != nil {
			return err
		}
		return tx.DeleteAccount(account)
	}

	prevRaw, prevKind, err := tx.GetBlockBytes(prevHash)
	if err != nil {
		return err
	}
	prevBlock, perr := blockgraph.Parse(blockKindToGraph(prevKind), prevRaw)
	if perr != nil {
		return perr
	}
	restored, err := l.recordBeforeSuccessor(tx, account, prevBlock, prevHash)
	if err != nil {
		return err
	}
	if err := tx.PutAccount(account, restored); err != nil {
		return err
	}
	if err := UpdateChecksum(tx, account, hash, prevHash); err != nil {
		return err
	}
	if b.Kind != blockgraph.KindState {
		if err := tx.PutFrontier(account, prevHash); err != nil {
			return err
		}
	}
	if sb, err := tx.GetSideband(prevHash); err == nil {
		sb.Successor = blockgraph.Hash{}
		if err := tx.PutSideband(prevHash, sb); err != nil {
			return err
		}
	}
	return moveWeight(tx, rec.Representative, rec.Balance, restored.Representative, restored.Balance)
}

// undoPendingEffect reverses whatever pending-table effect applying b
// had: a send deletes the pending entry it created (the destination
// must not have consumed it yet — callers are responsible for rolling
// back the consuming receive first, per RollbackReceive); a
// receive/open/state-receive re-creates the pending entry it consumed.
func undoPendingEffect(tx *store.Tx, b *blockgraph.Block, account blockgraph.Account, hash blockgraph.Hash, rec store.AccountRecord) error {
	switch b.Kind {
	case blockgraph.KindSend:
		return tx.DeletePending(b.LegacyDestination, hash)
	case blockgraph.KindReceive:
		return recreatePending(tx, account, b.SourceHash)
	case blockgraph.KindOpen:
		return recreatePending(tx, account, b.SourceHash)
	case blockgraph.KindState:
		prevBalance, err := predecessorBalance(tx, b)
		if err != nil {
			return err
		}
		switch b.StateBalance.Cmp(prevBalance) {
		case -1:
			return tx.DeletePending(blockgraph.Account(b.Link), hash)
		case 1:
			return recreatePending(tx, account, b.Link)
		}
	}
	return nil
}

func recreatePending(tx *store.Tx, destination blockgraph.Account, sendHash blockgraph.Hash) error {
	raw, kind, err := tx.GetBlockBytes(sendHash)
	if err != nil {
		return err
	}
	send, perr := blockgraph.Parse(blockKindToGraph(kind), raw)
	if perr != nil {
		return perr
	}
	sourceAccount, amount, err := sendSourceAndAmount(tx, send, sendHash)
	if err != nil {
		return err
	}
	epoch := blockgraph.Epoch0
	if rec, err := tx.GetAccount(sourceAccount); err == nil {
		epoch = rec.Epoch
	}
	return tx.PutPending(destination, sendHash, store.PendingInfo{Source: sourceAccount, Amount: amount, Epoch: epoch})
}

func sendSourceAndAmount(tx *store.Tx, send *blockgraph.Block, sendHash blockgraph.Hash) (blockgraph.Account, blockgraph.Amount, error) {
	sb, err := tx.GetSideband(sendHash)
	if err != nil {
		return blockgraph.Account{}, blockgraph.Amount{}, err
	}
	prevBalance, err := predecessorBalance(tx, send)
	if err != nil {
		return blockgraph.Account{}, blockgraph.Amount{}, err
	}
	var balance blockgraph.Amount
	if b, ok := send.BalanceOf(); ok {
		balance = b
	}
	amount, _ := prevBalance.Sub(balance)
	return sb.Account, amount, nil
}

// predecessorBalance returns the balance in effect immediately before
// b was applied: its predecessor's balance, or zero if b has none
// (an open/first-state-block).
func predecessorBalance(tx *store.Tx, b *blockgraph.Block) (blockgraph.Amount, error) {
	prevHash := b.Root()
	if b.Kind == blockgraph.KindOpen || prevHash.IsZero() {
		return blockgraph.Amount{}, nil
	}
	raw, kind, err := tx.GetBlockBytes(prevHash)
	if err != nil {
		return blockgraph.Amount{}, err
	}
	prevBlock, perr := blockgraph.Parse(blockKindToGraph(kind), raw)
	if perr != nil {
		return blockgraph.Amount{}, perr
	}
	if balance, ok := prevBlock.BalanceOf(); ok {
		return balance, nil
	}
	// Legacy open/receive/change carry no in-band balance; the only
	// place it lives is the account record, which at rollback time
	// still reflects state through the predecessor (we have not yet
	// overwritten it).
	account, err := ownerOf(tx, prevBlock, prevHash)
	if err != nil {
		return blockgraph.Amount{}, err
	}
	rec, err := tx.GetAccount(account)
	if err != nil {
		return blockgraph.Amount{}, err
	}
	return rec.Balance, nil
}

// recordBeforeSuccessor rebuilds the account record as it stood right
// after prevBlock (the block now becoming head again), covering both
// state blocks (fully self-describing) and legacy blocks (balance
// recovered via predecessorBalance, representative carried forward
// except on change/open which set it in-band).
func (l *Ledger) recordBeforeSuccessor(tx *store.Tx, account blockgraph.Account, prevBlock *blockgraph.Block, prevHash blockgraph.Hash) (store.AccountRecord, error) {
	sb, err := tx.GetSideband(prevHash)
	if err != nil {
		return store.AccountRecord{}, err
	}
	cur, err := tx.GetAccount(account)
	if err != nil {
		return store.AccountRecord{}, err
	}

	balance := cur.Balance
	if b, ok := prevBlock.BalanceOf(); ok {
		balance = b
	}
	rep := cur.Representative
	if prevBlock.Kind == blockgraph.KindState || prevBlock.Kind == blockgraph.KindChange || prevBlock.Kind == blockgraph.KindOpen {
		rep = prevBlock.Representative
	}
	open := cur.Open
	// sb.Epoch is the epoch stamped when prevBlock itself committed, not
	// cur.Epoch which may already reflect a later receive's epoch bump.
	epoch := sb.Epoch
	if prevBlock.Kind == blockgraph.KindOpen {
		open = prevHash
	}

	return store.AccountRecord{
		Head:           prevHash,
		Representative: rep,
		Open:           open,
		Balance:        balance,
		BlockCount:     sb.Height,
		Epoch:          epoch,
	}, nil
}
