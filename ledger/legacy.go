package ledger

import (
	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/store"
)

// processLegacy handles send/receive/open/change, sharing the same
// gap/fork/signature checks as processState but resolving the owning
// account from the frontiers/sideband index rather than an in-band
// account field, since only open blocks carry one. Per spec §4.3,
// "legacy block processing uses the same skeleton with
// variant-specific predicates."
func (l *Ledger) processLegacy(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	switch b.Kind {
	case blockgraph.KindOpen:
		return l.processOpen(tx, b)
	case blockgraph.KindSend:
		return l.processSend(tx, b)
	case blockgraph.KindReceive:
		return l.processReceive(tx, b)
	case blockgraph.KindChange:
		return l.processChange(tx, b)
	default:
		return ResultInvalid, nil
	}
}

// resolveLegacyAccount finds which account a non-open legacy block
// belongs to by following its previous block's sideband, which every
// committed block (legacy or state) carries.
func resolveLegacyAccount(tx *store.Tx, previous blockgraph.Hash) (blockgraph.Account, error) {
	sb, err := tx.GetSideband(previous)
	if err != nil {
		return blockgraph.Account{}, err
	}
	return sb.Account, nil
}

func (l *Ledger) processOpen(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	if b.Account.IsZero() {
		return ResultOpenedBurnAccount, nil
	}
	if _, err := tx.GetAccount(b.Account); err == nil {
		return ResultFork, nil
	} else if !store.IsNotFound(err) {
		return ResultInvalid, err
	}

	if _, _, err := tx.GetBlockBytes(b.SourceHash); err != nil {
		if store.IsNotFound(err) {
			return ResultGapSource, nil
		}
		return ResultInvalid, err
	}
	sendAccount, sendInfo, found, err := findLegacyPending(tx, b.Account, b.SourceHash)
	if err != nil {
		return ResultInvalid, err
	}
	if !found {
		return ResultUnreceivable, nil
	}

	hash := b.Hash()
	if !l.Crypto.Verify(b.Account, hash, b.Signature) {
		return ResultBadSignature, nil
	}

	if err := tx.DeletePending(b.Account, b.SourceHash); err != nil {
		return ResultInvalid, err
	}
	_ = sendAccount

	raw, err := b.Serialize()
	if err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutBlockBytes(store.BlockKindOpen, hash, raw); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutFrontier(b.Account, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutSideband(hash, store.Sideband{Account: b.Account, Height: 1, Epoch: sendInfo.Epoch}); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutAccount(b.Account, store.AccountRecord{
		Head:           hash,
		Representative: b.Representative,
		Open:           hash,
		Balance:        sendInfo.Amount,
		Modified:       uint64(l.now().Unix()),
		BlockCount:     1,
		Epoch:          sendInfo.Epoch,
	}); err != nil {
		return ResultInvalid, err
	}
	if err := moveWeight(tx, blockgraph.Account{}, blockgraph.Amount{}, b.Representative, sendInfo.Amount); err != nil {
		return ResultInvalid, err
	}
	if err := UpdateChecksum(tx, b.Account, blockgraph.Hash{}, hash); err != nil {
		return ResultInvalid, err
	}
	return l.drainUnchecked(tx, hash)
}

// findLegacyPending looks up the pending entry a legacy open/receive
// consumes. Legacy pending keys share the same (destination,
// send-hash) schema as state-block pending entries (spec §4.3's
// migration note: "re-keying pending from (hash)->(dest,hash)").
func findLegacyPending(tx *store.Tx, destination blockgraph.Account, sendHash blockgraph.Hash) (blockgraph.Account, store.PendingInfo, bool, error) {
	info, err := tx.GetPending(destination, sendHash)
	if err != nil {
		if store.IsNotFound(err) {
			return blockgraph.Account{}, store.PendingInfo{}, false, nil
		}
		return blockgraph.Account{}, store.PendingInfo{}, false, err
	}
	return info.Source, info, true, nil
}

func (l *Ledger) processSend(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	if _, _, err := tx.GetBlockBytes(b.Previous); err != nil {
		if store.IsNotFound(err) {
			return ResultGapPrevious, nil
		}
		return ResultInvalid, err
	}
	account, err := resolveLegacyAccount(tx, b.Previous)
	if err != nil {
		return ResultInvalid, err
	}
	rec, err := tx.GetAccount(account)
	if err != nil {
		return ResultInvalid, err
	}
	if b.Previous != rec.Head {
		return ResultFork, nil
	}
	hash := b.Hash()
	if !l.Crypto.Verify(account, hash, b.Signature) {
		return ResultBadSignature, nil
	}
	delta, underflow := rec.Balance.Sub(b.Balance)
	if underflow {
		return ResultNegativeSpend, nil
	}
	if b.LegacyDestination.IsZero() {
		return ResultOpenedBurnAccount, nil
	}

	raw, err := b.Serialize()
	if err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutBlockBytes(store.BlockKindSend, hash, raw); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutFrontier(account, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutSideband(hash, store.Sideband{Account: account, Height: rec.BlockCount + 1, Epoch: rec.Epoch}); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutPending(b.LegacyDestination, hash, store.PendingInfo{Source: account, Amount: delta, Epoch: rec.Epoch}); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutAccount(account, store.AccountRecord{
		Head: hash, Representative: rec.Representative, Open: rec.Open,
		Balance: b.Balance, Modified: uint64(l.now().Unix()), BlockCount: rec.BlockCount + 1, Epoch: rec.Epoch,
	}); err != nil {
		return ResultInvalid, err
	}
	if err := moveWeight(tx, rec.Representative, rec.Balance, rec.Representative, b.Balance); err != nil {
		return ResultInvalid, err
	}
	if err := UpdateChecksum(tx, account, b.Previous, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.DeleteFrontier(b.Previous); err != nil {
		return ResultInvalid, err
	}
	return l.drainUnchecked(tx, hash)
}

func (l *Ledger) processReceive(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	if _, _, err := tx.GetBlockBytes(b.Previous); err != nil {
		if store.IsNotFound(err) {
			return ResultGapPrevious, nil
		}
		return ResultInvalid, err
	}
	account, err := resolveLegacyAccount(tx, b.Previous)
	if err != nil {
		return ResultInvalid, err
	}
	rec, err := tx.GetAccount(account)
	if err != nil {
		return ResultInvalid, err
	}
	if b.Previous != rec.Head {
		return ResultFork, nil
	}
	if _, _, err := tx.GetBlockBytes(b.SourceHash); err != nil {
		if store.IsNotFound(err) {
			return ResultGapSource, nil
		}
		return ResultInvalid, err
	}
	pending, err := tx.GetPending(account, b.SourceHash)
	if err != nil {
		if store.IsNotFound(err) {
			return ResultUnreceivable, nil
		}
		return ResultInvalid, err
	}
	hash := b.Hash()
	if !l.Crypto.Verify(account, hash, b.Signature) {
		return ResultBadSignature, nil
	}
	newBalance, overflow := rec.Balance.Add(pending.Amount)
	if overflow {
		return ResultBalanceMismatch, nil
	}
	if err := tx.DeletePending(account, b.SourceHash); err != nil {
		return ResultInvalid, err
	}
	epoch := rec.Epoch
	if pending.Epoch > epoch {
		epoch = pending.Epoch
	}

	raw, err := b.Serialize()
	if err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutBlockBytes(store.BlockKindReceive, hash, raw); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutFrontier(account, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutSideband(hash, store.Sideband{Account: account, Height: rec.BlockCount + 1, Epoch: epoch}); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutAccount(account, store.AccountRecord{
		Head: hash, Representative: rec.Representative, Open: rec.Open,
		Balance: newBalance, Modified: uint64(l.now().Unix()), BlockCount: rec.BlockCount + 1, Epoch: epoch,
	}); err != nil {
		return ResultInvalid, err
	}
	if err := moveWeight(tx, rec.Representative, rec.Balance, rec.Representative, newBalance); err != nil {
		return ResultInvalid, err
	}
	if err := UpdateChecksum(tx, account, b.Previous, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.DeleteFrontier(b.Previous); err != nil {
		return ResultInvalid, err
	}
	return l.drainUnchecked(tx, hash)
}

func (l *Ledger) processChange(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	if _, _, err := tx.GetBlockBytes(b.Previous); err != nil {
		if store.IsNotFound(err) {
			return ResultGapPrevious, nil
		}
		return ResultInvalid, err
	}
	account, err := resolveLegacyAccount(tx, b.Previous)
	if err != nil {
		return ResultInvalid, err
	}
	rec, err := tx.GetAccount(account)
	if err != nil {
		return ResultInvalid, err
	}
	if b.Previous != rec.Head {
		return ResultFork, nil
	}
	hash := b.Hash()
	if !l.Crypto.Verify(account, hash, b.Signature) {
		return ResultBadSignature, nil
	}

	raw, err := b.Serialize()
	if err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutBlockBytes(store.BlockKindChange, hash, raw); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutFrontier(account, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutSideband(hash, store.Sideband{Account: account, Height: rec.BlockCount + 1, Epoch: rec.Epoch}); err != nil {
		return ResultInvalid, err
	}
	if err := tx.PutAccount(account, store.AccountRecord{
		Head: hash, Representative: b.Representative, Open: rec.Open,
		Balance: rec.Balance, Modified: uint64(l.now().Unix()), BlockCount: rec.BlockCount + 1, Epoch: rec.Epoch,
	}); err != nil {
		return ResultInvalid, err
	}
	if err := moveWeight(tx, rec.Representative, rec.Balance, b.Representative, rec.Balance); err != nil {
		return ResultInvalid, err
	}
	if err := UpdateChecksum(tx, account, b.Previous, hash); err != nil {
		return ResultInvalid, err
	}
	if err := tx.DeleteFrontier(b.Previous); err != nil {
		return ResultInvalid, err
	}
	return l.drainUnchecked(tx, hash)
}

// drainUnchecked re-submits every block waiting on hash, shared by
// both the state and legacy commit paths.
func (l *Ledger) drainUnchecked(tx *store.Tx, hash blockgraph.Hash) (Result, error) {
	entries, err := tx.TakeUnchecked(hash)
	if err != nil {
		return ResultInvalid, err
	}
	for _, e := range entries {
		nb, perr := blockgraph.Parse(blockKindToGraph(e.Kind), e.Raw)
		if perr != nil {
			continue
		}
		if _, err := l.Process(tx, nb); err != nil {
			return ResultInvalid, err
		}
	}
	return ResultProgress, nil
}
