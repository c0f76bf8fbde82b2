package ledger

import (
	"time"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/cryptoprovider"
	"nanoforge.dev/node/store"
)

// Ledger is the validation entrypoint: Process consumes one block and
// a write transaction and returns a Result, mutating the store only
// on ResultProgress. Grounded on original_source's ledger object,
// which bundles the same three collaborators (store environment,
// crypto provider, epoch table) behind one process_state/process_open
// dispatch.
type Ledger struct {
	Crypto cryptoprovider.Provider
	Epochs EpochTable

	// BootstrapWeights overrides representation weight for the first
	// BootstrapWeightHeight blocks of ledger history, per spec §4.3's
	// "built-in bootstrap-weight table...dropped once height exceeds
	// the checkpoint." Supplemented feature: lets a new node trust a
	// small hard-coded weight snapshot while still syncing the real
	// representation table from genesis.
	BootstrapWeights     map[blockgraph.Account]blockgraph.Amount
	BootstrapWeightHeight uint64

	// Now stamps AccountRecord.Modified on every commit (spec §3's
	// "last-modified time", consulted by bootstrap/server.go's
	// MaxAge frontier filter). A field rather than a parameter
	// threaded through Process, matching the teacher's own
	// package-level nowUnix override in cmd/rubin-node/main.go so
	// tests can pin the clock without changing every call site.
	Now func() time.Time
}

func New(crypto cryptoprovider.Provider, epochs EpochTable) *Ledger {
	return &Ledger{Crypto: crypto, Epochs: epochs, Now: time.Now}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// Process validates and, on success, applies block inside tx. It
// never returns a Go error for a validation failure — only for store
// faults (corruption, allocation) that abort the surrounding
// transaction. Process does not check proof-of-work, and the result
// enum has no "bad work" member. No caller in this module, including
// bootstrap.Ingest, calls blockgraph.CheckWork before Process.
func (l *Ledger) Process(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	if _, _, err := tx.GetBlockBytes(b.Hash()); err == nil {
		return ResultOld, nil
	} else if !store.IsNotFound(err) {
		return ResultInvalid, err
	}

	switch b.Kind {
	case blockgraph.KindState:
		return l.processState(tx, b)
	default:
		return l.processLegacy(tx, b)
	}
}

// processState implements spec §4.3's state-block algorithm.
func (l *Ledger) processState(tx *store.Tx, b *blockgraph.Block) (Result, error) {
	account := b.StateAccount
	if account.IsZero() {
		return ResultOpenedBurnAccount, nil
	}

	if !b.Previous.IsZero() {
		if _, _, err := tx.GetBlockBytes(b.Previous); err != nil {
			if store.IsNotFound(err) {
				return ResultGapPrevious, nil
			}
			return ResultInvalid, err
		}
	}

	rec, err := tx.GetAccount(account)
	hasAccount := true
	if err != nil {
		if !store.IsNotFound(err) {
			return ResultInvalid, err
		}
		hasAccount = false
	}

	var prevBalance blockgraph.Amount
	if hasAccount {
		prevBalance = rec.Balance
	}

	newEpoch, upgrade, isEpoch := l.Epochs.matchEpoch(rec.Epoch, b.Link)
	isEpoch = isEpoch && b.StateBalance.Cmp(prevBalance) == 0

	signer := account
	if isEpoch {
		signer = upgrade.Signer
	}
	hash := b.Hash()
	if !l.Crypto.Verify(signer, hash, b.Signature) {
		return ResultBadSignature, nil
	}

	if !hasAccount {
		if !b.Previous.IsZero() || b.Link.IsZero() {
			return ResultGapSource, nil
		}
	} else if b.Previous != rec.Head {
		return ResultFork, nil
	}

	var newRec AccountRecordDelta
	var result Result
	switch b.StateBalance.Cmp(prevBalance) {
	case -1:
		result, newRec, err = l.applyStateSend(tx, account, rec, hasAccount, b, prevBalance)
	case 1:
		result, newRec, err = l.applyStateReceive(tx, account, rec, hasAccount, b, prevBalance)
	default:
		result, newRec, err = l.applyStateSame(account, rec, hasAccount, b, isEpoch, newEpoch)
	}
	if err != nil || result != ResultProgress {
		return result, err
	}

	if err := l.commitState(tx, account, b, newRec); err != nil {
		return ResultInvalid, err
	}
	return ResultProgress, nil
}

// AccountRecordDelta carries the account-record fields a state-block
// subtype computes, before commitState writes them and moves
// representation weight.
type AccountRecordDelta struct {
	Balance        blockgraph.Amount
	Representative blockgraph.Account
	Epoch          blockgraph.Epoch
	Open           blockgraph.Hash
}

func (l *Ledger) applyStateSend(tx *store.Tx, account blockgraph.Account, rec store.AccountRecord, hasAccount bool, b *blockgraph.Block, prevBalance blockgraph.Amount) (Result, AccountRecordDelta, error) {
	if !hasAccount {
		return ResultBlockPosition, AccountRecordDelta{}, nil
	}
	delta, underflow := prevBalance.Sub(b.StateBalance)
	if underflow {
		return ResultNegativeSpend, AccountRecordDelta{}, nil
	}
	destination := blockgraph.Account(b.Link)
	if destination.IsZero() {
		return ResultOpenedBurnAccount, AccountRecordDelta{}, nil
	}
	if err := tx.PutPending(destination, b.Hash(), store.PendingInfo{
		Source: account,
		Amount: delta,
		Epoch:  rec.Epoch,
	}); err != nil {
		return ResultInvalid, AccountRecordDelta{}, err
	}
	return ResultProgress, AccountRecordDelta{
		Balance:        b.StateBalance,
		Representative: b.Representative,
		Epoch:          rec.Epoch,
		Open:           accountOpen(rec, hasAccount, b.Hash()),
	}, nil
}

func (l *Ledger) applyStateReceive(tx *store.Tx, account blockgraph.Account, rec store.AccountRecord, hasAccount bool, b *blockgraph.Block, prevBalance blockgraph.Amount) (Result, AccountRecordDelta, error) {
	sendHash := b.Link
	pending, err := tx.GetPending(account, sendHash)
	if err != nil {
		if store.IsNotFound(err) {
			return ResultUnreceivable, AccountRecordDelta{}, nil
		}
		return ResultInvalid, AccountRecordDelta{}, err
	}
	want, overflow := prevBalance.Add(pending.Amount)
	if overflow || want.Cmp(b.StateBalance) != 0 {
		return ResultBalanceMismatch, AccountRecordDelta{}, nil
	}
	if _, _, err := tx.GetBlockBytes(sendHash); err != nil {
		if store.IsNotFound(err) {
			return ResultGapSource, AccountRecordDelta{}, nil
		}
		return ResultInvalid, AccountRecordDelta{}, err
	}
	if err := tx.DeletePending(account, sendHash); err != nil {
		return ResultInvalid, AccountRecordDelta{}, err
	}
	epoch := rec.Epoch
	if pending.Epoch > epoch {
		epoch = pending.Epoch
	}
	return ResultProgress, AccountRecordDelta{
		Balance:        b.StateBalance,
		Representative: b.Representative,
		Epoch:          epoch,
		Open:           accountOpen(rec, hasAccount, b.Hash()),
	}, nil
}

func (l *Ledger) applyStateSame(account blockgraph.Account, rec store.AccountRecord, hasAccount bool, b *blockgraph.Block, isEpoch bool, newEpoch blockgraph.Epoch) (Result, AccountRecordDelta, error) {
	if !hasAccount {
		return ResultBlockPosition, AccountRecordDelta{}, nil
	}
	if isEpoch {
		if b.Representative != rec.Representative {
			return ResultRepresentativeMismatch, AccountRecordDelta{}, nil
		}
		return ResultProgress, AccountRecordDelta{
			Balance:        rec.Balance,
			Representative: rec.Representative,
			Epoch:          newEpoch,
			Open:           rec.Open,
		}, nil
	}
	if b.Representative != rec.Representative {
		return ResultProgress, AccountRecordDelta{
			Balance:        rec.Balance,
			Representative: b.Representative,
			Epoch:          rec.Epoch,
			Open:           rec.Open,
		}, nil
	}
	return ResultBalanceMismatch, AccountRecordDelta{}, nil
}

func accountOpen(rec store.AccountRecord, hasAccount bool, thisHash blockgraph.Hash) blockgraph.Hash {
	if hasAccount {
		return rec.Open
	}
	return thisHash
}

// commitState writes the block, its sideband, the updated account
// record, and moves representation weight (spec §4.3 step 7-8: state
// blocks never touch the frontiers table).
func (l *Ledger) commitState(tx *store.Tx, account blockgraph.Account, b *blockgraph.Block, delta AccountRecordDelta) error {
	var priorBalance blockgraph.Amount
	var priorRep blockgraph.Account
	if rec, err := tx.GetAccount(account); err == nil {
		priorBalance = rec.Balance
		priorRep = rec.Representative
	} else if !store.IsNotFound(err) {
		return err
	}

	hash := b.Hash()
	raw, err := b.Serialize()
	if err != nil {
		return err
	}
	if err := tx.PutBlockBytes(store.BlockKindState, hash, raw); err != nil {
		return err
	}

	blockCount := uint64(1)
	if rec, err := tx.GetAccount(account); err == nil {
		blockCount = rec.BlockCount + 1
	}
	if err := tx.PutAccount(account, store.AccountRecord{
		Head:           hash,
		Representative: delta.Representative,
		Open:           delta.Open,
		Balance:        delta.Balance,
		Modified:       uint64(l.now().Unix()),
		BlockCount:     blockCount,
		Epoch:          delta.Epoch,
	}); err != nil {
		return err
	}

	if err := tx.PutSideband(hash, store.Sideband{Account: account, Height: blockCount, Epoch: delta.Epoch}); err != nil {
		return err
	}
	if !b.Previous.IsZero() {
		if sb, err := tx.GetSideband(b.Previous); err == nil {
			sb.Successor = hash
			if err := tx.PutSideband(b.Previous, sb); err != nil {
				return err
			}
		}
	}

	if err := moveWeight(tx, priorRep, priorBalance, delta.Representative, delta.Balance); err != nil {
		return err
	}
	if err := UpdateChecksum(tx, account, b.Previous, hash); err != nil {
		return err
	}

	entries, err := tx.TakeUnchecked(hash)
	if err != nil {
		return err
	}
	for _, e := range entries {
		nb, perr := blockgraph.Parse(blockKindToGraph(e.Kind), e.Raw)
		if perr != nil {
			continue
		}
		if _, err := l.Process(tx, nb); err != nil {
			return err
		}
	}
	return nil
}

func moveWeight(tx *store.Tx, oldRep blockgraph.Account, oldBalance blockgraph.Amount, newRep blockgraph.Account, newBalance blockgraph.Amount) error {
	if !oldRep.IsZero() {
		w, err := tx.GetRepresentationWeight(oldRep)
		if err != nil {
			return err
		}
		w, _ = w.Sub(oldBalance)
		if err := tx.PutRepresentationWeight(oldRep, w); err != nil {
			return err
		}
	}
	if !newRep.IsZero() {
		w, err := tx.GetRepresentationWeight(newRep)
		if err != nil {
			return err
		}
		w, overflow := w.Add(newBalance)
		if overflow {
			w = blockgraph.Amount{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
		}
		if err := tx.PutRepresentationWeight(newRep, w); err != nil {
			return err
		}
	}
	return nil
}

func blockKindToGraph(k byte) blockgraph.Kind {
	switch k {
	case store.BlockKindSend:
		return blockgraph.KindSend
	case store.BlockKindReceive:
		return blockgraph.KindReceive
	case store.BlockKindOpen:
		return blockgraph.KindOpen
	case store.BlockKindChange:
		return blockgraph.KindChange
	case store.BlockKindState:
		return blockgraph.KindState
	default:
		return blockgraph.KindInvalid
	}
}

func graphKindToStore(k blockgraph.Kind) byte {
	switch k {
	case blockgraph.KindSend:
		return store.BlockKindSend
	case blockgraph.KindReceive:
		return store.BlockKindReceive
	case blockgraph.KindOpen:
		return store.BlockKindOpen
	case blockgraph.KindChange:
		return store.BlockKindChange
	default:
		return store.BlockKindState
	}
}
