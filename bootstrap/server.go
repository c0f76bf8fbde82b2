package bootstrap

import (
	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/store"
)

// ServeFrontiers answers one frontier-request (spec §4.5) by invoking
// emit for each (account, head) pair in account order, starting at
// req.StartAccount, skipping accounts last modified more than
// req.MaxAge seconds before now, and stopping after req.MaxCount
// entries (0 means unbounded). emit returning an error aborts the
// stream (e.g. a write failure on the underlying connection); the
// caller is responsible for sending the FrontierTerminator after
// ServeFrontiers returns successfully.
func ServeFrontiers(tx *store.Tx, req FrontierRequest, now uint64, emit func(FrontierEntry) error) error {
	c := tx.AccountsCursor()
	account, rec, ok := c.BeginAt(req.StartAccount)
	sent := uint32(0)
	for ok {
		if req.MaxCount == 0 || sent < req.MaxCount {
			if req.MaxAge == 0 || now-rec.Modified <= req.MaxAge {
				if err := emit(FrontierEntry{Account: account, Head: rec.Head}); err != nil {
					return err
				}
				sent++
			}
		} else {
			break
		}
		account, rec, ok = c.Next()
	}
	return nil
}

// ServeBulkBlocks answers one bulk-block-request (spec §4.5): it
// resolves the account owning req.StartHash, refuses (returns
// ErrWrongAccount) if req.EndHash is nonzero and owned by a different
// account, then walks that account's chain from req.StartHash toward
// the account's open block, invoking emit with each block's wire bytes
// and type prefix until req.EndHash is emitted or req.Count blocks
// have been sent (0 means unbounded), after which the caller sends the
// TypeNotABlock terminator.
func ServeBulkBlocks(tx *store.Tx, req BulkBlockRequest, emit func(typ byte, raw []byte) error) error {
	startOwner, err := ownerOfHash(tx, req.StartHash)
	if err != nil {
		return err
	}
	if !req.EndHash.IsZero() {
		endOwner, err := ownerOfHash(tx, req.EndHash)
		if err != nil {
			return err
		}
		if endOwner != startOwner {
			return ErrWrongAccount
		}
	}

	cur := req.StartHash
	sent := uint32(0)
	for !cur.IsZero() {
		if req.Count != 0 && sent >= req.Count {
			break
		}
		raw, kind, err := tx.GetBlockBytes(cur)
		if err != nil {
			return err
		}
		typ := kindToTypeFromStore(kind)
		if err := emit(typ, raw); err != nil {
			return err
		}
		sent++
		if cur == req.EndHash {
			return nil
		}
		b, perr := blockgraph.Parse(typeToGraphFromStore(kind), raw)
		if perr != nil {
			return perr
		}
		cur = predecessorHash(b)
	}
	return nil
}

// predecessorHash returns the hash of the block immediately before b
// in its account's chain, or the zero hash if b is the first block
// (an open block, or a state block with a zero Previous). Block.Root
// is not reused here: it answers a different question (the election
// slot identifier, which for an open block is the account itself, not
// a predecessor hash).
func predecessorHash(b *blockgraph.Block) blockgraph.Hash {
	if b.Kind == blockgraph.KindOpen {
		return blockgraph.Hash{}
	}
	return b.Previous
}

func kindToTypeFromStore(kind byte) byte {
	switch kind {
	case store.BlockKindSend:
		return TypeSend
	case store.BlockKindReceive:
		return TypeReceive
	case store.BlockKindOpen:
		return TypeOpen
	case store.BlockKindChange:
		return TypeChange
	case store.BlockKindState:
		return TypeState
	default:
		return TypeNotABlock
	}
}

func typeToGraphFromStore(kind byte) blockgraph.Kind {
	switch kind {
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

// ownerOfHash resolves which account a block belongs to, the same way
// ledger.Rollback does: an in-band account field when the block
// carries one (state, legacy open), else the owning account recorded
// in its sideband.
func ownerOfHash(tx *store.Tx, hash blockgraph.Hash) (blockgraph.Account, error) {
	raw, kind, err := tx.GetBlockBytes(hash)
	if err != nil {
		return blockgraph.Account{}, err
	}
	b, perr := blockgraph.Parse(typeToGraphFromStore(kind), raw)
	if perr != nil {
		return blockgraph.Account{}, perr
	}
	if a := b.AccountOf(); !a.IsZero() {
		return a, nil
	}
	sb, err := tx.GetSideband(hash)
	if err != nil {
		return blockgraph.Account{}, err
	}
	return sb.Account, nil
}
