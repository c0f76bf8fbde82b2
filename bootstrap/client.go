package bootstrap

import (
	"context"

	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

// Divergence is one account whose remote frontier differs from the
// local one, produced by DiffFrontiers.
type Divergence struct {
	Account    blockgraph.Account
	LocalHead  blockgraph.Hash
	RemoteHead blockgraph.Hash
}

// DiffFrontiers compares locally stored frontiers against a stream of
// remote (account, head) pairs and returns every account whose heads
// disagree — including accounts the remote has but the local store
// does not (LocalHead left zero) and vice versa is not reported, since
// a frontier the remote never sent cannot be reconciled from this
// side (spec §4.5: "the client compares received frontiers with local
// frontiers; for each divergence it issues a bulk-block pull").
func DiffFrontiers(tx *store.Tx, remote []FrontierEntry) ([]Divergence, error) {
	var diffs []Divergence
	for _, entry := range remote {
		if entry.IsTerminator() {
			break
		}
		rec, err := tx.GetAccount(entry.Account)
		if err != nil {
			if store.IsNotFound(err) {
				diffs = append(diffs, Divergence{Account: entry.Account, RemoteHead: entry.Head})
				continue
			}
			return nil, err
		}
		if rec.Head != entry.Head {
			diffs = append(diffs, Divergence{Account: entry.Account, LocalHead: rec.Head, RemoteHead: entry.Head})
		}
	}
	return diffs, nil
}

// BulkRequestFor builds the bulk-block-request that pulls a
// divergence's missing history: start at the remote's head (the
// newest block the client doesn't have) and walk back to the client's
// current local head (inclusive — end_hash is already held locally,
// but the server's walk still emits it as its last block, matching
// spec §4.5's "until end_hash is emitted").
func BulkRequestFor(d Divergence) BulkBlockRequest {
	return BulkBlockRequest{StartHash: d.RemoteHead, EndHash: d.LocalHead}
}

// VerifyConvergedChecksum recomputes the local digest for account's
// checksum region and compares it against remote, the digest the
// peer reported for the same region (e.g. via a ChecksumResponse).
// Spec.md §8 scenario 5 asserts exactly this equality once a bulk sync
// completes ("B.checksum = A.checksum"); this is the operation that
// makes that assertion checkable rather than just stated.
func VerifyConvergedChecksum(tx *store.Tx, account blockgraph.Account, remote blockgraph.Hash) (bool, error) {
	local, _, err := ledger.VerifyChecksum(tx, ledger.RegionOf(account))
	if err != nil {
		return false, err
	}
	return local == remote, nil
}

// SyncDivergence drives one divergence to convergence: it replays the
// remote's bulk-block stream through Ingest via ReconcileBulkResponse,
// then — if remoteChecksum is non-zero, meaning the caller actually
// has a peer-reported digest to compare against (callers with no
// checksum exchange in their transport pass the zero hash to skip the
// check) — verifies the account's checksum region converged to match
// it, returning ErrChecksumMismatch if not.
func SyncDivergence(ctx context.Context, tx *store.Tx, l *ledger.Ledger, d Divergence, remoteChecksum blockgraph.Hash, recv func(ctx context.Context) (typ byte, raw []byte, ok bool, err error)) error {
	if err := ReconcileBulkResponse(ctx, tx, l, recv); err != nil {
		return err
	}
	if remoteChecksum.IsZero() {
		return nil
	}
	ok, err := VerifyConvergedChecksum(tx, d.Account, remoteChecksum)
	if err != nil {
		return err
	}
	if !ok {
		return ErrChecksumMismatch
	}
	return nil
}

// ReconcileBulkResponse feeds every block streamed for one bulk
// request through Ingest, stopping at the TypeNotABlock terminator.
// recv is called once per wire message on the connection; it returns
// the type prefix and raw block bytes, or ok=false once the terminator
// has been read.
func ReconcileBulkResponse(ctx context.Context, tx *store.Tx, l *ledger.Ledger, recv func(ctx context.Context) (typ byte, raw []byte, ok bool, err error)) error {
	for {
		typ, raw, ok, err := recv(ctx)
		if err != nil {
			return err
		}
		if !ok || typ == TypeNotABlock {
			return nil
		}
		if _, err := Ingest(tx, l, typ, raw); err != nil {
			return err
		}
	}
}
