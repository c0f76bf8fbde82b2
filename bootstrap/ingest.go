package bootstrap

import (
	"nanoforge.dev/node/blockgraph"
	"nanoforge.dev/node/ledger"
	"nanoforge.dev/node/store"
)

// Ingest feeds one wire-received block into the ledger the same way a
// locally originated block would be, per spec §4.5: "received blocks
// enter the same ledger-process path as locally originated blocks;
// dependency gaps land in the unchecked buffer and are retried when
// their dependency arrives." This is the one call site responsible for
// that insertion — ledger.Process itself never touches the unchecked
// table on a gap result, only drains it on success (see ledger.go's
// commitState and legacy.go's drainUnchecked).
func Ingest(tx *store.Tx, l *ledger.Ledger, typ byte, raw []byte) (ledger.Result, error) {
	kind, ok := TypeToKind(typ)
	if !ok {
		return ledger.ResultInvalid, nil
	}
	b, perr := blockgraph.Parse(kind, raw)
	if perr != nil {
		return ledger.ResultInvalid, nil
	}

	result, err := l.Process(tx, b)
	if err != nil {
		return ledger.ResultInvalid, err
	}

	var dependency blockgraph.Hash
	switch result {
	case ledger.ResultGapPrevious:
		dependency = b.Previous
	case ledger.ResultGapSource:
		dependency = b.Source()
	default:
		return result, nil
	}
	if dependency.IsZero() {
		return result, nil
	}
	if err := tx.PutUnchecked(dependency, KindToType(kind), raw); err != nil {
		return ledger.ResultInvalid, err
	}
	return result, nil
}
