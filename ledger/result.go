// Package ledger implements the block-graph validation state machine:
// Process applies one block against the store, Rollback undoes the
// minimal set required to remove a block from a chain, and a handful
// of read-only queries answer balance/weight questions. Grounded on
// original_source/nano/secure/ledger.cpp's process_state algorithm,
// with the closed-set result type and store wiring modeled on the
// teacher's consensus/errors.go and node/store packages.
package ledger

// Result is the closed set of outcomes Process can return. Exactly one
// of these is produced per call; there is no separate error return for
// validation failures (only for store faults, which propagate as Go
// errors and abort the call).
type Result uint8

const (
	ResultInvalid Result = iota
	ResultProgress
	ResultOld
	ResultBadSignature
	ResultGapPrevious
	ResultGapSource
	ResultFork
	ResultNegativeSpend
	ResultOverspend
	ResultUnreceivable
	ResultNotReceiveFromSend
	ResultOpenedBurnAccount
	ResultBlockPosition
	ResultBalanceMismatch
	ResultRepresentativeMismatch
)

func (r Result) String() string {
	switch r {
	case ResultProgress:
		return "progress"
	case ResultOld:
		return "old"
	case ResultBadSignature:
		return "bad_signature"
	case ResultGapPrevious:
		return "gap_previous"
	case ResultGapSource:
		return "gap_source"
	case ResultFork:
		return "fork"
	case ResultNegativeSpend:
		return "negative_spend"
	case ResultOverspend:
		return "overspend"
	case ResultUnreceivable:
		return "unreceivable"
	case ResultNotReceiveFromSend:
		return "not_receive_from_send"
	case ResultOpenedBurnAccount:
		return "opened_burn_account"
	case ResultBlockPosition:
		return "block_position"
	case ResultBalanceMismatch:
		return "balance_mismatch"
	case ResultRepresentativeMismatch:
		return "representative_mismatch"
	default:
		return "invalid"
	}
}

// Progressed reports whether r represents a successful application.
func (r Result) Progressed() bool { return r == ResultProgress }
