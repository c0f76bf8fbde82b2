package store

import (
	"errors"
	"fmt"
)

// FaultCode partitions storage failures per spec §4.1/§7: every store
// call either succeeds or reports one of these. Modeled directly on
// the teacher's ErrorCode pattern (consensus/errors.go).
type FaultCode string

const (
	FaultNotFound       FaultCode = "not_found"
	FaultCorrupted      FaultCode = "corrupted"
	FaultAllocation     FaultCode = "allocation"
	FaultBadTransaction FaultCode = "bad_transaction"
)

// Fault is the error type every store method returns. not_found is
// expected and should be checked with IsNotFound; corrupted is fatal
// to the process per spec §7.
type Fault struct {
	Code FaultCode
	Msg  string
	Err  error
}

func (f *Fault) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.Err != nil {
		return fmt.Sprintf("store: %s: %s: %v", f.Code, f.Msg, f.Err)
	}
	return fmt.Sprintf("store: %s: %s", f.Code, f.Msg)
}

func (f *Fault) Unwrap() error { return f.Err }

func faultf(code FaultCode, msg string, err error) error {
	return &Fault{Code: code, Msg: msg, Err: err}
}

// IsNotFound reports whether err is (or wraps) a not_found fault.
func IsNotFound(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code == FaultNotFound
	}
	return false
}

// IsCorrupted reports whether err is (or wraps) a corrupted fault —
// per spec §7, the caller must treat this as fatal to the process.
func IsCorrupted(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code == FaultCorrupted
	}
	return false
}
