package blockgraph

import "fmt"

// ParseErrorCode partitions block/wire parse failures, mirroring the
// teacher's ErrorCode enum (consensus/errors.go) but scoped to the
// account-chain wire format instead of UTXO transactions.
type ParseErrorCode string

const (
	ErrParseTooShort       ParseErrorCode = "BLOCK_ERR_PARSE_TOO_SHORT"
	ErrParseTrailingBytes  ParseErrorCode = "BLOCK_ERR_PARSE_TRAILING_BYTES"
	ErrParseUnknownKind    ParseErrorCode = "BLOCK_ERR_PARSE_UNKNOWN_KIND"
	ErrPOWInvalid          ParseErrorCode = "BLOCK_ERR_POW_INVALID"
	ErrSignatureMalformed  ParseErrorCode = "BLOCK_ERR_SIGNATURE_MALFORMED"
	ErrAmountOverflow      ParseErrorCode = "BLOCK_ERR_AMOUNT_OVERFLOW"
)

// ParseError is returned by Parse/Serialize on malformed block bytes.
type ParseError struct {
	Code ParseErrorCode
	Msg  string
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func parseErr(code ParseErrorCode, msg string) error {
	return &ParseError{Code: code, Msg: msg}
}
