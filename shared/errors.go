package shared

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEncoding    = errors.New("malformed encoding")
	ErrMalformedReceipt     = errors.New("malformed receipt")
	ErrProveFailed          = errors.New("prove failed")
	ErrVerificationRejected = errors.New("verification rejected")
	ErrModeMismatch         = errors.New("receipt kind does not match backend mode")
	ErrNonceMismatch        = errors.New("nonce does not match the expected challenge")
)

// EncodingError is returned when a textual field (hex or base64) cannot be decoded.
type EncodingError struct {
	Field string
	Err   error
}

func (err *EncodingError) Error() string {
	return fmt.Sprintf("invalid `%v` encoding: %v", err.Field, err.Err)
}

func (err *EncodingError) Unwrap() error { return err.Err }

func (err *EncodingError) Is(target error) bool { return target == ErrMalformedEncoding }

// RejectedError is returned when a receipt was well-formed but did not pass verification.
// It always matches ErrVerificationRejected; Err carries the underlying cause.
type RejectedError struct {
	Reason string
	Err    error
}

func (err *RejectedError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("verification rejected: %v", err.Reason)
	}
	return fmt.Sprintf("verification rejected: %v: %v", err.Reason, err.Err)
}

func (err *RejectedError) Unwrap() error { return err.Err }

func (err *RejectedError) Is(target error) bool { return target == ErrVerificationRejected }

// ConfigMismatchError is returned when persisted material was produced under a different configuration.
type ConfigMismatchError struct {
	Param    string
	Expected string
	Found    string
	KeysDir  string
}

func (err ConfigMismatchError) Error() string {
	return fmt.Sprintf("`%v` config mismatch; expected: %v, found: %v, keysdir: %v",
		err.Param, err.Expected, err.Found, err.KeysDir)
}
