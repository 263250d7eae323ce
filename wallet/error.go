// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "fmt"

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific WalletError.
const (
	// ErrInvalidArgument indicates a malformed request, e.g. a
	// transaction build request missing mandatory fee components.
	ErrInvalidArgument ErrorCode = iota

	// ErrNotEnoughFunds indicates the balance/fee check of a transaction
	// build failed.
	ErrNotEnoughFunds

	// ErrTransactionNotFound indicates a lookup by transaction hash
	// missed.
	ErrTransactionNotFound

	// ErrInvalidRange indicates an invalid date range, e.g. a balance
	// history query whose start is not strictly before its end.
	ErrInvalidRange

	// ErrRuntime indicates an internal consistency violation, e.g. a
	// missing attached-data context or a dead wallet reference.
	ErrRuntime
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidArgument:     "ErrInvalidArgument",
	ErrNotEnoughFunds:      "ErrNotEnoughFunds",
	ErrTransactionNotFound: "ErrTransactionNotFound",
	ErrInvalidRange:        "ErrInvalidRange",
	ErrRuntime:             "ErrRuntime",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// WalletError provides a single type for errors that can occur while using
// the wallet engine. The Code field identifies the specific error; Err, when
// set, holds the underlying error from a collaborator.
type WalletError struct {
	Code ErrorCode
	Desc string
	Err  error
}

// Error satisfies the error interface and prints human-readable errors.
func (e WalletError) Error() string {
	if e.Err != nil {
		return e.Desc + ": " + e.Err.Error()
	}
	return e.Desc
}

// Unwrap returns the underlying error, if any.
func (e WalletError) Unwrap() error {
	return e.Err
}

func walletError(c ErrorCode, desc string, err error) WalletError {
	return WalletError{Code: c, Desc: desc, Err: err}
}

// IsError returns whether err is a WalletError with the given code.
func IsError(err error, code ErrorCode) bool {
	werr, ok := err.(WalletError)
	return ok && werr.Code == code
}
