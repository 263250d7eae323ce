// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package opledger

import "fmt"

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific LedgerError.
const (
	// ErrDatabase indicates an error with the underlying database. When
	// this error code is set, the Err field of the LedgerError will be
	// set to the underlying error returned from the database.
	ErrDatabase ErrorCode = iota

	// ErrTxHashNotFound indicates that the requested tx hash is not known
	// to the ledger.
	ErrTxHashNotFound

	// ErrData indicates that a stored row could not be decoded back into
	// its in-memory representation.
	ErrData
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDatabase:       "ErrDatabase",
	ErrTxHashNotFound: "ErrTxHashNotFound",
	ErrData:           "ErrData",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// LedgerError provides a single type for errors that can occur in the ledger
// store. The Code field identifies the specific error and, for ErrDatabase,
// Err holds the underlying database error.
type LedgerError struct {
	Code ErrorCode
	Desc string
	Err  error
}

// Error satisfies the error interface and prints human-readable errors.
func (e LedgerError) Error() string {
	if e.Err != nil {
		return e.Desc + ": " + e.Err.Error()
	}
	return e.Desc
}

// Unwrap returns the underlying error, if any.
func (e LedgerError) Unwrap() error {
	return e.Err
}

func storeError(c ErrorCode, desc string, err error) LedgerError {
	return LedgerError{Code: c, Desc: desc, Err: err}
}

// IsError returns whether err is a LedgerError with the given code.
func IsError(err error, code ErrorCode) bool {
	serr, ok := err.(LedgerError)
	return ok && serr.Code == code
}
