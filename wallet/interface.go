// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import "github.com/ethereum/go-ethereum/common"

// Keychain abstracts the key-management subsystem. Address derivation and
// signing are out of scope for this engine; it only ever needs the watched
// address and the opaque restore key.
type Keychain interface {
	// Address returns the account's own address, used to classify chain
	// transfers as SEND, RECEIVE or NONE.
	Address() common.Address

	// RestoreKey returns the opaque key material needed to restore the
	// keychain.
	RestoreKey() string
}
