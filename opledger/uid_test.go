// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package opledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// TestOperationUIDDeterminism tests that uid derivation is a pure function
// of its inputs and that distinct inputs yield distinct uids.
func TestOperationUIDDeterminism(t *testing.T) {
	t.Parallel()

	txHash := common.HexToHash("0xdeadbeef")
	otherHash := common.HexToHash("0xfeedface")

	uid := OperationUID("acct-1", txHash, KindSend)
	require.Equal(t, uid, OperationUID("acct-1", txHash, KindSend))

	require.NotEqual(t, uid, OperationUID("acct-2", txHash, KindSend))
	require.NotEqual(t, uid, OperationUID("acct-1", otherHash, KindSend))
	require.NotEqual(t, uid, OperationUID("acct-1", txHash, KindReceive))
}

// TestTokenUIDs tests sub-operation and sub-account uid derivation.
func TestTokenUIDs(t *testing.T) {
	t.Parallel()

	contract := common.HexToAddress("0x01")
	other := common.HexToAddress("0x02")

	uid := TokenOperationUID("parent", contract, KindReceive)
	require.Equal(t, uid, TokenOperationUID("parent", contract,
		KindReceive))
	require.NotEqual(t, uid, TokenOperationUID("parent", other,
		KindReceive))
	require.NotEqual(t, uid, TokenOperationUID("parent", contract,
		KindSend))

	acctUID := TokenAccountUID("acct-1", contract)
	require.Equal(t, acctUID, TokenAccountUID("acct-1", contract))
	require.NotEqual(t, acctUID, TokenAccountUID("acct-1", other))
}

// TestUIDFieldSeparation tests that field boundaries cannot be shifted to
// forge a colliding uid from different inputs.
func TestUIDFieldSeparation(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x01")
	require.NotEqual(t, OperationUID("ab", hash, KindSend),
		OperationUID("a", hash, KindSend))
}
