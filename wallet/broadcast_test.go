// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ethsuite/ethwallet/opledger"
)

// transferCallData builds a canonical transfer(address,uint256) payload.
func transferCallData(to common.Address, value *big.Int) []byte {
	data := make([]byte, 0, erc20TransferDataLen)
	data = append(data, erc20TransferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return data
}

func TestParseTransferCall(t *testing.T) {
	t.Parallel()

	to, value, ok := parseTransferCall(
		transferCallData(testOther, big.NewInt(42)))
	require.True(t, ok)
	require.Equal(t, testOther, to)
	require.Equal(t, big.NewInt(42), value)

	tests := []struct {
		name string
		data []byte
	}{{
		name: "empty",
	}, {
		name: "truncated",
		data: transferCallData(testOther, big.NewInt(42))[:67],
	}, {
		name: "padded",
		data: append(transferCallData(testOther, big.NewInt(42)), 0),
	}, {
		name: "wrong selector",
		data: append([]byte{0xde, 0xad, 0xbe, 0xef},
			transferCallData(testOther, big.NewInt(42))[4:]...),
	}}
	for _, test := range tests {
		_, _, ok := parseTransferCall(test.data)
		require.False(t, ok, test.name)
	}
}

// TestBroadcastOptimisticUpdate broadcasts a built transaction and checks
// the provisional operation is queryable before any synchronization pass.
func TestBroadcastOptimisticUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, explorer, _ := testAccount(t)

	tx, err := a.BuildTransaction().
		SendToAddress(big.NewInt(12345), testOther).
		SetGasPrice(big.NewInt(10)).
		SetGasLimit(big.NewInt(21000)).
		Build(ctx)
	require.NoError(t, err)

	raw, err := tx.Serialize()
	require.NoError(t, err)

	hash, err := a.BroadcastRawTransaction(ctx, raw)
	require.NoError(t, err)
	require.NotEqual(t, common.Hash{}, hash)
	require.Len(t, explorer.pushedRaw, 1)

	ops, err := a.QueryOperations().Execute(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, opledger.KindSend, ops[0].Kind)
	require.Equal(t, hash, ops[0].TxHash)
	require.Equal(t, big.NewInt(12345), ops[0].Amount)
	require.Equal(t, opledger.TrustPending, ops[0].Trust)

	// Gas used is unknown until confirmation, so no fee is recorded yet.
	require.Zero(t, ops[0].Fees.Sign())
}

// TestBroadcastTokenTransfer broadcasts a transfer(address,uint256) call and
// checks a provisional token sub-operation and its sub-account appear.
func TestBroadcastTokenTransfer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, _, _ := testAccount(t)

	tx, err := a.BuildTransaction().
		SendToAddress(big.NewInt(0), testContract).
		SetGasPrice(big.NewInt(10)).
		SetGasLimit(big.NewInt(60000)).
		SetInputData(transferCallData(testOther, big.NewInt(500))).
		Build(ctx)
	require.NoError(t, err)

	raw, err := tx.Serialize()
	require.NoError(t, err)

	_, err = a.BroadcastRawTransaction(ctx, raw)
	require.NoError(t, err)

	subs := a.ERC20Accounts()
	require.Len(t, subs, 1)
	require.Equal(t, testContract, subs[0].Token().ContractAddress)

	tokenOps, err := subs[0].Operations(ctx)
	require.NoError(t, err)
	require.Len(t, tokenOps, 1)
	require.Equal(t, opledger.KindSend, tokenOps[0].Kind)
	require.Equal(t, big.NewInt(500), tokenOps[0].Value)
	require.Equal(t, testOther, tokenOps[0].Receiver)
}

func TestBroadcastPushFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, explorer, _ := testAccount(t)
	explorer.pushErr = errors.New("mempool full")

	_, err := a.BroadcastRawTransaction(ctx, []byte{0x01})
	require.Error(t, err)

	ops, err := a.QueryOperations().Execute(ctx)
	require.NoError(t, err)
	require.Empty(t, ops)
}

// TestBroadcastOptimisticFailureSwallowed pushes bytes that cannot be parsed
// back. The push succeeded, so the broadcast must still report success; only
// the local provisional update is skipped.
func TestBroadcastOptimisticFailureSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, _, _ := testAccount(t)

	hash, err := a.BroadcastRawTransaction(ctx,
		[]byte{0xff, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	require.NotEqual(t, common.Hash{}, hash)

	ops, err := a.QueryOperations().Execute(ctx)
	require.NoError(t, err)
	require.Empty(t, ops)
}
