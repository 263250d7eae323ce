// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/opledger"
)

func TestInterpretSend(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x01"), testWatched, testOther,
		1000)
	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	op := ops[0]
	require.Equal(t, opledger.KindSend, op.Kind)
	require.Equal(t, big.NewInt(1000), op.Amount)
	require.Equal(t, big.NewInt(2*21000), op.Fees)
	require.Equal(t, []string{testWatched.Hex()}, op.Senders)
	require.Equal(t, []string{testOther.Hex()}, op.Recipients)
	require.Equal(t, opledger.TrustConfirmed, op.Trust)
	require.NotNil(t, op.Block)
	require.Equal(t, testBlock.Height, op.Block.Height)
	require.Equal(t,
		opledger.OperationUID(a.UID(), tx.Hash, opledger.KindSend),
		op.UID)
}

func TestInterpretReceive(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x02"), testOther, testWatched,
		500)
	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, opledger.KindReceive, ops[0].Kind)
	require.Equal(t, big.NewInt(500), ops[0].Amount)
}

func TestInterpretSelfTransfer(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x03"), testWatched, testWatched,
		100)
	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	require.Equal(t, opledger.KindSend, ops[0].Kind)
	require.Equal(t, opledger.KindReceive, ops[1].Kind)
	require.NotEqual(t, ops[0].UID, ops[1].UID)
	require.Equal(t, ops[0].TxHash, ops[1].TxHash)

	// Attachments belong to the first emitted operation only, so token
	// sub-operations are never persisted twice.
	require.NotNil(t, ops[0].Attachment)
	require.Nil(t, ops[1].Attachment)
}

func TestInterpretFailedTransaction(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x04"), testWatched, testOther,
		1000)
	tx.Status = chain.TxStatusFailed

	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	// The reverted execution moved no value, but gas was still paid.
	require.Zero(t, ops[0].Amount.Sign())
	require.Equal(t, big.NewInt(2*21000), ops[0].Fees)
	require.True(t, ops[0].TxFailed)
}

func TestInterpretUnconfirmed(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x05"), testWatched, testOther,
		1000)
	tx.Block = nil
	tx.GasUsed = nil

	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, opledger.TrustPending, ops[0].Trust)
	require.Nil(t, ops[0].Block)
	require.Zero(t, ops[0].Fees.Sign())
	require.False(t, ops[0].Confirmed())
}

func TestInterpretUnrelated(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x06"), testOther,
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		1000)
	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Empty(t, ops)
}

// TestInterpretNoneCarrier exercises a transaction where the watched address
// is neither sender nor receiver, but a token transfer touches it. A single
// NONE operation must be emitted to carry the sub-operation.
func TestInterpretNoneCarrier(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x07"), testOther, testContract, 0)
	tx.ERC20Transfers = []chain.ERC20Transfer{{
		From:     testOther,
		To:       testWatched,
		Contract: testContract,
		Value:    big.NewInt(42),
	}}

	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, opledger.KindNone, ops[0].Kind)
	require.NotNil(t, ops[0].Attachment)
	require.Len(t, ops[0].Attachment.Ops, 1)
	require.Equal(t, opledger.KindReceive, ops[0].Attachment.Ops[0].Kind)
}

// TestInterpretTokenKinds checks the per-transfer sub-operation shapes: one
// sub-operation for a plain send or receive, two for a token self-transfer
// (SEND plus the forced RECEIVE), and a single NONE row for transfers merely
// observed by the explorer.
func TestInterpretTokenKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to common.Address
		want     []opledger.OpKind
	}{{
		name: "from watched",
		from: testWatched,
		to:   testOther,
		want: []opledger.OpKind{opledger.KindSend},
	}, {
		name: "to watched",
		from: testOther,
		to:   testWatched,
		want: []opledger.OpKind{opledger.KindReceive},
	}, {
		name: "token self transfer",
		from: testWatched,
		to:   testWatched,
		want: []opledger.OpKind{
			opledger.KindSend, opledger.KindReceive,
		},
	}, {
		name: "neither side watched",
		from: testOther,
		to:   testContract,
		want: []opledger.OpKind{opledger.KindNone},
	}}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			a, _, _ := testAccount(t)

			tx := confirmedTx(common.HexToHash("0x08"),
				testWatched, testContract, 0)
			tx.ERC20Transfers = []chain.ERC20Transfer{{
				From:     test.from,
				To:       test.to,
				Contract: testContract,
				Value:    big.NewInt(1),
			}}

			ops, err := a.interpretTransaction(&tx)
			require.NoError(t, err)
			require.Len(t, ops, 1)

			var kinds []opledger.OpKind
			for _, sub := range ops[0].Attachment.Ops {
				kinds = append(kinds, sub.Kind)
			}
			require.Equal(t, test.want, kinds)
		})
	}
}

func TestInterpretInternalTransactions(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)

	tx := confirmedTx(common.HexToHash("0x09"), testWatched, testContract,
		0)
	tx.InternalTxs = []chain.InternalTransaction{{
		From:    testContract,
		To:      testWatched,
		Value:   big.NewInt(77),
		GasUsed: big.NewInt(300),
	}, {
		From:  testContract,
		To:    testOther,
		Value: big.NewInt(5),
	}}

	ops, err := a.interpretTransaction(&tx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Len(t, ops[0].Internal, 2)
	require.Equal(t, opledger.KindReceive, ops[0].Internal[0].Kind)
	require.Equal(t, opledger.KindNone, ops[0].Internal[1].Kind)
}

func TestInterpretDeadWalletReference(t *testing.T) {
	t.Parallel()

	a, _, _ := testAccount(t)
	a.walletRef.Store(nil)

	tx := confirmedTx(common.HexToHash("0x0a"), testWatched, testOther, 1)
	_, err := a.interpretTransaction(&tx)
	require.True(t, IsError(err, ErrRuntime))
}
