// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxBuildRequest stages the parameters of an outgoing transaction. Fields
// are validated at build time, not at set time.
type TxBuildRequest struct {
	To common.Address

	// Value is the amount to send. Mutually exclusive with Wipe.
	Value *big.Int

	// Wipe requests sending the full spendable balance, i.e. the balance
	// minus the maximum fee.
	Wipe bool

	GasPrice  *big.Int
	GasLimit  *big.Int
	InputData []byte
}

// UnsignedTransaction is an assembled outgoing transaction awaiting
// signature.
type UnsignedTransaction struct {
	Sender   common.Address
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	Nonce    uint64
	Data     []byte
}

// Serialize returns the RLP encoding of the transaction with empty
// signature fields.
func (t *UnsignedTransaction) Serialize() ([]byte, error) {
	to := t.To
	raw, err := types.NewTx(&types.LegacyTx{
		Nonce:    t.Nonce,
		GasPrice: t.GasPrice,
		Gas:      t.GasLimit.Uint64(),
		To:       &to,
		Value:    t.Value,
		Data:     t.Data,
	}).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tx: %w", err)
	}
	return raw, nil
}

// TxBuilder assembles an outgoing transaction request. Setters may be
// called from any goroutine; Build captures an immutable snapshot of the
// request before validating, so a concurrent setter cannot interleave with
// a build in progress.
type TxBuilder struct {
	account *Account

	mu  sync.Mutex
	req TxBuildRequest
}

// BuildTransaction returns a fresh transaction builder for the account.
func (a *Account) BuildTransaction() *TxBuilder {
	return &TxBuilder{account: a}
}

// SendToAddress requests sending value to the given address.
func (b *TxBuilder) SendToAddress(value *big.Int,
	to common.Address) *TxBuilder {

	b.mu.Lock()
	defer b.mu.Unlock()
	b.req.To = to
	b.req.Value = new(big.Int).Set(value)
	b.req.Wipe = false
	return b
}

// WipeToAddress requests sending the full spendable balance to the given
// address.
func (b *TxBuilder) WipeToAddress(to common.Address) *TxBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.req.To = to
	b.req.Value = nil
	b.req.Wipe = true
	return b
}

// SetGasPrice sets the fee price component.
func (b *TxBuilder) SetGasPrice(gasPrice *big.Int) *TxBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.req.GasPrice = new(big.Int).Set(gasPrice)
	return b
}

// SetGasLimit sets the fee limit component.
func (b *TxBuilder) SetGasLimit(gasLimit *big.Int) *TxBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.req.GasLimit = new(big.Int).Set(gasLimit)
	return b
}

// SetInputData sets the transaction payload.
func (b *TxBuilder) SetInputData(data []byte) *TxBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.req.InputData = append([]byte(nil), data...)
	return b
}

// snapshot returns an immutable copy of the request.
func (b *TxBuilder) snapshot() TxBuildRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	req := b.req
	if req.Value != nil {
		req.Value = new(big.Int).Set(req.Value)
	}
	if req.GasPrice != nil {
		req.GasPrice = new(big.Int).Set(req.GasPrice)
	}
	if req.GasLimit != nil {
		req.GasLimit = new(big.Int).Set(req.GasLimit)
	}
	req.InputData = append([]byte(nil), req.InputData...)
	return req
}

// Build validates the staged request against balance, fee and nonce
// constraints and assembles the unsigned transaction. Validation fails
// fast: a missing value/wipe or fee component is ErrInvalidArgument, and a
// spend exceeding balance minus the maximum fee is ErrNotEnoughFunds.
func (b *TxBuilder) Build(ctx context.Context) (*UnsignedTransaction,
	error) {

	req := b.snapshot()
	a := b.account

	if req.GasLimit == nil || req.GasPrice == nil ||
		(req.Value == nil && !req.Wipe) {

		return nil, walletError(ErrInvalidArgument,
			"missing mandatory information (gas limit, gas price "+
				"or value)", nil)
	}

	balance, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}

	maxFee := new(big.Int).Mul(req.GasLimit, req.GasPrice)
	maxSendable := new(big.Int).Sub(balance, maxFee)

	amountToCheck := req.Value
	if req.Wipe {
		amountToCheck = new(big.Int)
	}
	if maxSendable.Cmp(amountToCheck) < 0 {
		return nil, walletError(ErrNotEnoughFunds,
			"cannot gather enough funds", nil)
	}

	value := req.Value
	if req.Wipe {
		value = maxSendable
	}

	nonce, err := a.explorer.GetNonce(ctx, a.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	return &UnsignedTransaction{
		Sender:   a.address,
		To:       req.To,
		Value:    value,
		GasPrice: req.GasPrice,
		GasLimit: req.GasLimit,
		Nonce:    nonce,
		Data:     req.InputData,
	}, nil
}
