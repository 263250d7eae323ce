// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethsuite/ethwallet/chain"
)

// Balance returns the account's current balance. The cache is read-through:
// a valid cached value is served directly, otherwise exactly one explorer
// fetch refreshes it. The balance is never computed from the local ledger,
// which may lag the confirmed chain state.
func (a *Account) Balance(ctx context.Context) (*big.Int, error) {
	a.balanceMu.Lock()
	if a.balance != nil {
		bal := new(big.Int).Set(a.balance)
		a.balanceMu.Unlock()
		return bal, nil
	}
	a.balanceMu.Unlock()

	bal, err := a.explorer.GetBalance(ctx,
		[]common.Address{a.address})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}

	a.updateBalanceCache(bal)

	return new(big.Int).Set(bal), nil
}

// updateBalanceCache invalidates the cache and sets the new value.
func (a *Account) updateBalanceCache(bal *big.Int) {
	a.balanceMu.Lock()
	a.balance = new(big.Int).Set(bal)
	a.balanceMu.Unlock()
}

// invalidateBalanceCache drops the cached balance; the next Balance call
// fetches a fresh one. Called after every committed ledger write.
func (a *Account) invalidateBalanceCache() {
	a.balanceMu.Lock()
	a.balance = nil
	a.balanceMu.Unlock()
}

// GasPrice returns the network suggested gas price.
func (a *Account) GasPrice(ctx context.Context) (*big.Int, error) {
	return a.explorer.GetGasPrice(ctx)
}

// EstimatedGasLimit returns the estimated gas limit for a plain transfer to
// addr.
func (a *Account) EstimatedGasLimit(ctx context.Context,
	addr common.Address) (*big.Int, error) {

	return a.explorer.GetEstimatedGasLimit(ctx, addr)
}

// DryRunGasLimit estimates the gas limit for the given call by simulating
// it against current chain state.
func (a *Account) DryRunGasLimit(ctx context.Context, addr common.Address,
	req chain.CallRequest) (*big.Int, error) {

	return a.explorer.GetDryRunGasLimit(ctx, addr, req)
}

// ERC20Balance returns the watched address's balance for one token
// contract.
func (a *Account) ERC20Balance(ctx context.Context,
	contract common.Address) (*big.Int, error) {

	return a.explorer.GetERC20Balance(ctx, a.address, contract)
}

// ERC20Balances is the batch form of ERC20Balance; the result is ordered
// like contracts.
func (a *Account) ERC20Balances(ctx context.Context,
	contracts []common.Address) ([]*big.Int, error) {

	return a.explorer.GetERC20Balances(ctx, a.address, contracts)
}
