// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNetwork is wrapped by explorer implementations for transport
	// level failures (connection refused, timeout, bad gateway).
	ErrNetwork = errors.New("explorer network error")

	// ErrReorg is returned by GetTransactions when the block referenced by
	// the since parameter is no longer part of the best chain. The caller
	// must roll back its local state and retry from an earlier point.
	ErrReorg = errors.New("block not found on best chain")
)

// Explorer allows more than one backing explorer source, such as a hosted
// indexer API or a local archive node, as long as we write a driver for it.
// Every call may fail with an error wrapping ErrNetwork.
type Explorer interface {
	// GetBalance returns the combined confirmed balance of the given
	// addresses.
	GetBalance(ctx context.Context, addrs []common.Address) (*big.Int, error)

	// GetCurrentBlock returns the current best chain tip.
	GetCurrentBlock(ctx context.Context) (*Block, error)

	// GetTransactions returns every transaction touching addr that the
	// explorer knows about, starting after the block identified by since.
	// A zero since hash means "from the beginning". Returns an error
	// wrapping ErrReorg if since is no longer on the best chain.
	GetTransactions(ctx context.Context, addr common.Address,
		since common.Hash) ([]Transaction, error)

	// GetNonce returns the next account nonce for addr.
	GetNonce(ctx context.Context, addr common.Address) (uint64, error)

	// GetGasPrice returns the network suggested gas price.
	GetGasPrice(ctx context.Context) (*big.Int, error)

	// GetEstimatedGasLimit returns the estimated gas limit for a plain
	// transfer to addr.
	GetEstimatedGasLimit(ctx context.Context,
		addr common.Address) (*big.Int, error)

	// GetDryRunGasLimit estimates the gas limit for the given call by
	// simulating it against current state.
	GetDryRunGasLimit(ctx context.Context, addr common.Address,
		req CallRequest) (*big.Int, error)

	// GetERC20Balance returns the token balance of addr for a single
	// contract.
	GetERC20Balance(ctx context.Context, addr common.Address,
		contract common.Address) (*big.Int, error)

	// GetERC20Balances is the batch form of GetERC20Balance. The result
	// slice is ordered like contracts.
	GetERC20Balances(ctx context.Context, addr common.Address,
		contracts []common.Address) ([]*big.Int, error)

	// PushTransaction broadcasts raw signed transaction bytes and returns
	// the transaction hash assigned by the network.
	PushTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}
