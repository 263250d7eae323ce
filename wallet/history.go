// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethsuite/ethwallet/opledger"
)

// BalanceHistory reconstructs the account's balance as a time series over
// [start, end), one value per bucket of width precision. The series is
// built from the combined ledger: regular operations plus the internal
// call movements attributed to the account. Each bucket holds the running
// signed sum at the bucket's upper bound; buckets past the last operation
// repeat the final sum. The result always has exactly
// ceil((end-start)/precision) entries.
func (a *Account) BalanceHistory(ctx context.Context, start, end time.Time,
	precision time.Duration) ([]*big.Int, error) {

	if !start.Before(end) {
		return nil, walletError(ErrInvalidRange,
			"start date should be strictly lower than end date",
			nil)
	}
	if precision <= 0 {
		return nil, walletError(ErrInvalidArgument,
			"bucket precision must be positive", nil)
	}

	ops, err := a.store.Operations(ctx, a.uid)
	if err != nil {
		return nil, err
	}
	internal, err := a.store.InternalOperations(ctx, a.uid, a.address)
	if err != nil {
		return nil, err
	}
	ops = append(ops, internal...)

	// Stable keeps the store's per-source ordering on date ties.
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Date.Before(ops[j].Date)
	})

	buckets := int((end.Sub(start) + precision - 1) / precision)
	amounts := make([]*big.Int, 0, buckets)

	sum := new(big.Int)
	upper := start.Add(precision)
	next := 0
	for len(amounts) < buckets {
		for next < len(ops) && !ops[next].Date.After(upper) {
			applyToSum(sum, &ops[next])
			next++
		}
		amounts = append(amounts, new(big.Int).Set(sum))
		upper = upper.Add(precision)
	}

	return amounts, nil
}

// applyToSum folds one operation into the running balance: credits for
// RECEIVE, debit of amount plus fees for SEND. NONE carriers move no value
// themselves.
func applyToSum(sum *big.Int, op *opledger.Operation) {
	switch op.Kind {
	case opledger.KindReceive:
		sum.Add(sum, op.Amount)
	case opledger.KindSend:
		sum.Sub(sum, op.Amount)
		if op.Fees != nil {
			sum.Sub(sum, op.Fees)
		}
	}
}
