// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/opledger"
)

// Placeholder token descriptor fields used until explorer enrichment fills
// in the real name, symbol and decimals.
const (
	unknownTokenName   = "UNKNOWN_TOKEN"
	unknownTokenSymbol = "UNKNOWN"
)

// ERC20Token describes a token contract.
type ERC20Token struct {
	ContractAddress common.Address
	Name            string
	Symbol          string
	Decimals        int
}

// ERC20Account is the token sub-account scoped to transfers of one contract
// observed for the watched address. It owns its own mini ledger, keyed by
// uids derived from the parent operation.
type ERC20Account struct {
	uid     string
	token   ERC20Token
	address common.Address
	parent  *Account
}

// UID returns the sub-account identifier.
func (e *ERC20Account) UID() string {
	return e.uid
}

// Token returns the token descriptor.
func (e *ERC20Account) Token() ERC20Token {
	return e.token
}

// Address returns the watched address the sub-account is scoped to.
func (e *ERC20Account) Address() common.Address {
	return e.address
}

// Operations returns the sub-account's ledger entries ordered by date
// ascending.
func (e *ERC20Account) Operations(
	ctx context.Context) ([]opledger.TokenOperation, error) {

	return e.parent.store.TokenOperations(ctx, e.uid)
}

// Balance returns the current token balance of the watched address, fetched
// from the explorer.
func (e *ERC20Account) Balance(ctx context.Context) (*big.Int, error) {
	return e.parent.explorer.GetERC20Balance(ctx, e.address,
		e.token.ContractAddress)
}

// ERC20Accounts returns the account's current token sub-accounts.
func (a *Account) ERC20Accounts() []*ERC20Account {
	a.erc20Mu.Lock()
	defer a.erc20Mu.Unlock()
	return append([]*ERC20Account(nil), a.erc20Accounts...)
}

// restoreERC20Accounts rebuilds the sub-account registry from persisted
// rows at account load.
func (a *Account) restoreERC20Accounts(rows []opledger.TokenAccountRow) {
	a.erc20Mu.Lock()
	defer a.erc20Mu.Unlock()

	for _, row := range rows {
		a.erc20Accounts = append(a.erc20Accounts, &ERC20Account{
			uid: row.UID,
			token: ERC20Token{
				ContractAddress: row.Contract,
				Name:            row.TokenName,
				Symbol:          row.TokenSym,
				Decimals:        row.TokenDec,
			},
			address: row.Address,
			parent:  a,
		})
	}
}

// lookupERC20Account returns the registered sub-account for the contract,
// or nil.
func (a *Account) lookupERC20Account(
	contract common.Address) *ERC20Account {

	a.erc20Mu.Lock()
	defer a.erc20Mu.Unlock()

	for _, acct := range a.erc20Accounts {
		if acct.token.ContractAddress == contract &&
			acct.address == a.address {

			return acct
		}
	}
	return nil
}

// applyTokenTransfer folds one classified token transfer into the parent
// operation's attachment, creating and registering the owning sub-account
// on first sight of its contract. The sub-operation uid derives from the
// parent uid, the contract and the kind, giving the sub-ledger the same
// dedup property as the top level one.
func (a *Account) applyTokenTransfer(op *opledger.Operation,
	transfer chain.ERC20Transfer, kind opledger.OpKind) error {

	if op.Attachment == nil {
		return walletError(ErrRuntime,
			"interpreting token transfer without attached data",
			nil)
	}

	acct := a.lookupERC20Account(transfer.Contract)
	if acct == nil {
		acct = &ERC20Account{
			uid: opledger.TokenAccountUID(a.uid, transfer.Contract),
			token: ERC20Token{
				ContractAddress: transfer.Contract,
				Name:            unknownTokenName,
				Symbol:          unknownTokenSymbol,
			},
			address: a.address,
			parent:  a,
		}
		a.erc20Mu.Lock()
		a.erc20Accounts = append(a.erc20Accounts, acct)
		a.erc20Mu.Unlock()

		op.Attachment.Accounts = append(op.Attachment.Accounts,
			opledger.TokenAccountRow{
				UID:        acct.uid,
				AccountUID: a.uid,
				Contract:   transfer.Contract,
				Address:    a.address,
				TokenName:  acct.token.Name,
				TokenSym:   acct.token.Symbol,
				TokenDec:   acct.token.Decimals,
			})

		log.Debugf("Created token sub-account %s for contract %s",
			acct.uid, transfer.Contract.Hex())
	}

	op.Attachment.Ops = append(op.Attachment.Ops, opledger.TokenOperation{
		UID: opledger.TokenOperationUID(op.UID, transfer.Contract,
			kind),
		ParentUID:  op.UID,
		AccountUID: acct.uid,
		Contract:   transfer.Contract,
		Sender:     transfer.From,
		Receiver:   transfer.To,
		Value:      new(big.Int).Set(transfer.Value),
		Kind:       kind,
		Date:       op.Date,
	})

	return nil
}
