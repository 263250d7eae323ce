// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package opledger

import (
	"encoding/hex"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// uid fields are joined with a separator that cannot appear in any of them
// before hashing, so no two field combinations collide on concatenation.
const uidSep = "+"

func digest(parts ...string) string {
	h := crypto.NewKeccakState()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte(uidSep))
		}
		h.Write([]byte(p))
	}
	var sum common.Hash
	h.Read(sum[:])
	return hex.EncodeToString(sum[:])
}

// OperationUID derives the deterministic dedup key of an operation from its
// owning account, the chain transaction hash and the operation kind. Two
// interpretations of the same chain event always produce the same uid.
func OperationUID(accountUID string, txHash common.Hash, kind OpKind) string {
	return digest(accountUID, txHash.Hex(), kind.String())
}

// TokenOperationUID derives the dedup key of a token sub-operation from the
// parent operation uid, the token contract and the transfer kind.
func TokenOperationUID(parentUID string, contract common.Address,
	kind OpKind) string {

	return digest(parentUID, contract.Hex(), kind.String())
}

// TokenAccountUID derives the uid of a token sub-account from the parent
// account uid and the token contract address.
func TokenAccountUID(accountUID string, contract common.Address) string {
	return digest(accountUID, contract.Hex())
}

// AccountUID derives the uid of an account from its wallet uid and index.
func AccountUID(walletUID string, index uint32) string {
	return digest(walletUID, strconv.FormatUint(uint64(index), 10))
}
