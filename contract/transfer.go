// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
)

// NativeCoinID is the coin identifier for the chain's native asset.
// Any other identifier addresses a multicoin balance.
var NativeCoinID = common.Hash{}

var (
	ErrOutOfGas        = errors.New("out of gas")
	ErrWriteProtection = errors.New("write protection")
	ErrTransferFailed  = errors.New("transfer failed: insufficient balance")
	ErrValueOverflow   = errors.New("transfer value overflows native balance")
)

// BalanceOfCoin returns [who]'s balance of [coin].
func BalanceOfCoin(stateDB StateDB, coin common.Hash, who common.Address) *big.Int {
	if coin == NativeCoinID {
		return stateDB.GetBalance(who).ToBig()
	}
	return stateDB.GetBalanceMultiCoin(who, coin)
}

// TransferCoin moves [amount] of [coin] from [from] to [to]. The move is a
// plain state mutation: when the enclosing Run returns an error the host
// reverts it together with every other write of the call.
func TransferCoin(stateDB StateDB, coin common.Hash, from common.Address, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if coin == NativeCoinID {
		value, overflow := uint256.FromBig(amount)
		if overflow {
			return ErrValueOverflow
		}
		if stateDB.GetBalance(from).Lt(value) {
			return ErrTransferFailed
		}
		stateDB.SubBalance(from, value, tracing.BalanceChangeTransfer)
		stateDB.AddBalance(to, value, tracing.BalanceChangeTransfer)
		return nil
	}
	if stateDB.GetBalanceMultiCoin(from, coin).Cmp(amount) < 0 {
		return ErrTransferFailed
	}
	stateDB.SubBalanceMultiCoin(from, coin, amount)
	stateDB.AddBalanceMultiCoin(to, coin, amount)
	return nil
}
