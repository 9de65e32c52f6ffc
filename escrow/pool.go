// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"math/big"
)

// pool is the per-token solvency ledger. deposited is the cumulative
// funded amount minus cumulative payouts; locked is the sum of amounts of
// packages currently in Created state. Invariant: locked <= deposited.
//
// locked is kept explicit rather than recomputed from packages: O(1) per
// operation and independent of package enumeration, which the contract
// does not support.
type pool struct {
	deposited *big.Int
	locked    *big.Int
}

func newPool() *pool {
	return &pool{deposited: new(big.Int), locked: new(big.Int)}
}

// available is the portion usable by new package reservations.
func (p *pool) available() *big.Int {
	return new(big.Int).Sub(p.deposited, p.locked)
}

// credit records newly deposited funds. Callers validate amount > 0.
func (p *pool) credit(amount *big.Int) {
	p.deposited.Add(p.deposited, amount)
}

// reserve locks [amount] for a new package. Fails when the amount exceeds
// the available balance.
func (p *pool) reserve(amount *big.Int) error {
	if amount.Cmp(p.available()) > 0 {
		return ErrInsufficientFunds
	}
	p.locked.Add(p.locked, amount)
	return nil
}

// release returns a reservation to the available balance without funds
// leaving the contract. Callers ensure amount <= locked.
func (p *pool) release(amount *big.Int) {
	p.locked.Sub(p.locked, amount)
}

// settlePayout removes a reservation whose funds leave the contract
// (claim or refund).
func (p *pool) settlePayout(amount *big.Int) {
	p.locked.Sub(p.locked, amount)
	p.deposited.Sub(p.deposited, amount)
}
