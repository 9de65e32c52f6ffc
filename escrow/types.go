// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package escrow implements the Escrow Precompile (LP-9100): a pooled
// token escrow that earmarks deposited funds into discrete, tracked
// packages. The admin funds per-token pools and creates packages for named
// recipients; a package is then claimed by its recipient, refunded to the
// admin after expiry, or revoked by the admin before claim. Pool
// accounting guarantees the sum of outstanding packages never exceeds the
// deposited balance.
package escrow

import (
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
)

// PackageStatus is the lifecycle state of a package. A package starts
// Created and makes exactly one transition into a terminal state.
type PackageStatus uint8

const (
	StatusCreated PackageStatus = iota
	StatusClaimed
	StatusRefunded
	StatusCancelled
)

// Terminal returns true once no further transition is permitted.
func (s PackageStatus) Terminal() bool {
	return s == StatusClaimed || s == StatusRefunded || s == StatusCancelled
}

func (s PackageStatus) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusClaimed:
		return "Claimed"
	case StatusRefunded:
		return "Refunded"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Metadata is an opaque key/value bag attached to a package at creation.
// Keys are symbol-sized (at most 32 bytes); values are stored byte for
// byte, without normalization.
type Metadata map[string]string

// Package is a recorded commitment to deliver Amount of Token to
// Recipient. ExpiresAt is an absolute timestamp; zero means the package
// never expires (and is therefore never refundable).
type Package struct {
	ID        uint64
	Recipient common.Address
	Amount    *big.Int
	Token     common.Hash
	ExpiresAt uint64
	CreatedAt uint64
	Status    PackageStatus
	Metadata  Metadata
}

// Amounts are i128 range: strictly positive and below 2^127.
var maxAmount = new(big.Int).Lsh(big.NewInt(1), 127)

// validAmount gates every externally supplied amount.
func validAmount(amount *big.Int) bool {
	return amount.Sign() > 0 && amount.Cmp(maxAmount) < 0
}

// Errors
var (
	ErrAlreadyInitialized   = errors.New("escrow already initialized")
	ErrNotInitialized       = errors.New("escrow not initialized")
	ErrUnauthorized         = errors.New("unauthorized: caller is not the required principal")
	ErrInvalidAmount        = errors.New("invalid amount: must be positive i128")
	ErrInsufficientFunds    = errors.New("insufficient funds: amount exceeds available pool balance")
	ErrPackageNotFound      = errors.New("package not found")
	ErrPackageAlreadyExists = errors.New("package id already exists")
	ErrInvalidStatus        = errors.New("invalid status: package is not in Created state")
	ErrPackageExpired       = errors.New("package expired")
	ErrNotYetExpired        = errors.New("package not yet expired")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidAddress       = errors.New("invalid address: cannot be zero")
)

// Gas costs
const (
	GasInit          uint64 = 20_000 // Write admin
	GasFund          uint64 = 30_000 // Pool credit + token transfer in
	GasCreatePackage uint64 = 50_000 // Package record + counter + reservation
	GasClaim         uint64 = 40_000 // Payout to recipient
	GasRefund        uint64 = 40_000 // Payout to admin
	GasRevoke        uint64 = 25_000 // Release reservation
	GasGetPackage    uint64 = 5_000  // Read package record
	GasGetCount      uint64 = 2_000  // Read recipient counter
	GasGetAdmin      uint64 = 2_000  // Read admin
)

// claimAllowed reports whether a Created package may still be claimed at
// [now]. Exactly at the deadline is still claimable.
func claimAllowed(now uint64, expiresAt uint64) bool {
	return expiresAt == 0 || now <= expiresAt
}

// refundAllowed reports whether a Created package may be refunded at
// [now]. Unbounded packages (ExpiresAt == 0) are never refundable.
func refundAllowed(now uint64, expiresAt uint64) bool {
	return expiresAt != 0 && now > expiresAt
}
