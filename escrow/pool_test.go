// Copyright (C) 2024-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolReserveBounds(t *testing.T) {
	p := newPool()
	p.credit(big.NewInt(1000))

	require.ErrorIs(t, p.reserve(big.NewInt(1001)), ErrInsufficientFunds)
	require.NoError(t, p.reserve(big.NewInt(1000)))
	require.Zero(t, p.available().Sign())
	require.ErrorIs(t, p.reserve(big.NewInt(1)), ErrInsufficientFunds)
}

func TestPoolReleaseRestoresAvailability(t *testing.T) {
	p := newPool()
	p.credit(big.NewInt(1000))
	require.NoError(t, p.reserve(big.NewInt(600)))
	require.Equal(t, int64(400), p.available().Int64())

	p.release(big.NewInt(600))
	require.Equal(t, int64(1000), p.available().Int64())
	require.Equal(t, int64(1000), p.deposited.Int64())
}

func TestPoolSettlePayoutDrainsBoth(t *testing.T) {
	p := newPool()
	p.credit(big.NewInt(1000))
	require.NoError(t, p.reserve(big.NewInt(600)))

	p.settlePayout(big.NewInt(600))
	require.Zero(t, p.locked.Sign())
	require.Equal(t, int64(400), p.deposited.Int64())
	require.Equal(t, int64(400), p.available().Int64())
}

func TestPoolCreditAfterPayouts(t *testing.T) {
	p := newPool()
	p.credit(big.NewInt(500))
	require.NoError(t, p.reserve(big.NewInt(500)))
	p.settlePayout(big.NewInt(500))
	p.credit(big.NewInt(250))
	require.Equal(t, int64(250), p.available().Int64())
}

func TestClaimRefundGates(t *testing.T) {
	// claim: allowed while now <= expiresAt, always for the zero sentinel
	require.True(t, claimAllowed(100, 0))
	require.True(t, claimAllowed(100, 100))
	require.True(t, claimAllowed(99, 100))
	require.False(t, claimAllowed(101, 100))

	// refund: strictly after expiry, never for the zero sentinel
	require.False(t, refundAllowed(100, 0))
	require.False(t, refundAllowed(100, 100))
	require.True(t, refundAllowed(101, 100))
}
