// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry catalogs the addresses of the escrow precompile family.
package registry

import (
	"github.com/luxfi/geth/common"
)

// ============================================================================
// PRECOMPILE ADDRESS SCHEME - Aligned with LP Numbering (LP-0099)
// ============================================================================
//
// All Lux-native precompiles use trailing-significant 20-byte addresses:
//   Format: 0x000000000000000000000000000000000000PCII
//
// The address ends with the 16-bit LP number (PCII). The escrow suite
// lives on the Markets page (P=9) in the 0x91xx slice:
//
//   LP-9100  Escrow gateway (pool funding + package lifecycle)
//   LP-9101..LP-91FF reserved for future disbursement precompiles
const (
	// Escrow & Disbursement (LP-91xx)
	EscrowCChain = "0x0000000000000000000000000000000000009100" // C-Chain escrow gateway (LP-9100)
	EscrowZoo    = "0x0000000000000000000000000000000000009100" // Zoo escrow gateway (same address)
)

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	Chains      []string
	LPRange     string // LP-Pxxx range alignment
}

// AllPrecompiles lists all available precompiles with their metadata
var AllPrecompiles = []PrecompileInfo{
	{EscrowCChain, "ESCROW", "Pooled token escrow with tracked disbursement packages", 25000, []string{"C", "Zoo"}, "LP-9100"},
}

// ChainPrecompiles maps a chain letter to the precompiles enabled on it
var ChainPrecompiles = map[string][]string{
	"C":   {EscrowCChain},
	"Zoo": {EscrowZoo},
}

// GetPrecompileAddress returns the address for a precompile by name
func GetPrecompileAddress(name string) common.Address {
	for _, p := range AllPrecompiles {
		if p.Name == name {
			return common.HexToAddress(p.Address)
		}
	}
	return common.Address{}
}

// GetChainPrecompiles returns all precompile addresses for a chain
func GetChainPrecompiles(chainLetter string) []common.Address {
	addrs, ok := ChainPrecompiles[chainLetter]
	if !ok {
		return nil
	}

	result := make([]common.Address, len(addrs))
	for i, addr := range addrs {
		result[i] = common.HexToAddress(addr)
	}
	return result
}

// IsPrecompileEnabled checks if a precompile is enabled for a chain
func IsPrecompileEnabled(chainLetter string, precompileAddr common.Address) bool {
	addrs := ChainPrecompiles[chainLetter]

	for _, addr := range addrs {
		if common.HexToAddress(addr) == precompileAddr {
			return true
		}
	}
	return false
}
