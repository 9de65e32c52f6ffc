// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package modules registers the stateful precompiles of the escrow suite
// with the hosting VM.
package modules

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/escrow/contract"
)

// Module wires one precompile: its config key in upgrade JSON, the address
// it lives at, the contract itself, and its upgrade-time configurator.
type Module struct {
	ConfigKey    string
	Address      common.Address
	Contract     contract.StatefulPrecompiledContract
	Configurator contract.Configurator
}

type moduleArray []Module

func (m moduleArray) Len() int {
	return len(m)
}

func (m moduleArray) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
