// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/escrow/contract"
	"github.com/luxfi/escrow/modules"
	"github.com/luxfi/escrow/precompileconfig"
)

var _ contract.Configurator = (*configurator)(nil)
var _ precompileconfig.Config = (*Config)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "escrowConfig"

// ContractAddress is the address of the escrow precompile (LP-9100)
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000009100")

// Module is the precompile module
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     EscrowPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

// Configure runs at the activation boundary. A chain may name the escrow
// admin in its upgrade JSON instead of sending an init transaction; once
// either path has set the admin the other fails with AlreadyInitialized.
func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}

	if config.Admin != (common.Address{}) {
		if _, initialized := getAdmin(state); initialized {
			return ErrAlreadyInitialized
		}
		setAdmin(state, config.Admin)
	}

	return nil
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin   common.Address           `json:"admin,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) && c.Admin == other.Admin
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	return nil
}
