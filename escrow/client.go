// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// ContractBackend delivers a call to a contract address on behalf of a
// sender. Implementations range from a bound RPC transactor to the
// in-process harness the tests use.
type ContractBackend interface {
	Call(sender common.Address, contractAddr common.Address, input []byte) ([]byte, error)
}

// Client is an off-chain helper that packs escrow calls, sends them
// through a ContractBackend and decodes the results.
type Client struct {
	backend ContractBackend
	addr    common.Address

	log log.Logger
}

// NewClient creates a client for the escrow precompile at its canonical
// address.
func NewClient(backend ContractBackend) *Client {
	return &Client{
		backend: backend,
		addr:    ContractAddress,
		log:     log.NewTestLogger(log.InfoLevel),
	}
}

// Init sets the escrow admin. The sender of the call is irrelevant; the
// first init wins.
func (c *Client) Init(sender common.Address, admin common.Address) error {
	_, err := c.backend.Call(sender, c.addr, PackInit(admin))
	if err != nil {
		return fmt.Errorf("escrow init: %w", err)
	}
	c.log.Info("initialized escrow", "admin", admin)
	return nil
}

// Fund deposits [amount] of [token] from [from] into the pool. The
// backend must send as [from]; the contract rejects third-party pulls.
func (c *Client) Fund(token common.Hash, from common.Address, amount *big.Int) error {
	_, err := c.backend.Call(from, c.addr, PackFund(token, from, amount))
	if err != nil {
		return fmt.Errorf("escrow fund: %w", err)
	}
	c.log.Info("funded escrow pool", "token", token, "amount", amount)
	return nil
}

// CreatePackage earmarks pool funds under [id]. Sent as the admin.
func (c *Client) CreatePackage(admin common.Address, id uint64, recipient common.Address, amount *big.Int, token common.Hash, expiresAt uint64, metadata Metadata) (uint64, error) {
	if !ValidMetadata(metadata) {
		return 0, ErrInvalidInput
	}
	ret, err := c.backend.Call(admin, c.addr, PackCreatePackage(id, recipient, amount, token, expiresAt, metadata))
	if err != nil {
		return 0, fmt.Errorf("escrow createPackage: %w", err)
	}
	created, err := UnpackUint64(ret)
	if err != nil {
		return 0, fmt.Errorf("escrow createPackage: %w", err)
	}
	c.log.Info("created package", "id", created, "recipient", recipient, "amount", amount)
	return created, nil
}

// Claim pays package [id] out to its recipient. Sent as the recipient.
func (c *Client) Claim(recipient common.Address, id uint64) error {
	_, err := c.backend.Call(recipient, c.addr, PackClaim(id))
	if err != nil {
		return fmt.Errorf("escrow claim: %w", err)
	}
	c.log.Info("claimed package", "id", id)
	return nil
}

// Refund returns expired package [id] to the admin. Sent as the admin.
func (c *Client) Refund(admin common.Address, id uint64) error {
	_, err := c.backend.Call(admin, c.addr, PackRefund(id))
	if err != nil {
		return fmt.Errorf("escrow refund: %w", err)
	}
	c.log.Info("refunded package", "id", id)
	return nil
}

// Revoke cancels package [id] before claim. Sent as the admin.
func (c *Client) Revoke(admin common.Address, id uint64) error {
	_, err := c.backend.Call(admin, c.addr, PackRevoke(id))
	if err != nil {
		return fmt.Errorf("escrow revoke: %w", err)
	}
	c.log.Info("revoked package", "id", id)
	return nil
}

// GetPackage fetches package [id].
func (c *Client) GetPackage(sender common.Address, id uint64) (*Package, error) {
	ret, err := c.backend.Call(sender, c.addr, PackGetPackage(id))
	if err != nil {
		return nil, fmt.Errorf("escrow getPackage: %w", err)
	}
	return UnpackPackage(id, ret)
}

// GetRecipientPackageCount returns how many packages were ever created
// for [recipient], terminal ones included.
func (c *Client) GetRecipientPackageCount(sender common.Address, recipient common.Address) (uint32, error) {
	ret, err := c.backend.Call(sender, c.addr, PackGetRecipientPackageCount(recipient))
	if err != nil {
		return 0, fmt.Errorf("escrow getRecipientPackageCount: %w", err)
	}
	return UnpackUint32(ret)
}

// GetAdmin returns the escrow admin.
func (c *Client) GetAdmin(sender common.Address) (common.Address, error) {
	ret, err := c.backend.Call(sender, c.addr, PackGetAdmin())
	if err != nil {
		return common.Address{}, fmt.Errorf("escrow getAdmin: %w", err)
	}
	return UnpackAddress(ret)
}
