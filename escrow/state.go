// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/escrow/contract"
)

// Storage layout, all under the escrow contract address:
//
//	keccak256("escrow.admin")              -> admin address (set marker)
//	keccak256("escrow.pool.deposited"||t)  -> pool deposited word
//	keccak256("escrow.pool.locked"||t)     -> pool locked word
//	keccak256("escrow.package"||id)        -> package record blob
//	keccak256("escrow.rcount"||addr)       -> recipient counter (uint32)
//
// Packages are stored as a single packed record so the storage codec and
// the getPackage return encoding are one and the same:
//
//	[0]      status (uint8)
//	[1:21]   recipient
//	[21:53]  token
//	[53:69]  amount (i128, big-endian)
//	[69:77]  expiresAt (uint64)
//	[77:85]  createdAt (uint64)
//	[85:...] metadata blob (see abi.go)
var (
	adminSlot = contract.DeriveSlot("escrow.admin", nil)
)

const (
	pkgStatusOffset    = 0
	pkgRecipientOffset = 1
	pkgTokenOffset     = 21
	pkgAmountOffset    = 53
	pkgExpiresOffset   = 69
	pkgCreatedOffset   = 77
	pkgMetaOffset      = 85

	// metadata keys are symbol-sized
	maxMetadataKeyLen = 32
)

func poolDepositedSlot(token common.Hash) common.Hash {
	return contract.DeriveSlot("escrow.pool.deposited", token[:])
}

func poolLockedSlot(token common.Hash) common.Hash {
	return contract.DeriveSlot("escrow.pool.locked", token[:])
}

func packageSlot(id uint64) common.Hash {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], id)
	return contract.DeriveSlot("escrow.package", key[:])
}

func recipientCountSlot(recipient common.Address) common.Hash {
	return contract.DeriveSlot("escrow.rcount", recipient.Bytes())
}

// Admin

func getAdmin(stateDB contract.StateDB) (common.Address, bool) {
	if !contract.StateIsSet(stateDB, ContractAddress, adminSlot) {
		return common.Address{}, false
	}
	return contract.GetAddressState(stateDB, ContractAddress, adminSlot), true
}

func setAdmin(stateDB contract.StateDB, admin common.Address) {
	contract.SetAddressState(stateDB, ContractAddress, adminSlot, admin)
}

// Pool

func loadPool(stateDB contract.StateDB, token common.Hash) *pool {
	return &pool{
		deposited: contract.GetBigState(stateDB, ContractAddress, poolDepositedSlot(token)),
		locked:    contract.GetBigState(stateDB, ContractAddress, poolLockedSlot(token)),
	}
}

func storePool(stateDB contract.StateDB, token common.Hash, p *pool) {
	contract.SetBigState(stateDB, ContractAddress, poolDepositedSlot(token), p.deposited)
	contract.SetBigState(stateDB, ContractAddress, poolLockedSlot(token), p.locked)
}

// Packages

func packageExists(stateDB contract.StateDB, id uint64) bool {
	return contract.StateIsSet(stateDB, ContractAddress, packageSlot(id))
}

func loadPackage(stateDB contract.StateDB, id uint64) (*Package, error) {
	if !packageExists(stateDB, id) {
		return nil, ErrPackageNotFound
	}
	blob := contract.GetBytesState(stateDB, ContractAddress, packageSlot(id))
	return decodePackage(id, blob)
}

func storePackage(stateDB contract.StateDB, pkg *Package) {
	contract.SetBytesState(stateDB, ContractAddress, packageSlot(pkg.ID), encodePackage(pkg))
}

// Recipient counters

func recipientCount(stateDB contract.StateDB, recipient common.Address) uint32 {
	return contract.GetUint32State(stateDB, ContractAddress, recipientCountSlot(recipient))
}

func bumpRecipientCount(stateDB contract.StateDB, recipient common.Address) {
	slot := recipientCountSlot(recipient)
	count := contract.GetUint32State(stateDB, ContractAddress, slot)
	contract.SetUint32State(stateDB, ContractAddress, slot, count+1)
}

// Codec

func encodePackage(pkg *Package) []byte {
	out := make([]byte, pkgMetaOffset)
	out[pkgStatusOffset] = byte(pkg.Status)
	copy(out[pkgRecipientOffset:], pkg.Recipient.Bytes())
	copy(out[pkgTokenOffset:], pkg.Token[:])
	pkg.Amount.FillBytes(out[pkgAmountOffset:pkgExpiresOffset])
	binary.BigEndian.PutUint64(out[pkgExpiresOffset:], pkg.ExpiresAt)
	binary.BigEndian.PutUint64(out[pkgCreatedOffset:], pkg.CreatedAt)
	return append(out, encodeMetadata(pkg.Metadata)...)
}

func decodePackage(id uint64, blob []byte) (*Package, error) {
	if len(blob) < pkgMetaOffset {
		return nil, ErrInvalidInput
	}
	md, err := decodeMetadata(blob[pkgMetaOffset:])
	if err != nil {
		return nil, err
	}
	return &Package{
		ID:        id,
		Status:    PackageStatus(blob[pkgStatusOffset]),
		Recipient: common.BytesToAddress(blob[pkgRecipientOffset:pkgTokenOffset]),
		Token:     common.BytesToHash(blob[pkgTokenOffset:pkgAmountOffset]),
		Amount:    byteAmount(blob[pkgAmountOffset:pkgExpiresOffset]),
		ExpiresAt: binary.BigEndian.Uint64(blob[pkgExpiresOffset:pkgCreatedOffset]),
		CreatedAt: binary.BigEndian.Uint64(blob[pkgCreatedOffset:pkgMetaOffset]),
		Metadata:  md,
	}, nil
}
