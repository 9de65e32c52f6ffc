// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/escrow/contract"
)

// Function selectors (first 4 bytes of keccak256 of function signature)
var (
	SelectorInit              = [4]byte{0x19, 0xab, 0x45, 0x3c} // init(address)
	SelectorFund              = [4]byte{0xf8, 0x38, 0x8f, 0x0f} // fund(bytes32,address,uint256)
	SelectorCreatePackage     = [4]byte{0x6a, 0xde, 0x87, 0x4c} // createPackage(uint64,address,uint256,bytes32,uint64,bytes)
	SelectorClaim             = [4]byte{0xaa, 0xb8, 0xab, 0x0c} // claim(uint64)
	SelectorRefund            = [4]byte{0xd7, 0x19, 0x4c, 0xcb} // refund(uint64)
	SelectorRevoke            = [4]byte{0xa9, 0x54, 0xd8, 0xe0} // revoke(uint64)
	SelectorGetPackage        = [4]byte{0x57, 0x0b, 0x6f, 0xac} // getPackage(uint64)
	SelectorGetRecipientCount = [4]byte{0xdc, 0xbb, 0x0b, 0xf5} // getRecipientPackageCount(address)
	SelectorGetAdmin          = [4]byte{0x6e, 0x99, 0x60, 0xc3} // getAdmin()
)

// Event topics
var (
	TopicPoolFunded      = common.Hash(crypto.Keccak256Hash([]byte("PoolFunded(bytes32,address,uint256)")))
	TopicPackageCreated  = common.Hash(crypto.Keccak256Hash([]byte("PackageCreated(uint64,address,bytes32,uint256)")))
	TopicPackageClaimed  = common.Hash(crypto.Keccak256Hash([]byte("PackageClaimed(uint64,address,uint256)")))
	TopicPackageRefunded = common.Hash(crypto.Keccak256Hash([]byte("PackageRefunded(uint64,address,uint256)")))
	TopicPackageRevoked  = common.Hash(crypto.Keccak256Hash([]byte("PackageRevoked(uint64)")))
)

// EscrowPrecompile is the singleton instance
var EscrowPrecompile = &escrowPrecompile{}

type escrowPrecompile struct{}

var _ contract.StatefulPrecompiledContract = (*escrowPrecompile)(nil)

// Run executes the escrow precompile. Errors abort the call; the host
// reverts every storage write and balance move made during it, which is
// what keeps bookkeeping and token movement atomic.
func (e *escrowPrecompile) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, suppliedGas, ErrInvalidInput
	}

	var selector [4]byte
	copy(selector[:], input[:4])
	args := input[4:]

	stateDB := accessibleState.GetStateDB()
	now := accessibleState.GetBlockContext().Timestamp()

	switch selector {
	case SelectorInit:
		return e.init(stateDB, args, suppliedGas, readOnly)
	case SelectorFund:
		return e.fund(stateDB, caller, args, suppliedGas, readOnly)
	case SelectorCreatePackage:
		return e.createPackage(stateDB, caller, now, args, suppliedGas, readOnly)
	case SelectorClaim:
		return e.claim(stateDB, caller, now, args, suppliedGas, readOnly)
	case SelectorRefund:
		return e.refund(stateDB, caller, now, args, suppliedGas, readOnly)
	case SelectorRevoke:
		return e.revoke(stateDB, caller, args, suppliedGas, readOnly)
	case SelectorGetPackage:
		return e.getPackage(stateDB, args, suppliedGas)
	case SelectorGetRecipientCount:
		return e.getRecipientPackageCount(stateDB, args, suppliedGas)
	case SelectorGetAdmin:
		return e.getAdmin(stateDB, suppliedGas)
	default:
		return nil, suppliedGas, ErrInvalidInput
	}
}

// init writes the admin once. No authorization: whoever lands the first
// init (or the genesis config, see module.go) owns the escrow.
func (e *escrowPrecompile) init(
	stateDB contract.StateDB,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasInit)
	if err != nil {
		return nil, 0, err
	}

	admin, ok := wordAddress(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	if admin == (common.Address{}) {
		return nil, remainingGas, ErrInvalidAddress
	}
	if _, initialized := getAdmin(stateDB); initialized {
		return nil, remainingGas, ErrAlreadyInitialized
	}

	setAdmin(stateDB, admin)

	return nil, remainingGas, nil
}

// fund moves [amount] of [token] from the funder into the contract and
// credits the token's pool.
func (e *escrowPrecompile) fund(
	stateDB contract.StateDB,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasFund)
	if err != nil {
		return nil, 0, err
	}

	token, ok := wordHash(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	from, ok := wordAddress(args, 1)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	amount, ok := wordBig(args, 2)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}

	if _, initialized := getAdmin(stateDB); !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	// the funder authorizes the pull
	if caller != from {
		return nil, remainingGas, ErrUnauthorized
	}
	if !validAmount(amount) {
		return nil, remainingGas, ErrInvalidAmount
	}

	if err := contract.TransferCoin(stateDB, token, from, ContractAddress, amount); err != nil {
		return nil, remainingGas, err
	}
	p := loadPool(stateDB, token)
	p.credit(amount)
	storePool(stateDB, token, p)

	stateDB.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPoolFunded, token},
		Data:    appendBigWord(appendAddressWord(nil, from), amount),
	})

	return nil, remainingGas, nil
}

// createPackage earmarks pool funds for a recipient under a caller-chosen
// id. Admin only.
func (e *escrowPrecompile) createPackage(
	stateDB contract.StateDB,
	caller common.Address,
	now uint64,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasCreatePackage)
	if err != nil {
		return nil, 0, err
	}

	id, ok := wordUint64(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	recipient, okR := wordAddress(args, 1)
	amount, okA := wordBig(args, 2)
	token, okT := wordHash(args, 3)
	expiresAt, okE := wordUint64(args, 4)
	if !okR || !okA || !okT || !okE {
		return nil, remainingGas, ErrInvalidInput
	}
	metadata, err := decodeMetadata(args[5*wordSize:])
	if err != nil {
		return nil, remainingGas, err
	}

	admin, initialized := getAdmin(stateDB)
	if !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	if caller != admin {
		return nil, remainingGas, ErrUnauthorized
	}
	if !validAmount(amount) {
		return nil, remainingGas, ErrInvalidAmount
	}
	if packageExists(stateDB, id) {
		return nil, remainingGas, ErrPackageAlreadyExists
	}

	p := loadPool(stateDB, token)
	if err := p.reserve(amount); err != nil {
		return nil, remainingGas, err
	}
	storePool(stateDB, token, p)

	storePackage(stateDB, &Package{
		ID:        id,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		Status:    StatusCreated,
		Metadata:  metadata,
	})
	bumpRecipientCount(stateDB, recipient)

	stateDB.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPackageCreated, token},
		Data:    appendBigWord(appendAddressWord(appendUint64Word(nil, id), recipient), amount),
	})

	return appendUint64Word(nil, id), remainingGas, nil
}

// claim pays a Created, unexpired package out to its recipient.
func (e *escrowPrecompile) claim(
	stateDB contract.StateDB,
	caller common.Address,
	now uint64,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasClaim)
	if err != nil {
		return nil, 0, err
	}

	id, ok := wordUint64(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	if _, initialized := getAdmin(stateDB); !initialized {
		return nil, remainingGas, ErrNotInitialized
	}

	pkg, err := loadPackage(stateDB, id)
	if err != nil {
		return nil, remainingGas, err
	}
	if caller != pkg.Recipient {
		return nil, remainingGas, ErrUnauthorized
	}
	if pkg.Status != StatusCreated {
		return nil, remainingGas, ErrInvalidStatus
	}
	if !claimAllowed(now, pkg.ExpiresAt) {
		return nil, remainingGas, ErrPackageExpired
	}

	if err := contract.TransferCoin(stateDB, pkg.Token, ContractAddress, pkg.Recipient, pkg.Amount); err != nil {
		return nil, remainingGas, err
	}
	p := loadPool(stateDB, pkg.Token)
	p.settlePayout(pkg.Amount)
	storePool(stateDB, pkg.Token, p)

	pkg.Status = StatusClaimed
	storePackage(stateDB, pkg)

	stateDB.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPackageClaimed, pkg.Token},
		Data:    appendBigWord(appendAddressWord(appendUint64Word(nil, id), pkg.Recipient), pkg.Amount),
	})

	return nil, remainingGas, nil
}

// refund returns an expired package's funds to the admin. Admin only.
func (e *escrowPrecompile) refund(
	stateDB contract.StateDB,
	caller common.Address,
	now uint64,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasRefund)
	if err != nil {
		return nil, 0, err
	}

	id, ok := wordUint64(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	admin, initialized := getAdmin(stateDB)
	if !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	if caller != admin {
		return nil, remainingGas, ErrUnauthorized
	}

	pkg, err := loadPackage(stateDB, id)
	if err != nil {
		return nil, remainingGas, err
	}
	if pkg.Status != StatusCreated {
		return nil, remainingGas, ErrInvalidStatus
	}
	if !refundAllowed(now, pkg.ExpiresAt) {
		return nil, remainingGas, ErrNotYetExpired
	}

	if err := contract.TransferCoin(stateDB, pkg.Token, ContractAddress, admin, pkg.Amount); err != nil {
		return nil, remainingGas, err
	}
	p := loadPool(stateDB, pkg.Token)
	p.settlePayout(pkg.Amount)
	storePool(stateDB, pkg.Token, p)

	pkg.Status = StatusRefunded
	storePackage(stateDB, pkg)

	stateDB.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPackageRefunded, pkg.Token},
		Data:    appendBigWord(appendAddressWord(appendUint64Word(nil, id), admin), pkg.Amount),
	})

	return nil, remainingGas, nil
}

// revoke cancels a Created package and releases its reservation back to
// the pool; no funds leave the contract. Admin only, any time.
func (e *escrowPrecompile) revoke(
	stateDB contract.StateDB,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasRevoke)
	if err != nil {
		return nil, 0, err
	}

	id, ok := wordUint64(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	admin, initialized := getAdmin(stateDB)
	if !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	if caller != admin {
		return nil, remainingGas, ErrUnauthorized
	}

	pkg, err := loadPackage(stateDB, id)
	if err != nil {
		return nil, remainingGas, err
	}
	if pkg.Status != StatusCreated {
		return nil, remainingGas, ErrInvalidStatus
	}

	p := loadPool(stateDB, pkg.Token)
	p.release(pkg.Amount)
	storePool(stateDB, pkg.Token, p)

	pkg.Status = StatusCancelled
	storePackage(stateDB, pkg)

	stateDB.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  []common.Hash{TopicPackageRevoked, pkg.Token},
		Data:    appendUint64Word(nil, id),
	})

	return nil, remainingGas, nil
}

// View functions

func (e *escrowPrecompile) getPackage(stateDB contract.StateDB, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasGetPackage)
	if err != nil {
		return nil, 0, err
	}

	id, ok := wordUint64(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	if _, initialized := getAdmin(stateDB); !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	pkg, err := loadPackage(stateDB, id)
	if err != nil {
		return nil, remainingGas, err
	}
	return encodePackage(pkg), remainingGas, nil
}

func (e *escrowPrecompile) getRecipientPackageCount(stateDB contract.StateDB, args []byte, suppliedGas uint64) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasGetCount)
	if err != nil {
		return nil, 0, err
	}

	recipient, ok := wordAddress(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	if _, initialized := getAdmin(stateDB); !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	return appendUint64Word(nil, uint64(recipientCount(stateDB, recipient))), remainingGas, nil
}

func (e *escrowPrecompile) getAdmin(stateDB contract.StateDB, suppliedGas uint64) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasGetAdmin)
	if err != nil {
		return nil, 0, err
	}

	admin, initialized := getAdmin(stateDB)
	if !initialized {
		return nil, remainingGas, ErrNotInitialized
	}
	return appendAddressWord(nil, admin), remainingGas, nil
}
