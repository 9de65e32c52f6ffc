// Copyright (C) 2024-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"
)

// mockStateDB implements the StateDB interface for testing
type mockStateDB struct {
	storage      map[common.Address]map[common.Hash]common.Hash
	balances     map[common.Address]*uint256.Int
	coinBalances map[common.Address]map[common.Hash]*big.Int
	nonces       map[common.Address]uint64
	logs         []*ethtypes.Log
}

func newMockStateDB() *mockStateDB {
	return &mockStateDB{
		storage:      make(map[common.Address]map[common.Hash]common.Hash),
		balances:     make(map[common.Address]*uint256.Int),
		coinBalances: make(map[common.Address]map[common.Hash]*big.Int),
		nonces:       make(map[common.Address]uint64),
	}
}

func (m *mockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *mockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	prev := m.storage[addr][key]
	m.storage[addr][key] = value
	return prev
}

func (m *mockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *mockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
	return *prev
}

func (m *mockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
	return *prev
}

func (m *mockStateDB) GetBalanceMultiCoin(addr common.Address, coin common.Hash) *big.Int {
	if m.coinBalances[addr] == nil || m.coinBalances[addr][coin] == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(m.coinBalances[addr][coin])
}

func (m *mockStateDB) AddBalanceMultiCoin(addr common.Address, coin common.Hash, amount *big.Int) {
	if m.coinBalances[addr] == nil {
		m.coinBalances[addr] = make(map[common.Hash]*big.Int)
	}
	if m.coinBalances[addr][coin] == nil {
		m.coinBalances[addr][coin] = big.NewInt(0)
	}
	m.coinBalances[addr][coin] = new(big.Int).Add(m.coinBalances[addr][coin], amount)
}

func (m *mockStateDB) SubBalanceMultiCoin(addr common.Address, coin common.Hash, amount *big.Int) {
	if m.coinBalances[addr] == nil {
		m.coinBalances[addr] = make(map[common.Hash]*big.Int)
	}
	if m.coinBalances[addr][coin] == nil {
		m.coinBalances[addr][coin] = big.NewInt(0)
	}
	m.coinBalances[addr][coin] = new(big.Int).Sub(m.coinBalances[addr][coin], amount)
}

func (m *mockStateDB) GetNonce(addr common.Address) uint64 { return m.nonces[addr] }
func (m *mockStateDB) SetNonce(addr common.Address, nonce uint64, _ tracing.NonceChangeReason) {
	m.nonces[addr] = nonce
}
func (m *mockStateDB) CreateAccount(common.Address) {}
func (m *mockStateDB) Exist(common.Address) bool    { return true }
func (m *mockStateDB) AddLog(log *ethtypes.Log)     { m.logs = append(m.logs, log) }
func (m *mockStateDB) Logs() []*ethtypes.Log        { return m.logs }
func (m *mockStateDB) GetPredicateStorageSlots(common.Address, int) ([]byte, bool) {
	return nil, false
}
func (m *mockStateDB) TxHash() common.Hash  { return common.Hash{} }
func (m *mockStateDB) Snapshot() int        { return 0 }
func (m *mockStateDB) RevertToSnapshot(int) {}

var (
	testContract = common.HexToAddress("0x0000000000000000000000000000000000009100")
	addrA        = common.HexToAddress("0x1000000000000000000000000000000000000001")
	addrB        = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testCoin     = common.HexToHash("0x4141414141414141414141414141414141414141414141414141414141414141")
)

func TestDeriveSlotIsStableAndDistinct(t *testing.T) {
	a := DeriveSlot("prefix", []byte{1})
	require.Equal(t, a, DeriveSlot("prefix", []byte{1}))
	require.NotEqual(t, a, DeriveSlot("prefix", []byte{2}))
	require.NotEqual(t, a, DeriveSlot("other", []byte{1}))
}

func TestSlotAdd(t *testing.T) {
	base := DeriveSlot("x", nil)
	require.Equal(t, base, SlotAdd(base, 0))
	require.NotEqual(t, base, SlotAdd(base, 1))
	require.Equal(t, SlotAdd(base, 3), SlotAdd(SlotAdd(base, 1), 2))
}

func TestScalarStateHelpers(t *testing.T) {
	state := newMockStateDB()
	slot := DeriveSlot("test.scalar", nil)

	require.False(t, StateIsSet(state, testContract, slot))
	require.Zero(t, GetUint64State(state, testContract, slot))

	// an explicitly stored zero is distinguishable from an absent slot
	SetUint64State(state, testContract, slot, 0)
	require.True(t, StateIsSet(state, testContract, slot))
	require.Zero(t, GetUint64State(state, testContract, slot))

	SetUint64State(state, testContract, slot, 1<<40)
	require.Equal(t, uint64(1)<<40, GetUint64State(state, testContract, slot))

	addrSlot := DeriveSlot("test.addr", nil)
	SetAddressState(state, testContract, addrSlot, addrA)
	require.Equal(t, addrA, GetAddressState(state, testContract, addrSlot))

	u32Slot := DeriveSlot("test.u32", nil)
	SetUint32State(state, testContract, u32Slot, 7)
	require.Equal(t, uint32(7), GetUint32State(state, testContract, u32Slot))

	bigSlot := DeriveSlot("test.big", nil)
	v := new(big.Int).Lsh(big.NewInt(99), 100)
	SetBigState(state, testContract, bigSlot, v)
	require.Zero(t, v.Cmp(GetBigState(state, testContract, bigSlot)))
}

func TestBytesStateRoundTrip(t *testing.T) {
	state := newMockStateDB()
	slot := DeriveSlot("test.bytes", nil)

	require.Nil(t, GetBytesState(state, testContract, slot))

	for _, size := range []int{1, 31, 32, 33, 100, 1000} {
		data := bytes.Repeat([]byte{0xAB}, size)
		data[0] = byte(size)
		SetBytesState(state, testContract, slot, data)
		require.Equal(t, data, GetBytesState(state, testContract, slot))
	}
}

func TestDeductGas(t *testing.T) {
	remaining, err := DeductGas(100, 40)
	require.NoError(t, err)
	require.Equal(t, uint64(60), remaining)

	remaining, err = DeductGas(39, 40)
	require.ErrorIs(t, err, ErrOutOfGas)
	require.Zero(t, remaining)
}

func TestTransferCoinMulti(t *testing.T) {
	state := newMockStateDB()
	state.AddBalanceMultiCoin(addrA, testCoin, big.NewInt(1000))

	require.NoError(t, TransferCoin(state, testCoin, addrA, addrB, big.NewInt(400)))
	require.Equal(t, int64(600), BalanceOfCoin(state, testCoin, addrA).Int64())
	require.Equal(t, int64(400), BalanceOfCoin(state, testCoin, addrB).Int64())

	require.ErrorIs(t, TransferCoin(state, testCoin, addrA, addrB, big.NewInt(601)), ErrTransferFailed)
	require.Equal(t, int64(600), BalanceOfCoin(state, testCoin, addrA).Int64())
}

func TestTransferCoinNative(t *testing.T) {
	state := newMockStateDB()
	state.AddBalance(addrA, uint256.NewInt(1000), tracing.BalanceChangeTransfer)

	require.NoError(t, TransferCoin(state, NativeCoinID, addrA, addrB, big.NewInt(250)))
	require.Equal(t, int64(750), BalanceOfCoin(state, NativeCoinID, addrA).Int64())
	require.Equal(t, int64(250), BalanceOfCoin(state, NativeCoinID, addrB).Int64())

	require.ErrorIs(t, TransferCoin(state, NativeCoinID, addrA, addrB, big.NewInt(751)), ErrTransferFailed)

	overflow := new(big.Int).Lsh(big.NewInt(1), 300)
	require.ErrorIs(t, TransferCoin(state, NativeCoinID, addrA, addrB, overflow), ErrValueOverflow)
}

func TestTransferCoinZeroIsNoop(t *testing.T) {
	state := newMockStateDB()
	require.NoError(t, TransferCoin(state, testCoin, addrA, addrB, big.NewInt(0)))
	require.Zero(t, BalanceOfCoin(state, testCoin, addrB).Sign())
}
