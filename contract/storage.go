// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"encoding/binary"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Storage slot helpers shared by the precompiles in this suite.
//
// Address and fixed-width integer values are stored in a single 32-byte word
// with byte 0 used as an explicitly-set marker, so a zero value can be told
// apart from an absent one. Big integers use the whole word and carry no
// marker. Variable-length values are stored as a length word at the base slot
// with the payload chunked into 32-byte words at keccak-spaced slots.

// DeriveSlot returns the storage slot for [prefix] applied to [key].
func DeriveSlot(prefix string, key []byte) common.Hash {
	return common.Hash(crypto.Keccak256Hash([]byte(prefix), key))
}

// SlotAdd returns [slot] offset by [n].
func SlotAdd(slot common.Hash, n uint64) common.Hash {
	v := new(big.Int).SetBytes(slot[:])
	v.Add(v, new(big.Int).SetUint64(n))
	return common.BigToHash(v)
}

// GetAddressState reads an address stored at [slot].
func GetAddressState(stateDB StateDB, contractAddr common.Address, slot common.Hash) common.Address {
	val := stateDB.GetState(contractAddr, slot)
	return common.BytesToAddress(val[12:])
}

// SetAddressState stores [addr] at [slot] with the set marker.
func SetAddressState(stateDB StateDB, contractAddr common.Address, slot common.Hash, addr common.Address) {
	var val common.Hash
	val[0] = 1
	copy(val[12:], addr.Bytes())
	stateDB.SetState(contractAddr, slot, val)
}

// StateIsSet reports whether [slot] carries the explicitly-set marker.
func StateIsSet(stateDB StateDB, contractAddr common.Address, slot common.Hash) bool {
	val := stateDB.GetState(contractAddr, slot)
	return val[0] != 0
}

// GetUint64State reads a uint64 stored at [slot]. Absent slots read as 0.
func GetUint64State(stateDB StateDB, contractAddr common.Address, slot common.Hash) uint64 {
	val := stateDB.GetState(contractAddr, slot)
	return binary.BigEndian.Uint64(val[24:])
}

// SetUint64State stores [v] at [slot] with the set marker.
func SetUint64State(stateDB StateDB, contractAddr common.Address, slot common.Hash, v uint64) {
	var val common.Hash
	val[0] = 1
	binary.BigEndian.PutUint64(val[24:], v)
	stateDB.SetState(contractAddr, slot, val)
}

// GetUint32State reads a uint32 stored at [slot]. Absent slots read as 0.
func GetUint32State(stateDB StateDB, contractAddr common.Address, slot common.Hash) uint32 {
	val := stateDB.GetState(contractAddr, slot)
	return binary.BigEndian.Uint32(val[28:])
}

// SetUint32State stores [v] at [slot] with the set marker.
func SetUint32State(stateDB StateDB, contractAddr common.Address, slot common.Hash, v uint32) {
	var val common.Hash
	val[0] = 1
	binary.BigEndian.PutUint32(val[28:], v)
	stateDB.SetState(contractAddr, slot, val)
}

// GetBigState reads a non-negative big integer stored at [slot].
func GetBigState(stateDB StateDB, contractAddr common.Address, slot common.Hash) *big.Int {
	val := stateDB.GetState(contractAddr, slot)
	return new(big.Int).SetBytes(val[:])
}

// SetBigState stores [v] at [slot] as a 32-byte big-endian word.
// Values must fit 256 bits; callers in this suite bound them far lower.
func SetBigState(stateDB StateDB, contractAddr common.Address, slot common.Hash, v *big.Int) {
	stateDB.SetState(contractAddr, slot, common.BigToHash(v))
}

// GetBytesState reads a byte blob rooted at [slot].
func GetBytesState(stateDB StateDB, contractAddr common.Address, slot common.Hash) []byte {
	length := GetUint64State(stateDB, contractAddr, slot)
	if length == 0 {
		return nil
	}
	data := make([]byte, 0, length)
	chunkBase := common.Hash(crypto.Keccak256Hash(slot[:]))
	for i := uint64(0); i*32 < length; i++ {
		word := stateDB.GetState(contractAddr, SlotAdd(chunkBase, i))
		data = append(data, word[:]...)
	}
	return data[:length]
}

// SetBytesState stores [data] rooted at [slot]: the length in the base slot
// and the payload in 32-byte chunks at keccak-spaced slots.
func SetBytesState(stateDB StateDB, contractAddr common.Address, slot common.Hash, data []byte) {
	SetUint64State(stateDB, contractAddr, slot, uint64(len(data)))
	chunkBase := common.Hash(crypto.Keccak256Hash(slot[:]))
	for i := uint64(0); i*32 < uint64(len(data)); i++ {
		var word common.Hash
		copy(word[:], data[i*32:])
		stateDB.SetState(contractAddr, SlotAdd(chunkBase, i), word)
	}
}
