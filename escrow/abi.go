// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import (
	"encoding/binary"
	"math/big"
	"sort"

	"github.com/luxfi/geth/common"
)

// Calldata is a 4-byte selector followed by fixed 32-byte argument words.
// createPackage carries the metadata blob after its five words:
//
//	init(address)                 admin word
//	fund(...)                     token | from | amount
//	createPackage(...)            id | recipient | amount | token | expiresAt | metadata blob
//	claim/refund/revoke/getPackage id
//	getRecipientPackageCount(...) recipient word
//	getAdmin()                    no args
//
// Metadata blob: entry count (uint16), then per entry
// keyLen (uint8) | key | valLen (uint16) | value, entries sorted by key.

const wordSize = 32

func byteAmount(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

func word(args []byte, i int) ([]byte, bool) {
	if len(args) < (i+1)*wordSize {
		return nil, false
	}
	return args[i*wordSize : (i+1)*wordSize], true
}

func wordAddress(args []byte, i int) (common.Address, bool) {
	w, ok := word(args, i)
	if !ok {
		return common.Address{}, false
	}
	return common.BytesToAddress(w[12:]), true
}

func wordHash(args []byte, i int) (common.Hash, bool) {
	w, ok := word(args, i)
	if !ok {
		return common.Hash{}, false
	}
	return common.BytesToHash(w), true
}

func wordUint64(args []byte, i int) (uint64, bool) {
	w, ok := word(args, i)
	if !ok {
		return 0, false
	}
	for _, b := range w[:24] {
		if b != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(w[24:]), true
}

func wordBig(args []byte, i int) (*big.Int, bool) {
	w, ok := word(args, i)
	if !ok {
		return nil, false
	}
	return new(big.Int).SetBytes(w), true
}

func appendAddressWord(out []byte, addr common.Address) []byte {
	var w [wordSize]byte
	copy(w[12:], addr.Bytes())
	return append(out, w[:]...)
}

func appendHashWord(out []byte, h common.Hash) []byte {
	return append(out, h[:]...)
}

func appendUint64Word(out []byte, v uint64) []byte {
	var w [wordSize]byte
	binary.BigEndian.PutUint64(w[24:], v)
	return append(out, w[:]...)
}

func appendBigWord(out []byte, v *big.Int) []byte {
	var w [wordSize]byte
	v.FillBytes(w[:])
	return append(out, w[:]...)
}

func encodeMetadata(md Metadata) []byte {
	keys := make([]string, 0, len(md))
	size := 2
	for k, v := range md {
		keys = append(keys, k)
		size += 1 + len(k) + 2 + len(v)
	}
	// map iteration order is random; the wire form must be stable
	sort.Strings(keys)

	out := make([]byte, 2, size)
	binary.BigEndian.PutUint16(out, uint16(len(keys)))
	for _, k := range keys {
		v := md[k]
		out = append(out, byte(len(k)))
		out = append(out, k...)
		var vlen [2]byte
		binary.BigEndian.PutUint16(vlen[:], uint16(len(v)))
		out = append(out, vlen[:]...)
		out = append(out, v...)
	}
	return out
}

// decodeMetadata parses a metadata blob and requires it to be consumed
// exactly.
func decodeMetadata(blob []byte) (Metadata, error) {
	if len(blob) < 2 {
		return nil, ErrInvalidInput
	}
	count := binary.BigEndian.Uint16(blob)
	rest := blob[2:]
	md := Metadata{}
	for i := uint16(0); i < count; i++ {
		if len(rest) < 1 {
			return nil, ErrInvalidInput
		}
		klen := int(rest[0])
		rest = rest[1:]
		if klen == 0 || klen > maxMetadataKeyLen || len(rest) < klen+2 {
			return nil, ErrInvalidInput
		}
		key := string(rest[:klen])
		vlen := int(binary.BigEndian.Uint16(rest[klen : klen+2]))
		rest = rest[klen+2:]
		if len(rest) < vlen {
			return nil, ErrInvalidInput
		}
		md[key] = string(rest[:vlen])
		rest = rest[vlen:]
	}
	if len(rest) != 0 {
		return nil, ErrInvalidInput
	}
	return md, nil
}

// ValidMetadata reports whether every key fits the symbol bound and every
// value fits the 16-bit length prefix.
func ValidMetadata(md Metadata) bool {
	for k, v := range md {
		if len(k) == 0 || len(k) > maxMetadataKeyLen || len(v) > 0xFFFF {
			return false
		}
	}
	return true
}

// Packers, shared by the off-chain client and the tests.

func PackInit(admin common.Address) []byte {
	out := append([]byte{}, SelectorInit[:]...)
	return appendAddressWord(out, admin)
}

func PackFund(token common.Hash, from common.Address, amount *big.Int) []byte {
	out := append([]byte{}, SelectorFund[:]...)
	out = appendHashWord(out, token)
	out = appendAddressWord(out, from)
	return appendBigWord(out, amount)
}

func PackCreatePackage(id uint64, recipient common.Address, amount *big.Int, token common.Hash, expiresAt uint64, md Metadata) []byte {
	out := append([]byte{}, SelectorCreatePackage[:]...)
	out = appendUint64Word(out, id)
	out = appendAddressWord(out, recipient)
	out = appendBigWord(out, amount)
	out = appendHashWord(out, token)
	out = appendUint64Word(out, expiresAt)
	return append(out, encodeMetadata(md)...)
}

func PackClaim(id uint64) []byte {
	return appendUint64Word(append([]byte{}, SelectorClaim[:]...), id)
}

func PackRefund(id uint64) []byte {
	return appendUint64Word(append([]byte{}, SelectorRefund[:]...), id)
}

func PackRevoke(id uint64) []byte {
	return appendUint64Word(append([]byte{}, SelectorRevoke[:]...), id)
}

func PackGetPackage(id uint64) []byte {
	return appendUint64Word(append([]byte{}, SelectorGetPackage[:]...), id)
}

func PackGetRecipientPackageCount(recipient common.Address) []byte {
	return appendAddressWord(append([]byte{}, SelectorGetRecipientCount[:]...), recipient)
}

func PackGetAdmin() []byte {
	return append([]byte{}, SelectorGetAdmin[:]...)
}

// UnpackPackage decodes a getPackage return blob.
func UnpackPackage(id uint64, ret []byte) (*Package, error) {
	return decodePackage(id, ret)
}

// UnpackUint64 decodes a single uint64 return word.
func UnpackUint64(ret []byte) (uint64, error) {
	v, ok := wordUint64(ret, 0)
	if !ok {
		return 0, ErrInvalidInput
	}
	return v, nil
}

// UnpackUint32 decodes a single uint32 return word.
func UnpackUint32(ret []byte) (uint32, error) {
	v, ok := wordUint64(ret, 0)
	if !ok || v > 0xFFFFFFFF {
		return 0, ErrInvalidInput
	}
	return uint32(v), nil
}

// UnpackAddress decodes a single address return word.
func UnpackAddress(ret []byte) (common.Address, error) {
	addr, ok := wordAddress(ret, 0)
	if !ok {
		return common.Address{}, ErrInvalidInput
	}
	return addr, nil
}
