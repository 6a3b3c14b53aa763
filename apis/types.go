/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package apis

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// ErrInvalidHex is returned when a hex literal cannot be decoded into
// a fixed-width value.
var ErrInvalidHex = errors.New("diamond(apis): invalid hex literal")

// Address identifies callers, modules and the router itself.
// The zero Address is the "absent" address.
type Address [20]byte

// ZeroAddress is the absent address.
var ZeroAddress Address

// IsZero reports whether a is the absent address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String renders a as 0x-prefixed lowercase hex.
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// ParseAddress decodes a 0x-prefixed (or bare) 40 digit hex string.
func ParseAddress(s string) (Address, error) {
	var a Address
	if err := decodeFixed(s, a[:]); err != nil {
		return ZeroAddress, err
	}
	return a, nil
}

// Selector is the fixed-width function identifier used to route calls.
type Selector [4]byte

// String renders s as 0x-prefixed lowercase hex.
func (s Selector) String() string { return "0x" + hex.EncodeToString(s[:]) }

// ParseSelector decodes a 0x-prefixed (or bare) 8 digit hex string.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	if err := decodeFixed(s, sel[:]); err != nil {
		return Selector{}, err
	}
	return sel, nil
}

// SelectorOf returns the selector carried by calldata. Inputs shorter than
// four bytes are zero padded on the right.
func SelectorOf(data []byte) Selector {
	var sel Selector
	copy(sel[:], data)
	return sel
}

// Word is a 32 byte storage word. Numeric helpers treat it as a big-endian
// unsigned 256-bit integer.
type Word [32]byte

// IsZero reports whether w is all zeros.
func (w Word) IsZero() bool { return w == Word{} }

// String renders w as 0x-prefixed lowercase hex.
func (w Word) String() string { return "0x" + hex.EncodeToString(w[:]) }

// Big returns w as a non-negative big.Int.
func (w Word) Big() *big.Int { return new(big.Int).SetBytes(w[:]) }

// Uint64 returns the low 64 bits of w.
func (w Word) Uint64() uint64 { return binary.BigEndian.Uint64(w[24:]) }

// Address returns the low 20 bytes of w.
func (w Word) Address() Address {
	var a Address
	copy(a[:], w[12:])
	return a
}

// Add returns w+n modulo 2^256.
func (w Word) Add(n uint64) Word {
	var out Word
	carry := n
	for i := len(w) - 8; i >= 0; i -= 8 {
		cur := binary.BigEndian.Uint64(w[i : i+8])
		sum := cur + carry
		if sum < cur {
			carry = 1
		} else {
			carry = 0
		}
		binary.BigEndian.PutUint64(out[i:i+8], sum)
	}
	return out
}

// WordFromUint64 returns n as a Word.
func WordFromUint64(n uint64) Word {
	var w Word
	binary.BigEndian.PutUint64(w[24:], n)
	return w
}

// WordFromBig returns x modulo 2^256 as a Word. Negative values are
// encoded as their absolute value.
func WordFromBig(x *big.Int) Word {
	var w Word
	if x == nil {
		return w
	}
	b := new(big.Int).Abs(x).Bytes()
	if len(b) > len(w) {
		b = b[len(b)-len(w):]
	}
	copy(w[len(w)-len(b):], b)
	return w
}

// AddressWord left-pads a into a Word.
func AddressWord(a Address) Word {
	var w Word
	copy(w[12:], a[:])
	return w
}

func decodeFixed(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*len(dst) {
		return ErrInvalidHex
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return ErrInvalidHex
	}
	return nil
}
