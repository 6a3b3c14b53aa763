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

// Package abi encodes calldata and return data exchanged with modules.
//
// Calldata is a four byte selector followed by a msgpack stream holding
// the arguments in order. Return data is a msgpack stream of the returned
// values. Fixed-width identity types (apis.Address, apis.Selector,
// apis.Word) travel as msgpack bin values.
package abi

import (
	"bytes"
	"errors"
	"fmt"

	"dirpx.dev/diamond/apis"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrShortCalldata is returned when calldata is shorter than a selector.
var ErrShortCalldata = errors.New("diamond(abi): calldata shorter than selector")

// Pack returns sel followed by the encoded args.
func Pack(sel apis.Selector, args ...any) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(sel[:])
	if len(args) > 0 {
		if err := msgpack.NewEncoder(&buf).EncodeMulti(args...); err != nil {
			return nil, fmt.Errorf("diamond(abi): encode args for %s: %w", sel, err)
		}
	}
	return buf.Bytes(), nil
}

// MustPack is like Pack but panics on error. Meant for static calldata.
func MustPack(sel apis.Selector, args ...any) []byte {
	b, err := Pack(sel, args...)
	if err != nil {
		panic(err)
	}
	return b
}

// Unpack decodes the arguments following the selector into ptrs.
func Unpack(data []byte, ptrs ...any) error {
	if len(data) < len(apis.Selector{}) {
		return ErrShortCalldata
	}
	return Decode(data[len(apis.Selector{}):], ptrs...)
}

// Encode encodes return values.
func Encode(vals ...any) ([]byte, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).EncodeMulti(vals...); err != nil {
		return nil, fmt.Errorf("diamond(abi): encode values: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes return data into ptrs.
func Decode(data []byte, ptrs ...any) error {
	if len(ptrs) == 0 {
		return nil
	}
	if err := msgpack.NewDecoder(bytes.NewReader(data)).DecodeMulti(ptrs...); err != nil {
		return fmt.Errorf("diamond(abi): decode values: %w", err)
	}
	return nil
}

// Malformed wraps a decoding failure into a module-level revert, the way
// modules report calldata they cannot parse.
func Malformed(sel apis.Selector, err error) error {
	return apis.Revertf("malformed calldata for %s: %v", sel, err)
}
