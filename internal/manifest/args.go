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

package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/selector"
)

var (
	// ErrArgCount is returned when the number of arguments does not match the signature.
	ErrArgCount = errors.New("diamond(manifest): argument count mismatch")
	// ErrArgType is returned for parameter types the encoder does not support.
	ErrArgType = errors.New("diamond(manifest): unsupported parameter type")
)

// ParamTypes returns the parameter types of a flat signature such as
// "transfer(address,uint256)".
func ParamTypes(sig string) ([]string, error) {
	open, end := strings.IndexByte(sig, '('), strings.LastIndexByte(sig, ')')
	if open < 0 || end < open {
		return nil, fmt.Errorf("diamond(manifest): malformed signature %q", sig)
	}
	inner := strings.TrimSpace(sig[open+1 : end])
	if inner == "" {
		return nil, nil
	}
	if strings.ContainsAny(inner, "()[]") {
		return nil, fmt.Errorf("%w: %s", ErrArgType, inner)
	}
	types := strings.Split(inner, ",")
	for i := range types {
		types[i] = strings.TrimSpace(types[i])
	}
	return types, nil
}

// EncodeCall builds calldata for sig from textual args.
func EncodeCall(sig string, args []string) ([]byte, error) {
	types, err := ParamTypes(sig)
	if err != nil {
		return nil, err
	}
	if len(types) != len(args) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, sig, len(types), len(args))
	}
	vals := make([]any, len(args))
	for i, typ := range types {
		if vals[i], err = parseArg(typ, args[i]); err != nil {
			return nil, fmt.Errorf("diamond(manifest): %s arg %d: %w", sig, i, err)
		}
	}
	return abi.Pack(selector.Of(sig), vals...)
}

func parseArg(typ, s string) (any, error) {
	switch typ {
	case "address":
		return apis.ParseAddress(s)
	case "bytes4":
		return apis.ParseSelector(s)
	case "bool":
		return strconv.ParseBool(s)
	case "string":
		return s, nil
	case "bytes":
		return hex.DecodeString(strings.TrimPrefix(s, "0x"))
	case "uint8":
		v, err := strconv.ParseUint(s, 0, 8)
		return uint8(v), err
	case "uint16":
		v, err := strconv.ParseUint(s, 0, 16)
		return uint16(v), err
	case "uint32":
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), err
	case "uint64":
		return strconv.ParseUint(s, 0, 64)
	case "uint256", "bytes32":
		return ParseWord(s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrArgType, typ)
	}
}

// ParseWord parses a non-negative integer that fits 256 bits. Decimal,
// 0x hex and a decimal with an "e<N>" exponent suffix ("2500000e18") are
// accepted.
func ParseWord(s string) (apis.Word, error) {
	mant, exp, hasExp := strings.Cut(s, "e")
	if strings.HasPrefix(s, "0x") {
		mant, hasExp = s, false
	}
	x, ok := new(big.Int).SetString(mant, 0)
	if !ok {
		return apis.Word{}, fmt.Errorf("invalid integer %q", s)
	}
	if hasExp {
		n, err := strconv.ParseUint(exp, 10, 8)
		if err != nil {
			return apis.Word{}, fmt.Errorf("invalid exponent in %q", s)
		}
		x.Mul(x, new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(n), nil))
	}
	if x.Sign() < 0 || x.BitLen() > 256 {
		return apis.Word{}, fmt.Errorf("integer %q out of range", s)
	}
	return apis.WordFromBig(x), nil
}
