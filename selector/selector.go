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

// Package selector derives function identifiers from canonical signatures.
package selector

import (
	"strings"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/partition"
)

// Of returns the first four bytes of keccak256(signature). Whitespace in
// the signature is ignored so "transfer(address, uint256)" and
// "transfer(address,uint256)" agree.
func Of(signature string) apis.Selector {
	sig := strings.Join(strings.Fields(signature), "")
	h := partition.Keccak([]byte(sig))
	var sel apis.Selector
	copy(sel[:], h[:4])
	return sel
}

// All returns the selectors of signatures, in order.
func All(signatures ...string) []apis.Selector {
	out := make([]apis.Selector, 0, len(signatures))
	for _, s := range signatures {
		out = append(out, Of(s))
	}
	return out
}

// Interface returns the ERC-165 interface id of a set of selectors: the
// XOR of all of them.
func Interface(sels ...apis.Selector) apis.Selector {
	var id apis.Selector
	for _, s := range sels {
		for i := range id {
			id[i] ^= s[i]
		}
	}
	return id
}

// Contains reports whether sel is in sels.
func Contains(sels []apis.Selector, sel apis.Selector) bool {
	for _, s := range sels {
		if s == sel {
			return true
		}
	}
	return false
}
