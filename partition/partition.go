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

// Package partition derives fixed, collision-resistant storage regions for
// components sharing the router's single storage space.
//
// A Region is identified by a namespace string. Its base slot is the
// Keccak-256 hash of the namespace, so unrelated modules compiled
// independently never overlap as long as they pick distinct namespaces.
// Inside a Region, fields, mappings and dynamic arrays follow the Solidity
// storage layout.
package partition

import (
	"dirpx.dev/diamond/apis"
	"golang.org/x/crypto/sha3"
)

// Namespaces used by the components shipped with this module.
const (
	RoutingNamespace   = "diamond.standard.diamond.storage"
	OwnershipNamespace = "diamond.standard.ownership.storage"
	ERC165Namespace    = "diamond.standard.erc165.storage"
	MetadataNamespace  = "diamond.erc20.metadata.storage"
	TokenNamespace     = "diamond.erc20.token.storage"
)

// Known lists the namespaces above. Collisions are checked by tests.
var Known = []string{
	RoutingNamespace,
	OwnershipNamespace,
	ERC165Namespace,
	MetadataNamespace,
	TokenNamespace,
}

// Region is a namespaced area of storage.
type Region struct {
	// Namespace is the logical name the region was derived from.
	Namespace string
	// Base is the first slot of the region.
	Base apis.Word
}

// For returns the region of namespace. It is pure and deterministic.
func For(namespace string) Region {
	return Region{Namespace: namespace, Base: Keccak([]byte(namespace))}
}

// Slot returns the slot of the field-th word of the region.
func (r Region) Slot(field uint64) apis.Word {
	return r.Base.Add(field)
}

// Mapping returns the slot holding key in the mapping declared at field.
func (r Region) Mapping(field uint64, key []byte) apis.Word {
	return MappingSlot(r.Slot(field), key)
}

// MappingSlot returns keccak256(leftpad32(key) ++ slot).
func MappingSlot(slot apis.Word, key []byte) apis.Word {
	var k apis.Word
	if len(key) > len(k) {
		key = key[len(key)-len(k):]
	}
	copy(k[len(k)-len(key):], key)
	return Keccak(k[:], slot[:])
}

// ArraySlot returns the slot of element index of the dynamic array whose
// length lives at slot.
func ArraySlot(slot apis.Word, index uint64) apis.Word {
	return Keccak(slot[:]).Add(index)
}

// Keccak returns the legacy Keccak-256 digest of the concatenated inputs.
func Keccak(parts ...[]byte) apis.Word {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var w apis.Word
	h.Sum(w[:0])
	return w
}
