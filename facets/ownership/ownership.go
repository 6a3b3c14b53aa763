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

// Package ownership is the single-owner authority gating upgrades.
//
// The owner lives in its own storage partition. It is set once when the
// router is created and changed only by the current owner. Transferring
// to an address nobody controls, together with removing the cut
// selector, makes the router permanently immutable.
package ownership

import (
	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/partition"
	"dirpx.dev/diamond/selector"
)

// EventName is emitted on every owner change, including the initial one.
const EventName = "OwnershipTransferred"

var (
	SelOwner             = selector.Of("owner()")
	SelTransferOwnership = selector.Of("transferOwnership(address)")
)

var region = partition.For(partition.OwnershipNamespace)

const fieldOwner = 0

// Owner returns the current owner recorded in st.
func Owner(st apis.Storage) (apis.Address, error) {
	return region.LoadAddress(st, fieldOwner)
}

// SetOwner records next as owner without any authorization check and emits
// OwnershipTransferred. Used at router creation.
func SetOwner(f apis.Frame, next apis.Address) error {
	prev, err := Owner(f.Storage())
	if err != nil {
		return err
	}
	if err := region.StoreAddress(f.Storage(), fieldOwner, next); err != nil {
		return err
	}
	f.Emit(apis.Event{Name: EventName, Payload: apis.OwnershipTransferred{Previous: prev, Next: next}})
	return nil
}

// RequireOwner fails with apis.ErrNotOwner unless the frame caller is the owner.
func RequireOwner(f apis.Frame) error {
	owner, err := Owner(f.Storage())
	if err != nil {
		return err
	}
	if f.Caller() != owner {
		return apis.ErrNotOwner
	}
	return nil
}

// Transfer hands ownership to next. Only the current owner may call it.
func Transfer(f apis.Frame, next apis.Address) error {
	if err := RequireOwner(f); err != nil {
		return err
	}
	return SetOwner(f, next)
}

// Facet exposes owner() and transferOwnership(address).
type Facet struct{}

// New returns the ownership facet.
func New() *Facet { return &Facet{} }

// Ensure Facet implements apis.Module and apis.Describer.
var (
	_ apis.Module    = (*Facet)(nil)
	_ apis.Describer = (*Facet)(nil)
)

// FacetName returns "OwnershipFacet".
func (*Facet) FacetName() string { return "OwnershipFacet" }

// Selectors lists the facet surface.
func (*Facet) Selectors() []apis.Selector {
	return []apis.Selector{SelOwner, SelTransferOwnership}
}

// Invoke runs owner() or transferOwnership(address).
func (*Facet) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	switch sel := apis.SelectorOf(input); sel {
	case SelOwner:
		owner, err := Owner(f.Storage())
		if err != nil {
			return nil, err
		}
		return abi.Encode(owner)
	case SelTransferOwnership:
		var next apis.Address
		if err := abi.Unpack(input, &next); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		return nil, Transfer(f, next)
	default:
		return nil, apis.Revertf("ownership: unknown selector %s", sel)
	}
}
