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

// Package loupe exposes read-only introspection of the routing table and
// ERC-165 interface detection. Every query reads the table of the running
// call, so results are never stale.
package loupe

import (
	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/facets/cutfacet"
	"dirpx.dev/diamond/facets/ownership"
	"dirpx.dev/diamond/partition"
	"dirpx.dev/diamond/registry"
	"dirpx.dev/diamond/selector"
)

var (
	SelFacets                 = selector.Of("facets()")
	SelFacetFunctionSelectors = selector.Of("facetFunctionSelectors(address)")
	SelFacetAddresses         = selector.Of("facetAddresses()")
	SelFacetAddress           = selector.Of("facetAddress(bytes4)")
	SelSupportsInterface      = selector.Of("supportsInterface(bytes4)")
)

// Interface ids registered by the standard initializer.
var (
	ERC165ID = selector.Interface(SelSupportsInterface)
	LoupeID  = selector.Interface(SelFacets, SelFacetFunctionSelectors, SelFacetAddresses, SelFacetAddress)
	CutID    = selector.Interface(cutfacet.SelDiamondCut)
	ERC173ID = selector.Interface(ownership.SelOwner, ownership.SelTransferOwnership)
)

var erc165 = partition.For(partition.ERC165Namespace)

const fieldSupported = 0

// SetSupported records whether the router supports interface id.
func SetSupported(st apis.Storage, id apis.Selector, supported bool) error {
	var w apis.Word
	if supported {
		w = apis.WordFromUint64(1)
	}
	return st.Store(erc165.Mapping(fieldSupported, id[:]), w)
}

// Supported reports whether interface id was registered.
func Supported(st apis.Storage, id apis.Selector) (bool, error) {
	w, err := st.Load(erc165.Mapping(fieldSupported, id[:]))
	if err != nil {
		return false, err
	}
	return !w.IsZero(), nil
}

// Facet answers introspection queries.
type Facet struct{}

// New returns the loupe facet.
func New() *Facet { return &Facet{} }

// Ensure Facet implements apis.Module and apis.Describer.
var (
	_ apis.Module    = (*Facet)(nil)
	_ apis.Describer = (*Facet)(nil)
)

// FacetName returns "DiamondLoupeFacet".
func (*Facet) FacetName() string { return "DiamondLoupeFacet" }

// Selectors lists the facet surface.
func (*Facet) Selectors() []apis.Selector {
	return []apis.Selector{
		SelFacets,
		SelFacetFunctionSelectors,
		SelFacetAddresses,
		SelFacetAddress,
		SelSupportsInterface,
	}
}

// Invoke answers a loupe query.
func (*Facet) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	tbl := registry.New(f.Storage())
	switch sel := apis.SelectorOf(input); sel {
	case SelFacets:
		facets, err := tbl.Facets()
		if err != nil {
			return nil, err
		}
		return abi.Encode(facets)
	case SelFacetFunctionSelectors:
		var module apis.Address
		if err := abi.Unpack(input, &module); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		sels, err := tbl.Selectors(module)
		if err != nil {
			return nil, err
		}
		return abi.Encode(sels)
	case SelFacetAddresses:
		mods, err := tbl.Modules()
		if err != nil {
			return nil, err
		}
		return abi.Encode(mods)
	case SelFacetAddress:
		var target apis.Selector
		if err := abi.Unpack(input, &target); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		module, _, err := tbl.Resolve(target)
		if err != nil {
			return nil, err
		}
		return abi.Encode(module)
	case SelSupportsInterface:
		var id apis.Selector
		if err := abi.Unpack(input, &id); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		ok, err := Supported(f.Storage(), id)
		if err != nil {
			return nil, err
		}
		return abi.Encode(ok)
	default:
		return nil, apis.Revertf("loupe: unknown selector %s", sel)
	}
}

// Init is an initializer module registering the ERC-165, loupe, cut and
// ERC-173 interface ids. Pass its address as the cut initializer.
type Init struct{}

// SelInit is the selector of Init's only entry point.
var SelInit = selector.Of("init()")

// FacetName returns "DiamondInit".
func (Init) FacetName() string { return "DiamondInit" }

// Invoke registers the standard interface ids.
func (Init) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	if sel := apis.SelectorOf(input); sel != SelInit {
		return nil, apis.Revertf("loupe init: unknown selector %s", sel)
	}
	for _, id := range []apis.Selector{ERC165ID, LoupeID, CutID, ERC173ID} {
		if err := SetSupported(f.Storage(), id, true); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
