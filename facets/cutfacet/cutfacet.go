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

// Package cutfacet exposes the owner-gated diamondCut entry point.
package cutfacet

import (
	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/cut"
	"dirpx.dev/diamond/facets/ownership"
	"dirpx.dev/diamond/selector"
)

// SelDiamondCut is 0x1f931c1c. Removing it from the routing table
// disables upgrades for good.
var SelDiamondCut = selector.Of("diamondCut((address,uint8,bytes4[])[],address,bytes)")

// Facet decodes diamondCut calldata, checks ownership and hands the batch
// to a cut.Coordinator.
type Facet struct {
	coordinator *cut.Coordinator
}

// New returns a cut facet driving c. A nil c uses cut.Default().
func New(c *cut.Coordinator) *Facet {
	if c == nil {
		c = cut.Default()
	}
	return &Facet{coordinator: c}
}

// Ensure Facet implements apis.Module and apis.Describer.
var (
	_ apis.Module    = (*Facet)(nil)
	_ apis.Describer = (*Facet)(nil)
)

// FacetName returns "DiamondCutFacet".
func (*Facet) FacetName() string { return "DiamondCutFacet" }

// Selectors lists the facet surface.
func (*Facet) Selectors() []apis.Selector { return []apis.Selector{SelDiamondCut} }

// Invoke runs diamondCut(cuts, init, calldata).
func (c *Facet) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	sel := apis.SelectorOf(input)
	if sel != SelDiamondCut {
		return nil, apis.Revertf("cut: unknown selector %s", sel)
	}
	var (
		cuts     []apis.FacetCut
		init     apis.Address
		calldata []byte
	)
	if err := abi.Unpack(input, &cuts, &init, &calldata); err != nil {
		return nil, abi.Malformed(sel, err)
	}
	if err := ownership.RequireOwner(f); err != nil {
		return nil, err
	}
	return nil, c.coordinator.Cut(f, cuts, init, calldata)
}

// Calldata encodes a diamondCut call.
func Calldata(cuts []apis.FacetCut, init apis.Address, calldata []byte) ([]byte, error) {
	if calldata == nil {
		calldata = []byte{}
	}
	return abi.Pack(SelDiamondCut, cuts, init, calldata)
}
