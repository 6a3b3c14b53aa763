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


package registry

import (
	"encoding/binary"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/partition"
)

// Field layout of the routing region.
const (
	// fieldRoutes is mapping(selector => word{position:4 | ... | module:20}).
	fieldRoutes = 0
	// fieldModules is mapping(module => struct{selectors[] at +0; position at +1}).
	fieldModules = 1
	// fieldModuleList is the ordered array of modules owning selectors.
	fieldModuleList = 2
)

// New returns a RoutingTable stored in st under partition.RoutingNamespace.
func New(st apis.Storage) apis.RoutingTable {
	return &table{st: st, region: partition.For(partition.RoutingNamespace)}
}

// table is a RoutingTable laid out in the router storage.
type table struct {
	// st is the storage view of the running call.
	st apis.Storage
	// region is the routing partition.
	region partition.Region
}

// Ensure table implements apis.RoutingTable.
var _ apis.RoutingTable = (*table)(nil)

// route is the decoded value of a selector mapping slot.
type route struct {
	module apis.Address
	// pos is the 1-based index of the selector in the module's list.
	pos uint32
}

func packRoute(r route) apis.Word {
	var w apis.Word
	binary.BigEndian.PutUint32(w[:4], r.pos)
	copy(w[12:], r.module[:])
	return w
}

func unpackRoute(w apis.Word) route {
	return route{module: w.Address(), pos: binary.BigEndian.Uint32(w[:4])}
}

func selectorWord(sel apis.Selector) apis.Word {
	var w apis.Word
	copy(w[:4], sel[:])
	return w
}

func (t *table) routeSlot(sel apis.Selector) apis.Word {
	return t.region.Mapping(fieldRoutes, sel[:])
}

// moduleSlot returns the slot of the module struct; its selector array
// length lives there and its list position at the next slot.
func (t *table) moduleSlot(module apis.Address) apis.Word {
	return t.region.Mapping(fieldModules, module[:])
}

func (t *table) loadRoute(sel apis.Selector) (route, error) {
	w, err := t.st.Load(t.routeSlot(sel))
	if err != nil {
		return route{}, err
	}
	return unpackRoute(w), nil
}

// Resolve returns the module owning sel, if any.
func (t *table) Resolve(sel apis.Selector) (apis.Address, bool, error) {
	r, err := t.loadRoute(sel)
	if err != nil {
		return apis.ZeroAddress, false, err
	}
	if r.pos == 0 {
		return apis.ZeroAddress, false, nil
	}
	return r.module, true, nil
}

// Modules returns the modules owning at least one selector, in insertion order.
func (t *table) Modules() ([]apis.Address, error) {
	listSlot := t.region.Slot(fieldModuleList)
	n, err := t.st.Load(listSlot)
	if err != nil {
		return nil, err
	}
	out := make([]apis.Address, 0, n.Uint64())
	for i := uint64(0); i < n.Uint64(); i++ {
		w, err := t.st.Load(partition.ArraySlot(listSlot, i))
		if err != nil {
			return nil, err
		}
		out = append(out, w.Address())
	}
	return out, nil
}

// Selectors returns the selectors owned by module, in insertion order.
func (t *table) Selectors(module apis.Address) ([]apis.Selector, error) {
	slot := t.moduleSlot(module)
	n, err := t.st.Load(slot)
	if err != nil {
		return nil, err
	}
	out := make([]apis.Selector, 0, n.Uint64())
	for i := uint64(0); i < n.Uint64(); i++ {
		w, err := t.st.Load(partition.ArraySlot(slot, i))
		if err != nil {
			return nil, err
		}
		out = append(out, apis.SelectorOf(w[:4]))
	}
	return out, nil
}

// Facets returns every module together with its selectors.
func (t *table) Facets() ([]apis.Facet, error) {
	mods, err := t.Modules()
	if err != nil {
		return nil, err
	}
	out := make([]apis.Facet, 0, len(mods))
	for _, m := range mods {
		sels, err := t.Selectors(m)
		if err != nil {
			return nil, err
		}
		out = append(out, apis.Facet{Module: m, Selectors: sels})
	}
	return out, nil
}
