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
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/partition"
)

func conflict(cut apis.FacetCut, sel apis.Selector, reason string) error {
	return &apis.CutError{
		Index:    -1,
		Action:   cut.Action,
		Module:   cut.Module,
		Selector: sel,
		Err:      apis.ErrRouteConflict,
		Reason:   reason,
	}
}

// Apply validates cut against the current table and applies it selector by
// selector. On error the table may be partially updated; callers run it
// inside a journal that is discarded on failure.
func (t *table) Apply(cut apis.FacetCut) error {
	if len(cut.Selectors) == 0 {
		return &apis.CutError{
			Index:  -1,
			Action: cut.Action,
			Module: cut.Module,
			Err:    apis.ErrEmptyBatch,
			Reason: "no selectors in facet to cut",
		}
	}
	switch cut.Action {
	case apis.Add:
		return t.add(cut)
	case apis.Replace:
		return t.replace(cut)
	case apis.Remove:
		return t.remove(cut)
	default:
		return conflict(cut, apis.Selector{}, "incorrect facet cut action")
	}
}

func (t *table) add(cut apis.FacetCut) error {
	if cut.Module.IsZero() {
		return conflict(cut, apis.Selector{}, "add facet can't be address(0)")
	}
	for _, sel := range cut.Selectors {
		r, err := t.loadRoute(sel)
		if err != nil {
			return err
		}
		if r.pos != 0 {
			return conflict(cut, sel, "can't add function that already exists")
		}
		if err := t.addSelector(sel, cut.Module); err != nil {
			return err
		}
	}
	return nil
}

func (t *table) replace(cut apis.FacetCut) error {
	if cut.Module.IsZero() {
		return conflict(cut, apis.Selector{}, "replace facet can't be address(0)")
	}
	for _, sel := range cut.Selectors {
		r, err := t.loadRoute(sel)
		if err != nil {
			return err
		}
		if r.pos == 0 {
			return conflict(cut, sel, "can't replace function that doesn't exist")
		}
		if r.module == cut.Module {
			return conflict(cut, sel, "can't replace function with same function")
		}
		if err := t.removeSelector(sel, r); err != nil {
			return err
		}
		if err := t.addSelector(sel, cut.Module); err != nil {
			return err
		}
	}
	return nil
}

func (t *table) remove(cut apis.FacetCut) error {
	if !cut.Module.IsZero() {
		return conflict(cut, apis.Selector{}, "remove facet address must be address(0)")
	}
	for _, sel := range cut.Selectors {
		r, err := t.loadRoute(sel)
		if err != nil {
			return err
		}
		if r.pos == 0 {
			return conflict(cut, sel, "can't remove function that doesn't exist")
		}
		if err := t.removeSelector(sel, r); err != nil {
			return err
		}
	}
	return nil
}

// addSelector appends sel to module's list, registering module first if
// it owns nothing yet.
func (t *table) addSelector(sel apis.Selector, module apis.Address) error {
	mslot := t.moduleSlot(module)
	n, err := t.st.Load(mslot)
	if err != nil {
		return err
	}
	if n.IsZero() {
		if err := t.appendModule(module); err != nil {
			return err
		}
	}
	idx := n.Uint64()
	if err := t.st.Store(partition.ArraySlot(mslot, idx), selectorWord(sel)); err != nil {
		return err
	}
	if err := t.st.Store(mslot, apis.WordFromUint64(idx+1)); err != nil {
		return err
	}
	return t.st.Store(t.routeSlot(sel), packRoute(route{module: module, pos: uint32(idx + 1)}))
}

// removeSelector drops sel from its module's list, keeping the remaining
// selectors in order, and drops the module once it owns nothing.
func (t *table) removeSelector(sel apis.Selector, r route) error {
	mslot := t.moduleSlot(r.module)
	nw, err := t.st.Load(mslot)
	if err != nil {
		return err
	}
	n := nw.Uint64()
	for i := uint64(r.pos); i < n; i++ {
		w, err := t.st.Load(partition.ArraySlot(mslot, i))
		if err != nil {
			return err
		}
		if err := t.st.Store(partition.ArraySlot(mslot, i-1), w); err != nil {
			return err
		}
		moved := apis.SelectorOf(w[:4])
		if err := t.st.Store(t.routeSlot(moved), packRoute(route{module: r.module, pos: uint32(i)})); err != nil {
			return err
		}
	}
	if err := t.st.Store(partition.ArraySlot(mslot, n-1), apis.Word{}); err != nil {
		return err
	}
	if err := t.st.Store(mslot, apis.WordFromUint64(n-1)); err != nil {
		return err
	}
	if err := t.st.Store(t.routeSlot(sel), apis.Word{}); err != nil {
		return err
	}
	if n-1 == 0 {
		return t.dropModule(r.module)
	}
	return nil
}

func (t *table) appendModule(module apis.Address) error {
	listSlot := t.region.Slot(fieldModuleList)
	nw, err := t.st.Load(listSlot)
	if err != nil {
		return err
	}
	n := nw.Uint64()
	if err := t.st.Store(partition.ArraySlot(listSlot, n), apis.AddressWord(module)); err != nil {
		return err
	}
	if err := t.st.Store(listSlot, apis.WordFromUint64(n+1)); err != nil {
		return err
	}
	return t.st.Store(t.moduleSlot(module).Add(1), apis.WordFromUint64(n+1))
}

func (t *table) dropModule(module apis.Address) error {
	posSlot := t.moduleSlot(module).Add(1)
	pw, err := t.st.Load(posSlot)
	if err != nil {
		return err
	}
	pos := pw.Uint64()
	listSlot := t.region.Slot(fieldModuleList)
	nw, err := t.st.Load(listSlot)
	if err != nil {
		return err
	}
	n := nw.Uint64()
	for i := pos; i < n; i++ {
		w, err := t.st.Load(partition.ArraySlot(listSlot, i))
		if err != nil {
			return err
		}
		if err := t.st.Store(partition.ArraySlot(listSlot, i-1), w); err != nil {
			return err
		}
		if err := t.st.Store(t.moduleSlot(w.Address()).Add(1), apis.WordFromUint64(i)); err != nil {
			return err
		}
	}
	if err := t.st.Store(partition.ArraySlot(listSlot, n-1), apis.Word{}); err != nil {
		return err
	}
	if err := t.st.Store(listSlot, apis.WordFromUint64(n-1)); err != nil {
		return err
	}
	return t.st.Store(posSlot, apis.Word{})
}
