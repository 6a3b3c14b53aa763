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

// RoutingTable maps selectors to modules and keeps the reverse indices
// needed for introspection. Implementations read and write through a
// Storage view, so every mutation is subject to the enclosing call's
// commit or rollback.
type RoutingTable interface {
	// Resolve returns the module owning sel, if any.
	Resolve(sel Selector) (module Address, ok bool, err error)
	// Apply validates and applies a single cut entry against current state.
	// Only the upgrade coordinator may call it.
	Apply(cut FacetCut) error
	// Modules returns the modules owning at least one selector, in insertion order.
	Modules() ([]Address, error)
	// Selectors returns the selectors owned by module, in insertion order.
	Selectors(module Address) ([]Selector, error)
	// Facets returns every module together with its selectors.
	Facets() ([]Facet, error)
}
