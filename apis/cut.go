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

import "strconv"

// Action is the kind of change a FacetCut applies to the routing table.
type Action uint8

const (
	// Add maps currently unmapped selectors to a module.
	Add Action = iota
	// Replace moves mapped selectors from their current module to another one.
	Replace
	// Remove unmaps selectors. The module address must be zero.
	Remove
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Add:
		return "Add"
	case Replace:
		return "Replace"
	case Remove:
		return "Remove"
	default:
		return "Action(" + strconv.Itoa(int(a)) + ")"
	}
}

// FacetCut is a single entry of an upgrade batch.
type FacetCut struct {
	// Module is the target module. Must be zero for Remove.
	Module Address `msgpack:"module"`
	// Action selects Add, Replace or Remove.
	Action Action `msgpack:"action"`
	// Selectors lists the function identifiers affected by this entry.
	Selectors []Selector `msgpack:"selectors"`
}

// Facet is an introspection row: a module and the selectors it owns.
type Facet struct {
	Module    Address    `msgpack:"module"`
	Selectors []Selector `msgpack:"selectors"`
}
