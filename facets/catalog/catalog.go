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

// Package catalog maps facet names to constructors so that facets can be
// referenced by name from manifests and the command line.
package catalog

import (
	"errors"
	"sort"
	"sync"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/cut"
	"dirpx.dev/diamond/facets/cutfacet"
	"dirpx.dev/diamond/facets/erc20"
	"dirpx.dev/diamond/facets/loupe"
	"dirpx.dev/diamond/facets/ownership"
)

var (
	// ErrNilConstructor is returned when a nil constructor is provided.
	ErrNilConstructor = errors.New("diamond(catalog): nil constructor provided")
	// ErrEmptyName is returned when an empty name is provided.
	ErrEmptyName = errors.New("diamond(catalog): empty name provided")
	// ErrConflictingRegistration indicates an attempt to register a name twice.
	ErrConflictingRegistration = errors.New("diamond(catalog): conflicting registration")
)

// Constructor builds a fresh module. c is the coordinator a cut facet
// should drive; other facets ignore it.
type Constructor func(c *cut.Coordinator) apis.Module

// Entry is a catalog row.
type Entry struct {
	Name string
	New  Constructor
}

// New returns an empty catalog.
func New() *Catalog { return &Catalog{} }

// Catalog is a name to constructor registry safe for concurrent use.
type Catalog struct {
	// mu guards write-side consistency and count.
	mu sync.Mutex
	// m maps name to Constructor.
	m sync.Map
	// count tracks the number of entries.
	count int
}

// Register associates name with ctor.
func (c *Catalog) Register(name string, ctor Constructor) error {
	if name == "" {
		return ErrEmptyName
	}
	if ctor == nil {
		return ErrNilConstructor
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m.Load(name); ok {
		return ErrConflictingRegistration
	}
	c.m.Store(name, ctor)
	c.count++
	return nil
}

// Lookup returns the constructor registered under name.
func (c *Catalog) Lookup(name string) (Constructor, bool) {
	v, ok := c.m.Load(name)
	if !ok {
		return nil, false
	}
	return v.(Constructor), true
}

// Entries returns a snapshot sorted by name.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, c.Count())
	c.m.Range(func(key, value any) bool {
		entries = append(entries, Entry{Name: key.(string), New: value.(Constructor)})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Count returns the number of entries.
func (c *Catalog) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Standard returns a catalog holding the service facets, the standard
// initializer and the ERC-20 facets under their facet names.
func Standard() *Catalog {
	c := New()
	for _, e := range []Entry{
		{"DiamondCutFacet", func(co *cut.Coordinator) apis.Module { return cutfacet.New(co) }},
		{"DiamondLoupeFacet", func(*cut.Coordinator) apis.Module { return loupe.New() }},
		{"OwnershipFacet", func(*cut.Coordinator) apis.Module { return ownership.New() }},
		{"DiamondInit", func(*cut.Coordinator) apis.Module { return loupe.Init{} }},
		{"ERC20ConstantsFacet", func(*cut.Coordinator) apis.Module { return erc20.Constants{} }},
		{"BalancesFacet", func(*cut.Coordinator) apis.Module { return erc20.Balances{} }},
		{"AllowancesFacet", func(*cut.Coordinator) apis.Module { return erc20.Allowances{} }},
		{"SupplyRegulatorFacet", func(*cut.Coordinator) apis.Module { return erc20.SupplyRegulator{} }},
		{"ERC20Init", func(*cut.Coordinator) apis.Module { return erc20.Init{} }},
	} {
		// Names are static and distinct.
		_ = c.Register(e.Name, e.New)
	}
	return c
}
