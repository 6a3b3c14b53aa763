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

// Package builder deploys facets on a host and collects the Add cut
// entries that install them, the usual first step before creating a
// router or extending one.
package builder

import (
	"errors"
	"fmt"
	"slices"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/host"
)

var (
	// ErrNoSelectors is returned when a facet has no selectors to route.
	ErrNoSelectors = errors.New("diamond(builder): facet has no selectors")
	// ErrDuplicateLabel is returned when a label is used twice.
	ErrDuplicateLabel = errors.New("diamond(builder): duplicate label")
	// ErrNoLabel is returned when no label could be derived for a module.
	ErrNoLabel = errors.New("diamond(builder): cannot derive label")
)

// New returns a Builder deploying onto h.
func New(h *host.Host) *Builder {
	return &Builder{host: h, addrs: make(map[string]apis.Address)}
}

// Builder accumulates deployed modules and their cut entries. It is not
// safe for concurrent use.
type Builder struct {
	// host receives deployments.
	host *host.Host
	// cuts are the Add entries in deployment order.
	cuts []apis.FacetCut
	// addrs maps labels to deployed addresses.
	addrs map[string]apis.Address
	// labels keeps deployment order.
	labels []string
}

// Add deploys m under its derived label and records an Add entry for sels,
// or for m's own selectors if none are given.
func (b *Builder) Add(m apis.Module, sels ...apis.Selector) (apis.Address, error) {
	label, ok := Label(m)
	if !ok {
		return apis.ZeroAddress, ErrNoLabel
	}
	return b.AddNamed(label, m, sels...)
}

// AddNamed is like Add with an explicit label.
func (b *Builder) AddNamed(label string, m apis.Module, sels ...apis.Selector) (apis.Address, error) {
	if len(sels) == 0 {
		if d, ok := m.(apis.Describer); ok {
			sels = d.Selectors()
		}
	}
	if len(sels) == 0 {
		return apis.ZeroAddress, fmt.Errorf("%w: %s", ErrNoSelectors, label)
	}
	addr, err := b.DeployNamed(label, m)
	if err != nil {
		return apis.ZeroAddress, err
	}
	b.cuts = append(b.cuts, apis.FacetCut{Module: addr, Action: apis.Add, Selectors: slices.Clone(sels)})
	return addr, nil
}

// Deploy deploys m under its derived label without routing it, e.g. an
// initializer.
func (b *Builder) Deploy(m apis.Module) (apis.Address, error) {
	label, ok := Label(m)
	if !ok {
		return apis.ZeroAddress, ErrNoLabel
	}
	return b.DeployNamed(label, m)
}

// DeployNamed is like Deploy with an explicit label.
func (b *Builder) DeployNamed(label string, m apis.Module) (apis.Address, error) {
	if _, dup := b.addrs[label]; dup {
		return apis.ZeroAddress, fmt.Errorf("%w: %s", ErrDuplicateLabel, label)
	}
	addr, err := b.host.Deploy(m)
	if err != nil {
		return apis.ZeroAddress, fmt.Errorf("diamond(builder): deploy %s: %w", label, err)
	}
	b.addrs[label] = addr
	b.labels = append(b.labels, label)
	return addr, nil
}

// Cuts returns the accumulated Add entries and resets them. Deployed
// labels stay known.
func (b *Builder) Cuts() []apis.FacetCut {
	cuts := b.cuts
	b.cuts = nil
	return cuts
}

// Address returns the address deployed under label.
func (b *Builder) Address(label string) (apis.Address, bool) {
	addr, ok := b.addrs[label]
	return addr, ok
}

// Labels returns the deployed labels in deployment order.
func (b *Builder) Labels() []string { return slices.Clone(b.labels) }
