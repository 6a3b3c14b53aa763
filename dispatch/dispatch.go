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

// Package dispatch implements the router hot path: resolve the selector of
// an inbound call and forward it to the owning module with the caller's
// context intact.
package dispatch

import (
	"go.uber.org/zap"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/registry"
)

// TableFunc opens a routing table over a storage view.
type TableFunc func(st apis.Storage) apis.RoutingTable

// New constructs a Dispatcher. A nil tables defaults to registry.New and a
// nil logger to a no-op logger.
func New(tables TableFunc, logger *zap.Logger) *Dispatcher {
	if tables == nil {
		tables = registry.New
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{tables: tables, logger: logger}
}

// Dispatcher forwards calls by selector. It holds no per-call state and is
// safe for concurrent use.
type Dispatcher struct {
	tables TableFunc
	logger *zap.Logger
}

// Resolve returns the module owning the selector of data in st.
func (d *Dispatcher) Resolve(st apis.Storage, data []byte) (apis.Address, error) {
	sel := apis.SelectorOf(data)
	module, ok, err := d.tables(st).Resolve(sel)
	if err != nil {
		return apis.ZeroAddress, err
	}
	if !ok {
		return apis.ZeroAddress, &apis.RouteError{Selector: sel}
	}
	return module, nil
}

// Forward resolves data against the current routing table and delegates
// to the owning module. Return data and module failures are passed back
// unchanged.
func (d *Dispatcher) Forward(f apis.Frame, data []byte) ([]byte, error) {
	module, err := d.Resolve(f.Storage(), data)
	if err != nil {
		d.logger.Debug("dispatch failed",
			zap.Stringer("selector", apis.SelectorOf(data)),
			zap.Stringer("caller", f.Caller()),
			zap.Error(err))
		return nil, err
	}
	return f.Delegate(module, data)
}
