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

// Package cut implements the upgrade coordinator: it validates and applies
// a batch of facet cuts to the routing table and runs the optional
// initializer in the same unit of work.
//
// Atomicity comes from the storage journal of the enclosing call. The
// coordinator returns the first failure; the caller discards the journal,
// so a failed batch leaves the table exactly as it was.
package cut

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/config"
	"dirpx.dev/diamond/registry"
)

// EventName is the name of the event emitted for every applied batch.
const EventName = "DiamondCut"

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTables replaces the routing table constructor.
func WithTables(fn func(apis.Storage) apis.RoutingTable) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.tables = fn
		}
	}
}

// New constructs a Coordinator for cfg.
func New(cfg apis.Config, opts ...Option) *Coordinator {
	c := &Coordinator{cfg: cfg, tables: registry.New, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default returns a Coordinator with config.DefaultConfig.
func Default() *Coordinator { return New(config.DefaultConfig()) }

// Coordinator applies cut batches. It does not check authorization; the
// cut facet does that before calling Cut.
type Coordinator struct {
	cfg    apis.Config
	tables func(apis.Storage) apis.RoutingTable
	logger *zap.Logger
}

// Cut applies cuts in order, emits a DiamondCut event and, if init is not
// the zero address, delegates calldata to init. Any failure is returned
// as is and must abort the enclosing call.
func (c *Coordinator) Cut(f apis.Frame, cuts []apis.FacetCut, init apis.Address, calldata []byte) error {
	if len(cuts) == 0 {
		return apis.ErrEmptyBatch
	}
	tbl := c.tables(f.Storage())
	for i, fc := range cuts {
		if c.cfg.VerifyFacetCode && fc.Action != apis.Remove && !fc.Module.IsZero() && !f.HasCode(fc.Module) {
			return &apis.CutError{
				Index:  i,
				Action: fc.Action,
				Module: fc.Module,
				Err:    apis.ErrNoCode,
				Reason: "new facet has no code",
			}
		}
		if err := tbl.Apply(fc); err != nil {
			var ce *apis.CutError
			if errors.As(err, &ce) {
				ce.Index = i
			}
			return err
		}
	}

	f.Emit(apis.Event{Name: EventName, Payload: apis.CutEvent{
		Cuts:     cloneCuts(cuts),
		Init:     init,
		Calldata: slices.Clone(calldata),
	}})
	c.logger.Debug("cut batch validated",
		zap.Int("entries", len(cuts)),
		zap.Stringer("init", init),
		zap.Stringer("caller", f.Caller()))

	if init.IsZero() {
		return nil
	}
	if c.cfg.VerifyFacetCode && !f.HasCode(init) {
		return fmt.Errorf("%w: init address %s", apis.ErrNoCode, init)
	}
	_, err := f.Delegate(init, calldata)
	return err
}

func cloneCuts(cuts []apis.FacetCut) []apis.FacetCut {
	out := make([]apis.FacetCut, len(cuts))
	for i, fc := range cuts {
		out[i] = apis.FacetCut{Module: fc.Module, Action: fc.Action, Selectors: slices.Clone(fc.Selectors)}
	}
	return out
}
