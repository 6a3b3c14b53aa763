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

// Package runner executes scenario manifests: it deploys the named facets,
// creates a router and replays the manifest steps against it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dirpx.dev/diamond"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/builder"
	"dirpx.dev/diamond/config"
	"dirpx.dev/diamond/cut"
	"dirpx.dev/diamond/facets/catalog"
	"dirpx.dev/diamond/facets/cutfacet"
	"dirpx.dev/diamond/host"
	"dirpx.dev/diamond/internal/manifest"
	"dirpx.dev/diamond/metrics"
	"dirpx.dev/diamond/registry"
	"dirpx.dev/diamond/selector"
	"dirpx.dev/diamond/storage"
	"dirpx.dev/diamond/storage/badger"
	"dirpx.dev/diamond/storage/memory"
)

// ErrUnexpected is returned when a step result differs from its expectation.
var ErrUnexpected = errors.New("diamond(runner): unexpected step result")

// Options configures Bootstrap.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Catalog resolves facet names. Nil uses catalog.Standard().
	Catalog *catalog.Catalog
	// Driver and Path override the manifest store when Driver is set.
	Driver string
	Path   string
}

// Outcome is the result of one step.
type Outcome struct {
	Step    string
	Result  string
	Receipt *apis.Receipt
	Err     error
}

// LabeledFacet is a routing table row with the deployment label of its module.
type LabeledFacet struct {
	Label string
	apis.Facet
}

// Env is a bootstrapped scenario.
type Env struct {
	Router  *diamond.Router
	Builder *builder.Builder
	Host    *host.Host
	Backend apis.Backend

	catalog     *catalog.Catalog
	coordinator *cut.Coordinator
	logger      *zap.Logger
}

// Bootstrap opens the store, deploys the bootstrap facets and the
// initializer and creates the router.
func Bootstrap(ctx context.Context, m *manifest.Manifest, opts Options) (*Env, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Standard()
	}
	if err := m.CheckFacets(func(name string) bool {
		_, ok := opts.Catalog.Lookup(name)
		return ok
	}); err != nil {
		return nil, err
	}
	owner, err := apis.ParseAddress(m.Owner)
	if err != nil {
		return nil, fmt.Errorf("diamond(runner): owner: %w", err)
	}

	var copts []config.Option
	if m.Config.MaxCallDepth > 0 {
		copts = append(copts, config.WithMaxCallDepth(m.Config.MaxCallDepth))
	}
	if m.Config.VerifyFacetCode != nil {
		copts = append(copts, config.WithVerifyFacetCode(*m.Config.VerifyFacetCode))
	}
	cfg := config.NewConfig(copts...)

	backend, err := openStore(m.Store, opts)
	if err != nil {
		return nil, err
	}
	h := host.New()
	e := &Env{
		Builder:     builder.New(h),
		Host:        h,
		Backend:     backend,
		catalog:     opts.Catalog,
		coordinator: cut.New(cfg, cut.WithLogger(opts.Logger)),
		logger:      opts.Logger,
	}
	router, err := e.bootstrap(ctx, m, owner, cfg, opts)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	e.Router = router
	return e, nil
}

func openStore(s manifest.Store, opts Options) (apis.Backend, error) {
	if opts.Driver != "" {
		s.Driver, s.Path = opts.Driver, opts.Path
	}
	switch s.Driver {
	case "", manifest.DriverMemory:
		return memory.New(), nil
	case manifest.DriverBadger:
		bc := badger.DefaultConfig(s.Path)
		bc.Logger = opts.Logger
		return badger.Open(bc)
	default:
		return nil, fmt.Errorf("diamond(runner): unknown store driver %q", s.Driver)
	}
}

func (e *Env) bootstrap(ctx context.Context, m *manifest.Manifest, owner apis.Address, cfg apis.Config, opts Options) (*diamond.Router, error) {
	for _, name := range m.Facets {
		ctor, _ := e.catalog.Lookup(name)
		if _, err := e.Builder.AddNamed(name, ctor(e.coordinator)); err != nil {
			return nil, err
		}
	}
	args := diamond.Args{Owner: owner}
	if m.Init != nil {
		init, calldata, err := e.invocation(m.Init)
		if err != nil {
			return nil, err
		}
		args.Init, args.InitCalldata = init, calldata
	}
	return diamond.New(ctx, e.Host, e.Backend, args, e.Builder.Cuts(),
		diamond.WithConfig(cfg),
		diamond.WithLogger(opts.Logger),
		diamond.WithMetrics(opts.Metrics))
}

// deploy returns the address of the facet deployed under name, deploying
// it on first use.
func (e *Env) deploy(name string) (apis.Address, error) {
	if addr, ok := e.Builder.Address(name); ok {
		return addr, nil
	}
	ctor, ok := e.catalog.Lookup(name)
	if !ok {
		return apis.ZeroAddress, fmt.Errorf("%w: %s", manifest.ErrUnknownFacet, name)
	}
	return e.Builder.DeployNamed(name, ctor(e.coordinator))
}

func (e *Env) invocation(inv *manifest.Invocation) (apis.Address, []byte, error) {
	addr, err := e.deploy(inv.Facet)
	if err != nil {
		return apis.ZeroAddress, nil, err
	}
	calldata, err := manifest.EncodeCall(inv.Call, inv.Args)
	if err != nil {
		return apis.ZeroAddress, nil, err
	}
	return addr, calldata, nil
}

func parseSelector(s string) (apis.Selector, error) {
	if strings.HasPrefix(s, "0x") {
		return apis.ParseSelector(s)
	}
	return selector.Of(s), nil
}

func (e *Env) cutEntry(c manifest.CutEntry) (apis.FacetCut, error) {
	fc := apis.FacetCut{}
	switch c.Action {
	case "add":
		fc.Action = apis.Add
	case "replace":
		fc.Action = apis.Replace
	default:
		fc.Action = apis.Remove
	}
	for _, s := range c.Selectors {
		sel, err := parseSelector(s)
		if err != nil {
			return fc, fmt.Errorf("diamond(runner): selector %q: %w", s, err)
		}
		fc.Selectors = append(fc.Selectors, sel)
	}
	if c.Facet == "" {
		return fc, nil
	}
	addr, err := e.deploy(c.Facet)
	if err != nil {
		return fc, err
	}
	if fc.Action != apis.Remove {
		fc.Module = addr
	}
	if len(fc.Selectors) == 0 {
		if code, ok := e.Host.Code(addr); ok {
			if d, ok := code.(apis.Describer); ok {
				fc.Selectors = d.Selectors()
			}
		}
	}
	return fc, nil
}

// message builds the router message of s.
func (e *Env) message(s manifest.Step) (apis.Message, error) {
	from, err := apis.ParseAddress(s.From)
	if err != nil {
		return apis.Message{}, err
	}
	msg := apis.Message{From: from}
	if s.Value != "" {
		if msg.Value, err = manifest.ParseWord(s.Value); err != nil {
			return msg, err
		}
	}
	if s.Call != "" {
		msg.Data, err = manifest.EncodeCall(s.Call, s.Args)
		return msg, err
	}

	cuts := make([]apis.FacetCut, 0, len(s.Cut))
	for _, c := range s.Cut {
		fc, err := e.cutEntry(c)
		if err != nil {
			return msg, err
		}
		cuts = append(cuts, fc)
	}
	var (
		init     apis.Address
		calldata []byte
	)
	if s.Init != nil {
		if init, calldata, err = e.invocation(s.Init); err != nil {
			return msg, err
		}
	}
	msg.Data, err = cutfacet.Calldata(cuts, init, calldata)
	return msg, err
}

// Step runs a single step. Errors building the message are returned in
// Outcome.Err with result "error".
func (e *Env) Step(ctx context.Context, s manifest.Step) Outcome {
	out := Outcome{Step: s.Name}
	msg, err := e.message(s)
	if err == nil {
		out.Receipt, err = e.Router.Call(ctx, msg)
	}
	out.Err = err
	out.Result = metrics.Classify(err)

	fields := []zap.Field{zap.String("step", s.Name), zap.String("result", out.Result)}
	if out.Receipt != nil {
		fields = append(fields, zap.Stringer("tx", out.Receipt.ID), zap.Int("events", len(out.Receipt.Events)))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	e.logger.Info("step finished", fields...)
	return out
}

// Run executes steps in order and stops at the first result differing from
// the step expectation ("ok" when unset).
func (e *Env) Run(ctx context.Context, steps []manifest.Step) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(steps))
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := e.Step(ctx, s)
		outcomes = append(outcomes, out)
		want := s.Expect
		if want == "" {
			want = metrics.ResultOK
		}
		if out.Result != want {
			return outcomes, fmt.Errorf("%w: step %q: got %s, want %s: %v", ErrUnexpected, s.Name, out.Result, want, out.Err)
		}
	}
	return outcomes, nil
}

// Facets reads the committed routing table.
func (e *Env) Facets(ctx context.Context) ([]LabeledFacet, error) {
	j := storage.Begin(ctx, e.Backend)
	defer j.Discard()
	facets, err := registry.New(j).Facets()
	if err != nil {
		return nil, err
	}
	labels := make(map[apis.Address]string)
	for _, l := range e.Builder.Labels() {
		addr, _ := e.Builder.Address(l)
		labels[addr] = l
	}
	out := make([]LabeledFacet, len(facets))
	for i, f := range facets {
		out[i] = LabeledFacet{Label: labels[f.Module], Facet: f}
	}
	return out, nil
}

// Close closes the router and its store.
func (e *Env) Close() error {
	return e.Router.Close()
}
