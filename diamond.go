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

package diamond

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/config"
	"dirpx.dev/diamond/cut"
	"dirpx.dev/diamond/dispatch"
	"dirpx.dev/diamond/facets/ownership"
	"dirpx.dev/diamond/host"
	"dirpx.dev/diamond/metrics"
	"dirpx.dev/diamond/storage"
)

var (
	// ErrNilHost is returned when New is called without a host.
	ErrNilHost = errors.New("diamond: nil host")
	// ErrNilBackend is returned when New is called without a storage backend.
	ErrNilBackend = errors.New("diamond: nil storage backend")
)

// Args are the construction-time arguments of a router.
type Args struct {
	// Owner becomes the initial owner.
	Owner apis.Address
	// Init is an optional initializer delegated to after the bootstrap cut.
	Init apis.Address
	// InitCalldata is passed to Init.
	InitCalldata []byte
}

// Option configures a Router.
type Option func(*Router)

// WithConfig sets the router configuration.
func WithConfig(cfg apis.Config) Option {
	return func(r *Router) { r.cfg = cfg }
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// Router is the single persistent address forwarding every call to the
// module owning its selector.
type Router struct {
	// cfg is the router configuration.
	cfg apis.Config
	// self is the router address on the host.
	self apis.Address
	// host resolves module code.
	host *host.Host
	// backend persists the shared storage.
	backend apis.Backend
	// dispatcher resolves and forwards calls.
	dispatcher *dispatch.Dispatcher
	// coordinator applies the bootstrap cut.
	coordinator *cut.Coordinator
	logger      *zap.Logger
	metrics     *metrics.Metrics

	// mu serializes calls: one invocation runs to completion before the next.
	mu sync.Mutex

	// logMu guards logs.
	logMu sync.RWMutex
	// logs is the audit trail of committed events.
	logs []apis.Event
}

// New deploys a router on h backed by backend, sets args.Owner as owner
// and applies cuts plus the optional initializer exactly like a later
// diamondCut would. If any step fails nothing is persisted and no router
// is returned.
func New(ctx context.Context, h *host.Host, backend apis.Backend, args Args, cuts []apis.FacetCut, opts ...Option) (*Router, error) {
	if h == nil {
		return nil, ErrNilHost
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	r := &Router{
		cfg:     config.DefaultConfig(),
		host:    h,
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dispatcher = dispatch.New(nil, r.logger)
	r.coordinator = cut.New(r.cfg, cut.WithLogger(r.logger))

	self, err := h.Deploy(routerCode{})
	if err != nil {
		return nil, fmt.Errorf("diamond: deploy router: %w", err)
	}
	r.self = self
	r.logger = r.logger.With(zap.Stringer("router", self))

	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.begin(ctx)
	f := t.root(args.Owner, apis.Word{})
	err = ownership.SetOwner(f, args.Owner)
	if err == nil {
		err = r.coordinator.Cut(f, cuts, args.Init, args.InitCalldata)
	}
	if _, err := r.finish(t, err); err != nil {
		return nil, err
	}
	r.logger.Info("router created",
		zap.Stringer("owner", args.Owner),
		zap.Int("cuts", len(cuts)),
		zap.Stringer("init", args.Init))
	return r, nil
}

// Address returns the router address.
func (r *Router) Address() apis.Address { return r.self }

// Config returns the router configuration.
func (r *Router) Config() apis.Config { return r.cfg }

// Call dispatches msg. On success every storage write and event of the
// call is committed; on failure nothing is, and the error of the deepest
// failing forwarded call is returned.
func (r *Router) Call(ctx context.Context, msg apis.Message) (*apis.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.begin(ctx)
	ret, err := r.dispatcher.Forward(t.root(msg.From, msg.Value), msg.Data)
	rcpt, err := r.finish(t, err)
	if err != nil {
		return nil, err
	}
	rcpt.Return = ret
	return rcpt, nil
}

// Logs returns the committed events, oldest first.
func (r *Router) Logs() []apis.Event {
	r.logMu.RLock()
	defer r.logMu.RUnlock()
	return slices.Clone(r.logs)
}

// Close closes the storage backend.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Close()
}

func (r *Router) begin(ctx context.Context) *tx {
	return &tx{
		ctx:     ctx,
		id:      uuid.New(),
		router:  r,
		journal: storage.Begin(ctx, r.backend),
		start:   time.Now(),
	}
}

// finish commits or discards tx depending on err and on failures recorded
// by nested calls.
func (r *Router) finish(t *tx, err error) (*apis.Receipt, error) {
	if t.failure != nil {
		err = t.failure
	}
	if err == nil {
		if cerr := t.journal.Commit(); cerr != nil {
			err = fmt.Errorf("diamond: commit: %w", cerr)
		}
	}
	defer func() { r.metrics.ObserveCall(err, time.Since(t.start)) }()
	if err != nil {
		t.journal.Discard()
		r.logger.Debug("call reverted", zap.Stringer("tx", t.id), zap.Error(err))
		return nil, err
	}

	cuts := 0
	for _, ev := range t.events {
		if ev.Name == cut.EventName {
			cuts++
			r.logger.Info("cut applied", zap.Stringer("tx", t.id), zap.Any("event", ev.Payload))
		}
	}
	r.metrics.ObserveCommit(t.journal.Dirty(), cuts)
	r.logMu.Lock()
	r.logs = append(r.logs, t.events...)
	r.logMu.Unlock()
	r.logger.Debug("call committed", zap.Stringer("tx", t.id), zap.Int("events", len(t.events)))
	return &apis.Receipt{ID: t.id, Events: slices.Clone(t.events)}, nil
}
