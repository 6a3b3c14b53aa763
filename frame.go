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
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/storage"
)

// tx is the state shared by every frame of one top-level call.
type tx struct {
	ctx     context.Context
	id      uuid.UUID
	router  *Router
	journal *storage.Journal
	events  []apis.Event
	start   time.Time
	// failure is the first failure recorded by a forwarded call. Once set
	// the whole call reverts even if an outer module swallowed the error.
	failure error
}

func (t *tx) root(caller apis.Address, value apis.Word) *frame {
	return &frame{tx: t, caller: caller, value: value}
}

func (t *tx) fail(err error) {
	if t.failure == nil {
		t.failure = err
	}
}

// frame implements apis.Frame for one forwarded call.
type frame struct {
	tx     *tx
	caller apis.Address
	value  apis.Word
	depth  int
}

var _ apis.Frame = (*frame)(nil)

func (f *frame) Context() context.Context { return f.tx.ctx }
func (f *frame) Self() apis.Address       { return f.tx.router.self }
func (f *frame) Caller() apis.Address     { return f.caller }
func (f *frame) Value() apis.Word         { return f.value }
func (f *frame) Storage() apis.Storage    { return f.tx.journal }
func (f *frame) Depth() int               { return f.depth }

func (f *frame) HasCode(addr apis.Address) bool {
	_, ok := f.tx.router.host.Code(addr)
	return ok
}

func (f *frame) Emit(ev apis.Event) {
	ev.TxID = f.tx.id
	f.tx.events = append(f.tx.events, ev)
}

func (f *frame) Delegate(module apis.Address, input []byte) ([]byte, error) {
	if err := f.tx.ctx.Err(); err != nil {
		f.tx.fail(err)
		return nil, err
	}
	code, ok := f.tx.router.host.Code(module)
	if !ok {
		err := fmt.Errorf("%w: %s", apis.ErrNoCode, module)
		f.tx.fail(err)
		return nil, err
	}
	ret, err := code.Invoke(f, input)
	if err != nil {
		f.tx.fail(err)
		return nil, err
	}
	return ret, nil
}

func (f *frame) Call(input []byte) ([]byte, error) {
	r := f.tx.router
	if f.depth+1 > r.cfg.MaxCallDepth {
		err := fmt.Errorf("%w: %d", apis.ErrCallDepth, r.cfg.MaxCallDepth)
		f.tx.fail(err)
		return nil, err
	}
	inner := &frame{tx: f.tx, caller: r.self, depth: f.depth + 1}
	r.logger.Debug("reentrant call",
		zap.Stringer("tx", f.tx.id),
		zap.Stringer("selector", apis.SelectorOf(input)),
		zap.Int("depth", inner.depth))
	ret, err := r.dispatcher.Forward(inner, input)
	if err != nil {
		f.tx.fail(err)
		return nil, err
	}
	return ret, nil
}

// routerCode is the code deployed at the router address. Invoking it
// re-enters the router, so modules may target Self() like any other module.
type routerCode struct{}

func (routerCode) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	return f.Call(input)
}
