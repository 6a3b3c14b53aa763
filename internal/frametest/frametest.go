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

// Package frametest provides an in-memory apis.Frame for unit tests of
// modules and coordinators that do not need a full router.
package frametest

import (
	"context"
	"fmt"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/storage"
	"dirpx.dev/diamond/storage/memory"
)

// Frame is a single-level frame over a fresh journal. Delegate resolves
// code from Code; Call runs Reenter if set.
type Frame struct {
	Ctx     context.Context
	SelfID  apis.Address
	From    apis.Address
	Val     apis.Word
	Journal *storage.Journal
	Events  []apis.Event
	Code    map[apis.Address]apis.Module
	Reenter func(input []byte) ([]byte, error)
	Level   int
}

var _ apis.Frame = (*Frame)(nil)

// New returns a Frame for caller over an empty memory backend.
func New(caller apis.Address) *Frame {
	ctx := context.Background()
	return &Frame{
		Ctx:     ctx,
		SelfID:  apis.Address{0xd1},
		From:    caller,
		Journal: storage.Begin(ctx, memory.New()),
		Code:    make(map[apis.Address]apis.Module),
	}
}

// As returns a copy of f with a different caller. The copy shares storage
// and code with f but records its own events.
func (f *Frame) As(caller apis.Address) *Frame {
	g := *f
	g.From = caller
	return &g
}

func (f *Frame) Context() context.Context { return f.Ctx }
func (f *Frame) Self() apis.Address       { return f.SelfID }
func (f *Frame) Caller() apis.Address     { return f.From }
func (f *Frame) Value() apis.Word         { return f.Val }
func (f *Frame) Storage() apis.Storage    { return f.Journal }
func (f *Frame) Depth() int               { return f.Level }
func (f *Frame) Emit(ev apis.Event)       { f.Events = append(f.Events, ev) }

func (f *Frame) HasCode(addr apis.Address) bool {
	_, ok := f.Code[addr]
	return ok
}

func (f *Frame) Delegate(module apis.Address, input []byte) ([]byte, error) {
	m, ok := f.Code[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apis.ErrNoCode, module)
	}
	return m.Invoke(f, input)
}

func (f *Frame) Call(input []byte) ([]byte, error) {
	if f.Reenter == nil {
		return nil, &apis.RouteError{Selector: apis.SelectorOf(input)}
	}
	return f.Reenter(input)
}
