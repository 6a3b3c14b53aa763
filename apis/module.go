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

import "context"

// Module is independently deployed, stateless logic addressed by identity.
// All persistent state a module touches lives in the router storage
// reachable through the Frame.
type Module interface {
	// Invoke executes input (selector followed by payload) in the context f.
	Invoke(f Frame, input []byte) ([]byte, error)
}

// Describer is implemented by modules that advertise their selector surface.
type Describer interface {
	Selectors() []Selector
}

// ModuleFunc adapts a plain function to Module.
type ModuleFunc func(f Frame, input []byte) ([]byte, error)

// Invoke calls fn(f, input).
func (fn ModuleFunc) Invoke(f Frame, input []byte) ([]byte, error) { return fn(f, input) }

// Frame is the execution context of a single forwarded call. Caller and
// value are those of the original invocation; storage is the router's.
type Frame interface {
	// Context returns the context of the top-level call.
	Context() context.Context
	// Self returns the router address.
	Self() Address
	// Caller returns the identity that invoked the router.
	Caller() Address
	// Value returns the value attached to the invocation.
	Value() Word
	// Storage returns the router storage as seen by the running call.
	Storage() Storage
	// Emit records an event. Events become visible only if the
	// top-level call commits.
	Emit(ev Event)
	// Delegate executes module code with this frame's caller, value and storage.
	Delegate(module Address, input []byte) ([]byte, error)
	// Call re-enters the router with the router itself as caller.
	Call(input []byte) ([]byte, error)
	// HasCode reports whether a module is deployed at addr.
	HasCode(addr Address) bool
	// Depth returns the re-entrancy depth of this frame.
	Depth() int
}

// Storage is a word-addressed view of the router's persistent storage.
type Storage interface {
	Load(slot Word) (Word, error)
	Store(slot Word, value Word) error
}

// Backend persists storage words. Apply must be atomic: either every
// change is visible afterwards or none is. A zero value deletes the slot.
type Backend interface {
	Get(ctx context.Context, slot Word) (Word, error)
	Apply(ctx context.Context, changes map[Word]Word) error
	Dump(ctx context.Context) (map[Word]Word, error)
	Close() error
}

// Deployments resolves module code by address.
type Deployments interface {
	Code(addr Address) (Module, bool)
}

// Namer is implemented by modules that carry a stable human-readable name,
// used as their label in builders, manifests and logs.
type Namer interface {
	FacetName() string
}
