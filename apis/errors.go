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

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOwner is returned when a non-owner calls an owner-gated operation.
	ErrNotOwner = errors.New("diamond(ownership): caller is not the owner")
	// ErrRouteConflict is returned when a cut entry violates the Add, Replace
	// or Remove constraints, or its module/selector shape is invalid.
	ErrRouteConflict = errors.New("diamond(cut): route conflict")
	// ErrEmptyBatch is returned for a cut without entries or an entry
	// without selectors.
	ErrEmptyBatch = errors.New("diamond(cut): nothing to do")
	// ErrNoCode is returned when a cut targets an address without deployed code.
	ErrNoCode = errors.New("diamond(cut): address has no code")
	// ErrNoRoute is returned when no module owns the invoked selector.
	ErrNoRoute = errors.New("diamond(dispatch): function does not exist")
	// ErrCallDepth is returned when re-entrant nesting exceeds the configured limit.
	ErrCallDepth = errors.New("diamond(dispatch): max call depth exceeded")
)

// RouteError reports a dispatch for an unmapped selector.
type RouteError struct {
	Selector Selector
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNoRoute, e.Selector)
}

// Unwrap returns ErrNoRoute.
func (e *RouteError) Unwrap() error { return ErrNoRoute }

// CutError locates a rejected cut entry.
type CutError struct {
	// Index is the position of the entry in the batch.
	Index int
	// Action and Module echo the rejected entry.
	Action Action
	Module Address
	// Selector is the offending selector, if the failure is per selector.
	Selector Selector
	// Err is one of ErrRouteConflict, ErrEmptyBatch or ErrNoCode.
	Err error
	// Reason is a human-readable detail.
	Reason string
}

func (e *CutError) Error() string {
	return fmt.Sprintf("%v: entry %d (%s %s) selector %s: %s",
		e.Err, e.Index, e.Action, e.Module, e.Selector, e.Reason)
}

// Unwrap returns the failure kind.
func (e *CutError) Unwrap() error { return e.Err }

// Revert is a failure raised by module logic. The dispatcher propagates
// it verbatim so callers can tell "the target rejected my call" apart
// from routing and authorization failures.
type Revert struct {
	// Reason is a human-readable reason string.
	Reason string
	// Data is an optional opaque failure payload.
	Data []byte
}

func (e *Revert) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("execution reverted (%d bytes)", len(e.Data))
	}
	return "execution reverted: " + e.Reason
}

// Revertf returns a *Revert with a formatted reason.
func Revertf(format string, args ...any) *Revert {
	return &Revert{Reason: fmt.Sprintf(format, args...)}
}

// IsRevert reports whether err carries a module-level *Revert.
func IsRevert(err error) bool {
	var r *Revert
	return errors.As(err, &r)
}
