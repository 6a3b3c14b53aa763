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

// Package memory is an in-process apis.Backend for tests and ephemeral routers.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"dirpx.dev/diamond/apis"
)

// ErrClosed is returned by a closed backend.
var ErrClosed = errors.New("diamond(memory): backend closed")

// New returns an empty backend.
func New() *Backend {
	return &Backend{words: make(map[apis.Word]apis.Word)}
}

// Backend keeps storage words in a map guarded by a RWMutex.
type Backend struct {
	mu     sync.RWMutex
	words  map[apis.Word]apis.Word
	closed bool
}

// Ensure Backend implements apis.Backend.
var _ apis.Backend = (*Backend)(nil)

// Get returns the word at slot, or the zero word.
func (b *Backend) Get(_ context.Context, slot apis.Word) (apis.Word, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return apis.Word{}, ErrClosed
	}
	return b.words[slot], nil
}

// Apply writes changes under a single lock acquisition.
func (b *Backend) Apply(_ context.Context, changes map[apis.Word]apis.Word) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for k, v := range changes {
		if v.IsZero() {
			delete(b.words, k)
			continue
		}
		b.words[k] = v
	}
	return nil
}

// Dump returns a copy of every non-zero word.
func (b *Backend) Dump(_ context.Context) (map[apis.Word]apis.Word, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return maps.Clone(b.words), nil
}

// Close marks the backend closed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
