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

// Package storage provides the working copy every router call executes
// against. A Journal buffers reads and writes over a Backend; Commit flushes
// the dirty words in one atomic batch, Discard drops them. This gives every
// call, including a cut and its initializer, all-or-nothing semantics.
package storage

import (
	"context"
	"errors"
	"sort"

	"dirpx.dev/diamond/apis"
)

// ErrClosed is returned when a committed or discarded journal is used.
var ErrClosed = errors.New("diamond(storage): journal is closed")

// Journal is a copy-on-write view over a Backend.
// It is not safe for concurrent use; the router serializes calls.
type Journal struct {
	ctx     context.Context
	backend apis.Backend
	// reads caches backend values seen by this journal.
	reads map[apis.Word]apis.Word
	// dirty holds words written by this journal.
	dirty  map[apis.Word]apis.Word
	closed bool
}

// Ensure Journal implements apis.Storage.
var _ apis.Storage = (*Journal)(nil)

// Begin opens a journal over backend.
func Begin(ctx context.Context, backend apis.Backend) *Journal {
	return &Journal{
		ctx:     ctx,
		backend: backend,
		reads:   make(map[apis.Word]apis.Word),
		dirty:   make(map[apis.Word]apis.Word),
	}
}

// Load returns the current value of slot as seen by this journal.
func (j *Journal) Load(slot apis.Word) (apis.Word, error) {
	if j.closed {
		return apis.Word{}, ErrClosed
	}
	if v, ok := j.dirty[slot]; ok {
		return v, nil
	}
	if v, ok := j.reads[slot]; ok {
		return v, nil
	}
	v, err := j.backend.Get(j.ctx, slot)
	if err != nil {
		return apis.Word{}, err
	}
	j.reads[slot] = v
	return v, nil
}

// Store buffers a write of v to slot.
func (j *Journal) Store(slot apis.Word, v apis.Word) error {
	if j.closed {
		return ErrClosed
	}
	j.dirty[slot] = v
	return nil
}

// Dirty returns the number of buffered writes.
func (j *Journal) Dirty() int { return len(j.dirty) }

// Changes returns the slots written by this journal in ascending order.
func (j *Journal) Changes() []apis.Word {
	out := make([]apis.Word, 0, len(j.dirty))
	for k := range j.dirty {
		out = append(out, k)
	}
	sort.Slice(out, func(a, b int) bool {
		for i := range out[a] {
			if out[a][i] != out[b][i] {
				return out[a][i] < out[b][i]
			}
		}
		return false
	})
	return out
}

// Commit flushes buffered writes to the backend atomically and closes the journal.
func (j *Journal) Commit() error {
	if j.closed {
		return ErrClosed
	}
	j.closed = true
	if len(j.dirty) == 0 {
		return nil
	}
	return j.backend.Apply(j.ctx, j.dirty)
}

// Discard drops buffered writes and closes the journal. It is safe to
// call after Commit.
func (j *Journal) Discard() {
	j.closed = true
	j.dirty = nil
	j.reads = nil
}
