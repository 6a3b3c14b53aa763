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

// Package badger persists router storage in BadgerDB.
//
// Each storage word is one key under the "slot/" prefix. Apply writes a
// batch inside a single read-write transaction, so a committed router
// call is either fully on disk or not at all.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"dirpx.dev/diamond/apis"
)

var slotPrefix = []byte("slot/")

// Config holds configuration for a BadgerDB backend.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string
	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool
	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *zap.Logger
}

// DefaultConfig returns durable defaults for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts zap to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// Backend is an apis.Backend over a BadgerDB instance.
type Backend struct {
	db *badger.DB
}

// Ensure Backend implements apis.Backend.
var _ apis.Backend = (*Backend)(nil)

// Open creates and opens a BadgerDB backend.
func Open(cfg Config) (*Backend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("diamond(badger): path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("diamond(badger): create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("diamond(badger): open database: %w", err)
	}
	return &Backend{db: db}, nil
}

func slotKey(slot apis.Word) []byte {
	k := make([]byte, 0, len(slotPrefix)+len(slot))
	k = append(k, slotPrefix...)
	return append(k, slot[:]...)
}

// Get returns the word stored at slot, or the zero word.
func (b *Backend) Get(_ context.Context, slot apis.Word) (apis.Word, error) {
	var w apis.Word
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slotKey(slot))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			copy(w[:], val)
			return nil
		})
	})
	if err != nil {
		return apis.Word{}, fmt.Errorf("diamond(badger): get %s: %w", slot, err)
	}
	return w, nil
}

// Apply writes changes in one transaction. Zero words are deleted.
func (b *Backend) Apply(ctx context.Context, changes map[apis.Word]apis.Word) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for slot, v := range changes {
			key := slotKey(slot)
			if v.IsZero() {
				if err := txn.Delete(key); err != nil {
					return err
				}
				continue
			}
			val := v
			if err := txn.Set(key, val[:]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("diamond(badger): apply %d changes: %w", len(changes), err)
	}
	return nil
}

// Dump returns every stored word.
func (b *Backend) Dump(_ context.Context) (map[apis.Word]apis.Word, error) {
	out := make(map[apis.Word]apis.Word)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = slotPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var slot, w apis.Word
			copy(slot[:], item.Key()[len(slotPrefix):])
			if err := item.Value(func(val []byte) error {
				copy(w[:], val)
				return nil
			}); err != nil {
				return err
			}
			out[slot] = w
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("diamond(badger): dump: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}
