// Copyright 2026 The FacilityOS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package buntdb provides the embedded key-value implementation of
// store.Store. buntdb keeps the full keyspace in memory and appends
// writes to a log file, which gives the read-after-write semantics the
// core requires without an external service.
package buntdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/buntdb"
)

// DB is a buntdb-backed store.Store.
type DB struct {
	db *buntdb.DB
}

// Open opens (or creates) the store at path. Pass ":memory:" for an
// ephemeral store, which tests use to get an isolated keyspace per case.
func Open(path string) (*DB, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Get returns the value for key, with found=false for absent keys.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key in a single transaction.
func (d *DB) Set(ctx context.Context, key, value string) error {
	err := d.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (d *DB) Delete(ctx context.Context, key string) error {
	err := d.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
