// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/etoile-yachts/shipshape/internal/logging"
)

// keySep joins collection and document ID into a Badger key.
// Collection names must not contain the separator.
const keySep = "/"

// BadgerStore implements Store on BadgerDB. Each document is one key
// (`collection/id`) holding the JSON-encoded field map.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) a Badger-backed store at the given directory.
func Open(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger's own logger is too chatty; we log GC results ourselves
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemory opens an ephemeral in-memory store. Used by tests and by
// the demo mode of the server.
func OpenInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func docKey(collection, id string) []byte {
	return []byte(collection + keySep + id)
}

// Get returns the fields of one document.
func (s *BadgerStore) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	var fields map[string]interface{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", collection, id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fields)
		})
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// Set replaces one document.
func (s *BadgerStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, id), data)
	})
}

// Delete removes one document. Missing documents are not an error.
func (s *BadgerStore) Delete(ctx context.Context, collection, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(docKey(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Scan streams every document in a collection in key order.
func (s *BadgerStore) Scan(ctx context.Context, collection string, fn func(id string, fields map[string]interface{}) error) error {
	prefix := []byte(collection + keySep)

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), string(prefix))

			var fields map[string]interface{}
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &fields)
			})
			if err != nil {
				return fmt.Errorf("decode %s/%s: %w", collection, id, err)
			}

			if err := fn(id, fields); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of documents in a collection.
func (s *BadgerStore) Count(ctx context.Context, collection string) (int, error) {
	prefix := []byte(collection + keySep)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// ApplyBatch commits a group of ops in a single transaction. The group
// either commits in full or leaves the store untouched; the batch writer
// relies on that to keep its retry-once semantics simple.
func (s *BadgerStore) ApplyBatch(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			if err := applyOp(txn, op); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyOp(txn *badger.Txn, op Op) error {
	key := docKey(op.Collection, op.ID)

	fields := map[string]interface{}{}
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		// Merging into a missing document creates it.
	case err != nil:
		return fmt.Errorf("read %s/%s: %w", op.Collection, op.ID, err)
	default:
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fields)
		})
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", op.Collection, op.ID, err)
		}
	}

	switch op.Mode {
	case MergeFields:
		for k, v := range op.Fields {
			fields[k] = v
		}
	case MergeFieldPaths:
		for path, v := range op.Fields {
			if err := setFieldPath(fields, path, v); err != nil {
				return fmt.Errorf("set %s/%s %s: %w", op.Collection, op.ID, path, err)
			}
		}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", op.Collection, op.ID, err)
	}
	return txn.Set(key, data)
}

// setFieldPath sets a leaf value at a dotted path, descending through
// nested maps and arrays ("media.2.url" indexes the media array). Missing
// intermediate maps are created; an out-of-range array index is an error
// because the resolver only writes back at paths it discovered.
func setFieldPath(fields map[string]interface{}, path string, value interface{}) error {
	segs := strings.Split(path, ".")

	var cur interface{} = fields
	for i, seg := range segs {
		last := i == len(segs)-1

		switch node := cur.(type) {
		case map[string]interface{}:
			if last {
				node[seg] = value
				return nil
			}
			next, ok := node[seg]
			if !ok || next == nil {
				next = map[string]interface{}{}
				node[seg] = next
			}
			cur = next

		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return fmt.Errorf("segment %q indexes an array but is not numeric", seg)
			}
			if idx < 0 || idx >= len(node) {
				return fmt.Errorf("index %d out of range (len %d)", idx, len(node))
			}
			if last {
				node[idx] = value
				return nil
			}
			cur = node[idx]

		default:
			return fmt.Errorf("segment %q descends into a scalar", seg)
		}
	}
	return nil
}

// RunGC runs one round of Badger value-log garbage collection.
// Returns true when a log file was rewritten (callers loop until false).
func (s *BadgerStore) RunGC(discardRatio float64) bool {
	err := s.db.RunValueLogGC(discardRatio)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Warn().Err(err).Msg("Badger value log GC failed")
	}
	return err == nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
