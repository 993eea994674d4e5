// Package store persists per-file analysis snapshots between runs in an
// embedded BadgerDB. Incremental mode loads snapshots for unchanged files
// instead of re-deriving them.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
)

const prefixFile = "f:"

// SnapshotStore is a BadgerDB-backed store of FileAnalysis snapshots keyed
// by relative file path.
type SnapshotStore struct {
	db *badger.DB
}

// Open opens (or creates) the snapshot store at dbPath.
func Open(dbPath string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

func fileKey(path string) []byte { return []byte(prefixFile + path) }

// Put stores the snapshot for one file, replacing any previous snapshot.
func (s *SnapshotStore) Put(fa *graph.FileAnalysis) error {
	data, err := json.Marshal(fa)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", fa.Path, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(fileKey(fa.Path), data)
	})
}

// Get loads the snapshot for one file. It returns (nil, nil) when no
// snapshot exists.
func (s *SnapshotStore) Get(path string) (*graph.FileAnalysis, error) {
	var fa *graph.FileAnalysis
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fileKey(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			fa = &graph.FileAnalysis{}
			return json.Unmarshal(val, fa)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", path, err)
	}
	return fa, nil
}

// Delete removes the snapshot for one file.
func (s *SnapshotStore) Delete(path string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(fileKey(path))
	})
}

// All returns every stored snapshot.
func (s *SnapshotStore) All() ([]*graph.FileAnalysis, error) {
	var out []*graph.FileAnalysis
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixFile)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				fa := &graph.FileAnalysis{}
				if err := json.Unmarshal(val, fa); err != nil {
					return err
				}
				out = append(out, fa)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return out, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
