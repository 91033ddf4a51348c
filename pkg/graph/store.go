// Package graph implements the persistence layer for extraction results: a
// quad store (subject, predicate, object, graph) on BadgerDB. The driver
// writes one batch of facts per processed file; the REST API and the CLI
// read back by subject or by graph.
package graph

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"fsminer/pkg/common/errors"
)

var keyFactCount = []byte("!meta:factcount")

const quadPrefix = 'q'
const keySep = 0x00

// Config controls how a store is opened.
type Config struct {
	Dir             string
	InMemory        bool
	ReadOnly        bool
	SyncWrites      bool
	BypassLockGuard bool
	BlockCacheSize  int64
	IndexCacheSize  int64
}

// DefaultConfig returns a config suitable for local indexing.
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:            dir,
		BlockCacheSize: 128 << 20,
		IndexCacheSize: 128 << 20,
	}
}

// Store is a Badger-backed quad store.
type Store struct {
	db       *badger.DB
	cfg      *Config
	numFacts atomic.Uint64
}

// Open opens (or creates) a store with the given configuration.
func Open(cfg *Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithReadOnly(cfg.ReadOnly).
		WithSyncWrites(cfg.SyncWrites).
		WithBlockCacheSize(cfg.BlockCacheSize).
		WithIndexCacheSize(cfg.IndexCacheSize).
		WithBypassLockGuard(cfg.BypassLockGuard).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening graph store at %s: %w", cfg.Dir, err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.loadStats(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close persists the fact counter and closes the database.
func (s *Store) Close() error {
	if err := s.saveStats(); err != nil {
		slog.Error("saving store stats", "error", err)
	}
	return s.db.Close()
}

// Len returns the number of facts written to the store.
func (s *Store) Len() uint64 {
	return s.numFacts.Load()
}

// Add writes a single fact.
func (s *Store) Add(f Fact) error {
	return s.AddBatch([]Fact{f})
}

// AddBatch writes facts in one transaction. Invalid facts fail the whole
// batch; re-adding an identical fact is a no-op for the data but still
// bumps the counter on rewrite.
func (s *Store) AddBatch(facts []Fact) error {
	if s.cfg.ReadOnly {
		return fmt.Errorf("%w: store is read-only", errors.ErrReadOnly)
	}
	for _, f := range facts {
		if !f.IsValid() {
			return fmt.Errorf("%w: incomplete fact %s", errors.ErrInvalidInput, f)
		}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, f := range facts {
			if f.Graph == "" {
				f.Graph = DefaultGraph
			}
			key, err := quadKey(f)
			if err != nil {
				return err
			}
			val, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.numFacts.Add(uint64(len(facts)))
	return nil
}

// ScanSubject returns all facts for one subject within a graph.
func (s *Store) ScanSubject(graph, subject string) ([]Fact, error) {
	if graph == "" {
		graph = DefaultGraph
	}
	prefix := appendSep([]byte{quadPrefix}, graph, subject)
	return s.scanPrefix(prefix)
}

// ScanGraph returns every fact in a graph.
func (s *Store) ScanGraph(graph string) ([]Fact, error) {
	if graph == "" {
		graph = DefaultGraph
	}
	prefix := appendSep([]byte{quadPrefix}, graph)
	return s.scanPrefix(prefix)
}

// DeleteGraph removes every fact in a graph, e.g. before re-indexing a
// source tree into it.
func (s *Store) DeleteGraph(graph string) error {
	if s.cfg.ReadOnly {
		return fmt.Errorf("%w: store is read-only", errors.ErrReadOnly)
	}
	if graph == "" {
		graph = DefaultGraph
	}
	prefix := appendSep([]byte{quadPrefix}, graph)

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		slog.Debug("graph empty, nothing to delete", "graph", graph)
		return nil
	}

	slog.Info("deleting graph", "graph", graph, "facts", len(keys))
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	if n := uint64(len(keys)); n >= s.numFacts.Load() {
		s.numFacts.Store(0)
	} else {
		s.numFacts.Add(^(n - 1))
	}
	return nil
}

func (s *Store) scanPrefix(prefix []byte) ([]Fact, error) {
	var facts []Fact
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 64})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var f Fact
				if err := json.Unmarshal(val, &f); err != nil {
					return err
				}
				facts = append(facts, f)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return facts, err
}

func (s *Store) loadStats() error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFactCount)
		if err == badger.ErrKeyNotFound {
			s.numFacts.Store(0)
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) >= 8 {
				s.numFacts.Store(binary.BigEndian.Uint64(val))
			}
			return nil
		})
	})
}

func (s *Store) saveStats() error {
	if s.cfg.ReadOnly {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, s.numFacts.Load())
		return txn.Set(keyFactCount, buf)
	})
}

// quadKey builds the key graph|subject|predicate|objhash under the quad
// prefix. The object hash keeps multi-valued predicates distinct while the
// full fact lives in the value.
func quadKey(f Fact) ([]byte, error) {
	obj, err := json.Marshal(f.Object)
	if err != nil {
		return nil, err
	}
	h := fnv.New64a()
	h.Write(obj)

	key := appendSep([]byte{quadPrefix}, f.Graph, f.Subject, f.Predicate)
	key = binary.BigEndian.AppendUint64(key, h.Sum64())
	return key, nil
}

func appendSep(key []byte, parts ...string) []byte {
	for _, p := range parts {
		key = append(key, p...)
		key = append(key, keySep)
	}
	return key
}
