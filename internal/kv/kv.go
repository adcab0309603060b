// Package kv is a BadgerDB backend for sequence counters and sync keys,
// selected with store.backend=badger.
package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger

	// GCInterval runs value log GC periodically. Zero disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

var (
	counterPrefix = []byte("counter/")
	syncPrefix    = []byte("sync/")
)

var ErrCounterRegressed = errors.New("counter cannot go backwards")

// Store implements sequence.Store and syncer.KeyStore on Badger.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	stop   chan struct{}
	done   chan struct{}
}

func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func OpenInMemory() (*Store, error) {
	return Open(InMemoryConfig())
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("badger value log GC error", zap.Error(err))
			}
		}
	}
}

func (s *Store) Close() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
	}
	return s.db.Close()
}

func key(prefix []byte, k string) []byte {
	return append(append([]byte{}, prefix...), k...)
}

func (s *Store) Get(ctx context.Context, k string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var v int64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(counterPrefix, k))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("counter %s: corrupt value of %d bytes", k, len(val))
			}
			v = int64(binary.BigEndian.Uint64(val))
			found = true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("get counter: %w", err)
	}
	return v, found, nil
}

func (s *Store) Set(ctx context.Context, k string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(counterPrefix, k))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var old int64
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					old = int64(binary.BigEndian.Uint64(val))
				}
				return nil
			}); err != nil {
				return err
			}
			if value < old {
				return fmt.Errorf("%w: %s %d -> %d", ErrCounterRegressed, k, old, value)
			}
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(value))
		return txn.Set(key(counterPrefix, k), buf)
	})
	if err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}

func (s *Store) Has(ctx context.Context, k string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(syncPrefix, k))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check sync key: %w", err)
	}
	return found, nil
}

func (s *Store) Record(ctx context.Context, k string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stamp, _ := time.Now().UTC().MarshalBinary()
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(syncPrefix, k)); err == nil {
			return nil
		}
		return txn.Set(key(syncPrefix, k), stamp)
	})
	if err != nil {
		return fmt.Errorf("record sync key: %w", err)
	}
	return nil
}

// SyncKeyCount counts recorded sync keys.
func (s *Store) SyncKeyCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = syncPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
