// Package badger stores snapshots in an embedded BadgerDB key-value store.
//
// Members live under member/<seq> and connections under conn/<seq>, with seq
// zero-padded so that key order is registration (or connection) order. Values
// are JSON.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

const (
	memberPrefix = "member/"
	connPrefix   = "conn/"
)

// Config configures the BadgerDB store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in RAM.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *zap.Logger
}

// DefaultConfig returns a durable configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration suitable for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Store implements graph.Repository on BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func memberKey(seq int) []byte { return []byte(fmt.Sprintf("%s%010d", memberPrefix, seq)) }
func connKey(seq int) []byte   { return []byte(fmt.Sprintf("%s%010d", connPrefix, seq)) }

// Save drops both prefixes and writes snap as one batch.
func (s *Store) Save(ctx context.Context, snap *network.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(memberPrefix), []byte(connPrefix)); err != nil {
		return fmt.Errorf("drop snapshot keys: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, m := range snap.Members {
		val, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal member %s: %w", m.ID, err)
		}
		if err := wb.Set(memberKey(i), val); err != nil {
			return fmt.Errorf("write member %s: %w", m.ID, err)
		}
	}
	for i, c := range snap.Connections {
		val, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal connection %s-%s: %w", c.A, c.B, err)
		}
		if err := wb.Set(connKey(i), val); err != nil {
			return fmt.Errorf("write connection %s-%s: %w", c.A, c.B, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// Load scans both prefixes in key order.
func (s *Store) Load(ctx context.Context) (*network.Snapshot, error) {
	snap := &network.Snapshot{}
	err := s.db.View(func(txn *badger.Txn) error {
		if err := scan(ctx, txn, memberPrefix, func(val []byte) error {
			var m network.Member
			if err := json.Unmarshal(val, &m); err != nil {
				return fmt.Errorf("unmarshal member: %w", err)
			}
			snap.Members = append(snap.Members, m)
			return nil
		}); err != nil {
			return err
		}
		return scan(ctx, txn, connPrefix, func(val []byte) error {
			var c network.Connection
			if err := json.Unmarshal(val, &c); err != nil {
				return fmt.Errorf("unmarshal connection: %w", err)
			}
			snap.Connections = append(snap.Connections, c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

func scan(ctx context.Context, txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close(_ context.Context) error { return s.db.Close() }

var _ graph.Repository = (*Store)(nil)
