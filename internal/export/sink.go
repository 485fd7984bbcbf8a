package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("export: key not found")

// Sink stores exported artifacts under slash-separated keys.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
}

// DirSink writes each key as a file below Root.
type DirSink struct {
	Root string
}

// NewDirSink returns a sink rooted at dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Root: dir}
}

func (s *DirSink) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("key %q escapes the output directory", key)
	}
	return filepath.Join(s.Root, clean), nil
}

// Put writes data to Root/key, creating parent directories.
func (s *DirSink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", key)
	}
	return errors.Wrapf(os.WriteFile(p, data, 0o644), "write %s", key)
}

// Get reads back a stored key.
func (s *DirSink) Get(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return data, errors.Wrapf(err, "read %s", key)
}

// BadgerSink keeps artifacts in a badger key-value store.
type BadgerSink struct {
	db *badger.DB
}

// OpenBadger opens a store at dir. An empty dir opens an in-memory store.
func OpenBadger(dir string) (*BadgerSink, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "open badger store")
	}
	return &BadgerSink{db: db}, nil
}

// Put stores data under key, replacing any previous value.
func (s *BadgerSink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	return errors.Wrapf(err, "store %s", key)
}

// Get returns the value stored under key.
func (s *BadgerSink) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", key)
	}
	return data, nil
}

// Keys lists stored keys with the given prefix in key order.
func (s *BadgerSink) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, errors.Wrap(err, "list keys")
}

// Close releases the store.
func (s *BadgerSink) Close() error {
	return s.db.Close()
}
