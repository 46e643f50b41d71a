package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
)

// BadgerStorage implements the Storage interface with an embedded badger database stored in the
// Root directory.
type BadgerStorage struct {
	DB *badger.DB
}

// NewBadgerStorage opens, or creates, the database at Root/badger.
func NewBadgerStorage(config Config) (*BadgerStorage, error) {
	path := filepath.Join(config.Root, BucketBadger)
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, errors.Wrap(err, "create directory")
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}

	return &BadgerStorage{DB: db}, nil
}

// Write sets the value for the key. A positive TTL in the options expires the key after that many
// seconds.
func (s *BadgerStorage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	return s.DB.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), body)
		if options != nil && options.TTL > 0 {
			entry = entry.WithTTL(time.Duration(options.TTL) * time.Second)
		}
		return txn.SetEntry(entry)
	})
}

// Read returns the value for the key.
func (s *BadgerStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		result, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "key: %s", key)
	}

	return result, nil
}

// Remove deletes the key.
func (s *BadgerStorage) Remove(ctx context.Context, key string) error {
	err := s.DB.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	return err
}

// List returns all keys starting with the path, in sorted order.
func (s *BadgerStorage) List(ctx context.Context, path string) ([]string, error) {
	var keys []string
	err := s.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(path)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// Close closes the database.
func (s *BadgerStorage) Close() error {
	return s.DB.Close()
}
