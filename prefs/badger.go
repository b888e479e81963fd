// ABOUTME: BadgerDB preference backend
// ABOUTME: The default durable store, kept in a directory under the XDG data home
package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

type BadgerStorage struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a preference database in dir.
func OpenBadger(dir string) (*BadgerStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create prefs dir: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open prefs database: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func (b *BadgerStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (b *BadgerStorage) Set(ctx context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *BadgerStorage) Close() error {
	return b.db.Close()
}
