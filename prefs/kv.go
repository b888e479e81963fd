// ABOUTME: Adapter from byte-keyed KV stores (charm) to preference Storage
// ABOUTME: Maps the store's own not-found error onto ErrNotFound
package prefs

import (
	"context"
	"errors"
)

// ByteKV is the shape of charm.Client.
type ByteKV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

type kvStorage struct {
	kv       ByteKV
	notFound error
}

// FromKV wraps a byte-keyed store. notFound is the error the store returns
// for a missing key.
func FromKV(kv ByteKV, notFound error) Storage {
	return &kvStorage{kv: kv, notFound: notFound}
}

func (s *kvStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.kv.Get([]byte(key))
	if err != nil && s.notFound != nil && errors.Is(err, s.notFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (s *kvStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.kv.Set([]byte(key), value)
}
