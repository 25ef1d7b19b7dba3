package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/taskflow/internal/kv"
)

// GetValue returns the value stored under key, or ErrNotFound.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("getting value %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting value %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores value under key, replacing any previous value.
func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting value %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting value %s: %w", key, err)
	}
	return nil
}

// ListKeys returns the keys starting with prefix in lexical order.
func (s *SQLiteStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		"SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key",
		len(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys %q: %w", prefix, err)
	}
	return keys, nil
}

// KV adapts the store to the synchronous kv.Store contract used by the
// notification engine.
func (s *SQLiteStore) KV() *KV {
	return &KV{store: s, timeout: 5 * time.Second}
}

// KV is a kv.Store and kv.Lister backed by the kv table.
type KV struct {
	store   *SQLiteStore
	timeout time.Duration
}

var (
	_ kv.Store  = (*KV)(nil)
	_ kv.Lister = (*KV)(nil)
)

func (k *KV) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	v, err := k.store.GetValue(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", kv.ErrNotFound
	}
	return v, err
}

func (k *KV) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.store.SetValue(ctx, key, value)
}

func (k *KV) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.store.DeleteValue(ctx, key)
}

func (k *KV) Keys(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.store.ListKeys(ctx, prefix)
}
