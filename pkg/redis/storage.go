package redis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultScanBatchSize = 500

// Storage is a key/value view over Redis confined to one key namespace.
// Every key is stored as namespace+key, so two storages with different
// namespaces never see each other's data.
type Storage struct {
	db            redis.UniversalClient
	namespace     string
	scanBatchSize int64
}

// NewStorage returns a storage whose keys are prefixed with namespace.
// The namespace must not be empty.
func NewStorage(client redis.UniversalClient, namespace string) (*Storage, error) {
	if namespace == "" {
		return nil, ErrEmptyNamespace
	}
	return &Storage{
		db:            client,
		namespace:     namespace,
		scanBatchSize: defaultScanBatchSize,
	}, nil
}

// NewStorageWithConfig is NewStorage using cfg.ScanBatchSize for Keys and Reset.
func NewStorageWithConfig(client redis.UniversalClient, namespace string, cfg Config) (*Storage, error) {
	s, err := NewStorage(client, namespace)
	if err != nil {
		return nil, err
	}
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = int64(cfg.ScanBatchSize)
	}
	return s, nil
}

// Namespace returns the key prefix of the storage.
func (s *Storage) Namespace() string {
	return s.namespace
}

// Key returns the full Redis key for key.
func (s *Storage) Key(key string) string {
	return s.namespace + key
}

// Get returns nil for empty keys and missing values.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.db.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores val under key. Zero exp means no expiration.
func (s *Storage) Set(ctx context.Context, key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.db.Set(ctx, s.Key(key), val, exp).Err()
}

// Delete removes keys. Empty keys are ignored.
func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			full = append(full, s.Key(k))
		}
	}
	if len(full) == 0 {
		return nil
	}
	return s.db.Del(ctx, full...).Err()
}

// Exists reports whether key is present.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	n, err := s.db.Exists(ctx, s.Key(key)).Result()
	return n > 0, err
}

// Keys lists the keys of the namespace, without the prefix. It uses SCAN.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.scan(ctx, func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.namespace))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Reset deletes every key of the namespace. Keys of other namespaces are
// untouched. Keys are collected before deleting, since SCAN may skip keys
// when the keyspace shrinks under it.
func (s *Storage) Reset(ctx context.Context) error {
	var keys []string
	err := s.scan(ctx, func(batch []string) error {
		keys = append(keys, batch...)
		return nil
	})
	if err != nil {
		return err
	}
	for chunk := range slices.Chunk(keys, int(s.scanBatchSize)) {
		if err := s.db.Del(ctx, chunk...).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Conn returns the underlying client.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

func (s *Storage) scan(ctx context.Context, fn func(batch []string) error) error {
	match := escapeGlob(s.namespace) + "*"
	var cursor uint64
	for {
		batch, next, err := s.db.Scan(ctx, cursor, match, s.scanBatchSize).Result()
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
