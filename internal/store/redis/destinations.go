package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/chatrelay/internal/store/codec"
)

// Store persists the destination set under a single Redis key
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, key string) *Store {
	return &Store{
		client: client,
		key:    DestinationsKey(key),
	}
}

// Name identifies the backend in logs and health output
func (s *Store) Name() string { return "redis" }

// Key returns the Redis key in use
func (s *Store) Key() string { return s.key }

// Load retrieves the destination set. A missing key is an empty set.
func (s *Store) Load(ctx context.Context) ([]string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get destinations: %w", err)
	}

	ids, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key %s: %w", s.key, err)
	}
	return ids, nil
}

// Save overwrites the destination set (no TTL)
func (s *Store) Save(ctx context.Context, ids []string) error {
	data, err := codec.Encode(ids)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save destinations: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
