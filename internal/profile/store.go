// Package profile keeps the user's design profile, a free-form JSON
// document posted by the frontend.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyburd/redigo/redis"
)

// ErrInvalidDocument is returned for bodies that are not a JSON object
var ErrInvalidDocument = errors.New("profile must be a JSON object")

// Store reads and replaces the current profile. Get returns nil when no
// profile has been saved.
type Store interface {
	Get(ctx context.Context) (json.RawMessage, error)
	Set(ctx context.Context, doc json.RawMessage) error
}

// Validate checks that doc is a JSON object and returns it compacted
func Validate(doc []byte) (json.RawMessage, error) {
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 || doc[0] != '{' || !json.Valid(doc) {
		return nil, ErrInvalidDocument
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return nil, ErrInvalidDocument
	}
	return json.RawMessage(buf.Bytes()), nil
}

// RedisStore keeps the profile under a single Redis key
type RedisStore struct {
	pool *redis.Pool
	key  string
}

// NewRedisPool creates a connection pool for address
func NewRedisPool(address string, maxIdle int) *redis.Pool {
	pool := redis.NewPool(func() (redis.Conn, error) {
		return redis.Dial("tcp", address)
	}, maxIdle)
	pool.IdleTimeout = 240 * time.Second
	return pool
}

// NewRedisStore creates a store on top of pool
func NewRedisStore(pool *redis.Pool, key string) *RedisStore {
	return &RedisStore{pool: pool, key: key}
}

// Get returns the saved profile or nil
func (s *RedisStore) Get(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn := s.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", s.key))
	if err == redis.ErrNil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return json.RawMessage(data), nil
}

// Set replaces the saved profile
func (s *RedisStore) Set(ctx context.Context, doc json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn := s.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("SET", s.key, []byte(doc)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Close releases the pool
func (s *RedisStore) Close() error {
	return s.pool.Close()
}

// MemoryStore keeps the profile in process memory
type MemoryStore struct {
	mu  sync.RWMutex
	doc json.RawMessage
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the saved profile or nil
func (s *MemoryStore) Get(ctx context.Context) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, nil
	}
	return append(json.RawMessage(nil), s.doc...), nil
}

// Set replaces the saved profile
func (s *MemoryStore) Set(ctx context.Context, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = append(json.RawMessage(nil), doc...)
	return nil
}
