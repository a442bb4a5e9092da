// Package cache wraps a catalog store with a redis read-through layer.
// Only lookups by numeric id are cached; slug lookups and lists always hit
// the underlying store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bookcatalog/internal/catalog"
)

const defaultTTL = 60 * time.Second

// Store decorates a catalog.Store. Mutations invalidate the cached row
// before hitting the inner store, so a failed write never leaves a stale
// entry behind longer than the TTL.
type Store[T any] struct {
	inner catalog.Store[T]
	rdb   *redis.Client
	kind  string
	ttl   time.Duration
	meta  func(*T) *catalog.Meta
}

func Wrap[T any](inner catalog.Store[T], rdb *redis.Client, kind string, meta func(*T) *catalog.Meta) *Store[T] {
	return &Store[T]{inner: inner, rdb: rdb, kind: kind, ttl: defaultTTL, meta: meta}
}

func (s *Store[T]) key(id int64) string {
	return fmt.Sprintf("catalog:%s:%d", s.kind, id)
}

func (s *Store[T]) List(ctx context.Context, f catalog.Filter) ([]T, error) {
	return s.inner.List(ctx, f)
}

func (s *Store[T]) Get(ctx context.Context, ref catalog.Ref) (T, error) {
	if ref.ID == 0 {
		return s.inner.Get(ctx, ref)
	}

	var entity T
	raw, err := s.rdb.Get(ctx, s.key(ref.ID)).Bytes()
	if err == nil {
		if err := json.Unmarshal(raw, &entity); err == nil {
			return entity, nil
		}
	} else if err != redis.Nil {
		log.Printf("cache: get %s: %v", s.key(ref.ID), err)
	}

	entity, err = s.inner.Get(ctx, ref)
	if err != nil {
		return entity, err
	}
	if raw, err := json.Marshal(entity); err == nil {
		if err := s.rdb.Set(ctx, s.key(ref.ID), raw, s.ttl).Err(); err != nil {
			log.Printf("cache: set %s: %v", s.key(ref.ID), err)
		}
	}
	return entity, nil
}

func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	return s.inner.Create(ctx, entity)
}

func (s *Store[T]) Update(ctx context.Context, entity *T) error {
	s.invalidate(ctx, s.meta(entity).ID)
	return s.inner.Update(ctx, entity)
}

func (s *Store[T]) Delete(ctx context.Context, ref catalog.Ref) error {
	if ref.ID != 0 {
		s.invalidate(ctx, ref.ID)
	}
	return s.inner.Delete(ctx, ref)
}

func (s *Store[T]) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return s.inner.SlugTaken(ctx, slug, excludeID)
}

func (s *Store[T]) invalidate(ctx context.Context, id int64) {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		log.Printf("cache: del %s: %v", s.key(id), err)
	}
}
