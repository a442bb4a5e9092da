package catalog

import (
	"context"
	"sort"
	"time"
)

// memStore is an in-memory Store used by the controller and handler tests.
type memStore[T any] struct {
	meta   func(*T) *Meta
	nextID int64
	rows   map[int64]T
}

func newMemStore[T any](meta func(*T) *Meta) *memStore[T] {
	return &memStore[T]{meta: meta, rows: map[int64]T{}}
}

func (m *memStore[T]) List(ctx context.Context, f Filter) ([]T, error) {
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memStore[T]) Get(ctx context.Context, ref Ref) (T, error) {
	var zero T
	if ref.ID != 0 {
		row, ok := m.rows[ref.ID]
		if !ok {
			return zero, ErrNotFound
		}
		return row, nil
	}
	for _, row := range m.rows {
		if m.meta(&row).Slug == ref.Slug {
			return row, nil
		}
	}
	return zero, ErrNotFound
}

func (m *memStore[T]) Create(ctx context.Context, entity *T) error {
	m.nextID++
	meta := m.meta(entity)
	meta.ID = m.nextID
	meta.CreatedAt = time.Now()
	meta.UpdatedAt = meta.CreatedAt
	m.rows[meta.ID] = *entity
	return nil
}

func (m *memStore[T]) Update(ctx context.Context, entity *T) error {
	meta := m.meta(entity)
	if _, ok := m.rows[meta.ID]; !ok {
		return ErrNotFound
	}
	meta.UpdatedAt = time.Now()
	m.rows[meta.ID] = *entity
	return nil
}

func (m *memStore[T]) Delete(ctx context.Context, ref Ref) error {
	if ref.ID != 0 {
		if _, ok := m.rows[ref.ID]; !ok {
			return ErrNotFound
		}
		delete(m.rows, ref.ID)
		return nil
	}
	for id, row := range m.rows {
		if m.meta(&row).Slug == ref.Slug {
			delete(m.rows, id)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore[T]) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	for id, row := range m.rows {
		if id != excludeID && m.meta(&row).Slug == slug {
			return true, nil
		}
	}
	return false, nil
}
