package catalog

import (
	"context"
	"errors"
	"fmt"

	"bookcatalog/internal/slug"
)

// Controller applies the five CRUD operations uniformly to one entity kind.
// It owns validation and slug derivation; the store owns atomicity and the
// authoritative uniqueness guarantees.
type Controller[T any, P Payload] struct {
	kind  Kind[T, P]
	store Store[T]
	slugs *slug.Generator
}

// NewController wires a kind descriptor to its store.
func NewController[T any, P Payload](kind Kind[T, P], store Store[T], slugs *slug.Generator) *Controller[T, P] {
	if slugs == nil {
		slugs = &slug.Generator{}
	}
	return &Controller[T, P]{kind: kind, store: store, slugs: slugs}
}

// Name returns the kind's singular name.
func (c *Controller[T, P]) Name() string { return c.kind.Name }

// List returns entities matching f, ordered by the kind's natural key. An
// empty result is a valid, non-error outcome.
func (c *Controller[T, P]) List(ctx context.Context, f Filter) ([]T, error) {
	out, err := c.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Retrieve returns the entity identified by ref.
func (c *Controller[T, P]) Retrieve(ctx context.Context, ref Ref) (T, error) {
	return c.store.Get(ctx, ref)
}

// Create validates the payload, derives a slug and persists a new entity.
// On validation failure nothing is written.
func (c *Controller[T, P]) Create(ctx context.Context, payload P) (T, string, error) {
	var zero T
	if fe := payload.Validate(false); len(fe) > 0 {
		return zero, "", fe
	}

	entity := new(T)
	if c.kind.Defaults != nil {
		c.kind.Defaults(entity)
	}
	c.kind.Apply(entity, payload)

	s, err := c.generateSlug(ctx, c.kind.SlugSource(entity), 0)
	if err != nil {
		return zero, "", err
	}
	c.kind.Meta(entity).Slug = s

	if err := c.store.Create(ctx, entity); err != nil {
		return zero, "", err
	}
	msg := fmt.Sprintf("%s %v created", c.kind.Name, c.kind.Describe(entity))
	return *entity, msg, nil
}

// Update applies the payload to the entity identified by ref. When partial
// is false every declared field must be present. The pre-update snapshot is
// captured so the message reports a before/after diff, and the slug is
// re-derived when the designated name field changes.
func (c *Controller[T, P]) Update(ctx context.Context, ref Ref, payload P, partial bool) (T, string, error) {
	var zero T
	current, err := c.store.Get(ctx, ref)
	if err != nil {
		return zero, "", err
	}
	if fe := payload.Validate(partial); len(fe) > 0 {
		return zero, "", fe
	}

	before := c.kind.Describe(&current)
	updated := current
	c.kind.Apply(&updated, payload)

	meta := c.kind.Meta(&updated)
	if c.kind.SlugSource(&updated) != c.kind.SlugSource(&current) {
		s, err := c.generateSlug(ctx, c.kind.SlugSource(&updated), meta.ID)
		if err != nil {
			return zero, "", err
		}
		meta.Slug = s
	}

	if err := c.store.Update(ctx, &updated); err != nil {
		return zero, "", err
	}
	msg := fmt.Sprintf("%s updated: old %v, new %v", c.kind.Name, before, c.kind.Describe(&updated))
	return updated, msg, nil
}

// Delete removes the entity identified by ref. Deleting the same identity a
// second time reports ErrNotFound, never silent success.
func (c *Controller[T, P]) Delete(ctx context.Context, ref Ref) (string, error) {
	entity, err := c.store.Get(ctx, ref)
	if err != nil {
		return "", err
	}
	id := c.kind.Meta(&entity).ID
	if err := c.store.Delete(ctx, ByID(id)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %q deleted", c.kind.Name, c.kind.Label(&entity)), nil
}

func (c *Controller[T, P]) generateSlug(ctx context.Context, source string, excludeID int64) (string, error) {
	s, err := c.slugs.Generate(ctx, source, excludeID, c.store.SlugTaken)
	switch {
	case errors.Is(err, slug.ErrEmptySource):
		return "", FieldErrors{c.kind.SlugField: "cannot derive a slug from this value"}
	case errors.Is(err, slug.ErrExhausted):
		return "", FieldErrors{c.kind.SlugField: "could not derive a unique slug"}
	case err != nil:
		return "", err
	}
	return s, nil
}
