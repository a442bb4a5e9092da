package catalog

import (
	"context"
)

// Ref identifies an entity by numeric ID (REST surface) or by slug (web
// surface). Exactly one side is set.
type Ref struct {
	ID   int64
	Slug string
}

// ByID builds a Ref from a numeric identity.
func ByID(id int64) Ref { return Ref{ID: id} }

// BySlug builds a Ref from a slug identity.
func BySlug(slug string) Ref { return Ref{Slug: slug} }

// Filter narrows and pages a List call. Kinds ignore the relation filters
// that do not apply to them. Zero Limit means no paging.
type Filter struct {
	Q         string
	Publisher int64
	Genre     int64
	Language  int64
	Visible   *bool
	Limit     int
	Offset    int
}

// Store is the persistence contract the generic controller operates
// against: one implementation per entity kind.
//
// Get and Delete return ErrNotFound when the ref does not resolve to a live
// row. Create and Update translate unique-constraint violations into
// FieldErrors and apply the row and all its relation attachments as one
// atomic unit. List returns rows ordered by the kind's natural key.
type Store[T any] interface {
	List(ctx context.Context, f Filter) ([]T, error)
	Get(ctx context.Context, ref Ref) (T, error)
	Create(ctx context.Context, e *T) error
	Update(ctx context.Context, e *T) error
	Delete(ctx context.Context, ref Ref) error

	// SlugTaken reports whether slug is used by a live row other than
	// excludeID. It backs the generator's best-effort uniqueness check;
	// the unique index remains the authoritative guard.
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
}
