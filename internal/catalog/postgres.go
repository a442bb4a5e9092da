package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultStoreTimeout = 5 * time.Second

// pg holds what every postgres-backed store shares.
type pg struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func newPG(db *pgxpool.Pool, timeout time.Duration) pg {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return pg{db: db, timeout: timeout}
}

func (p pg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// constraintError maps a named database constraint onto the payload field
// it guards, so a violation at write time surfaces as a validation failure
// and not as an unhandled fault (the pre-write checks are best-effort; the
// constraint is authoritative).
type constraintError struct {
	field   string
	message string
}

func translateConstraint(err error, constraints map[string]constraintError) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if ce, ok := constraints[pgErr.ConstraintName]; ok {
			return FieldErrors{ce.field: ce.message}
		}
	}
	return err
}

// refWhere renders a Ref into a WHERE fragment for $1.
func refWhere(ref Ref) (string, any) {
	if ref.Slug != "" {
		return "slug = $1", ref.Slug
	}
	return "id = $1", ref.ID
}
