package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var authorConstraints = map[string]constraintError{
	"authors_slug_key": {"first_name", "could not derive a unique slug"},
}

// AuthorPG stores authors in postgres.
type AuthorPG struct {
	pg
}

func NewAuthorPG(db *pgxpool.Pool, timeout time.Duration) *AuthorPG {
	return &AuthorPG{newPG(db, timeout)}
}

const authorColumns = "id, slug, first_name, last_name, country, created_at, updated_at"

func scanAuthor(row pgx.Row, a *Author) error {
	return row.Scan(&a.ID, &a.Slug, &a.FirstName, &a.LastName, &a.Country, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AuthorPG) List(ctx context.Context, f Filter) ([]Author, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if f.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", argn, argn+1))
		pattern := "%" + f.Q + "%"
		args = append(args, pattern, pattern)
		argn += 2
	}

	sql := fmt.Sprintf(`SELECT %s FROM authors WHERE %s ORDER BY first_name ASC, last_name ASC, id ASC`,
		authorColumns, strings.Join(clauses, " AND "))
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argn, argn+1)
		args = append(args, f.Limit, f.Offset)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Author
	for rows.Next() {
		var a Author
		if err := scanAuthor(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AuthorPG) Get(ctx context.Context, ref Ref) (Author, error) {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var a Author
	err := scanAuthor(r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM authors WHERE %s", authorColumns, where), arg), &a)
	if errors.Is(err, pgx.ErrNoRows) {
		return Author{}, ErrNotFound
	}
	if err != nil {
		return Author{}, err
	}
	return a, nil
}

func (r *AuthorPG) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM authors WHERE slug = $1 AND id <> $2)", slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *AuthorPG) Create(ctx context.Context, a *Author) error {
	const sql = `
		INSERT INTO authors (slug, first_name, last_name, country)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, sql, a.Slug, a.FirstName, a.LastName, a.Country).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return translateConstraint(err, authorConstraints)
}

func (r *AuthorPG) Update(ctx context.Context, a *Author) error {
	const sql = `
		UPDATE authors
		SET slug = $2, first_name = $3, last_name = $4, country = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, sql, a.ID, a.Slug, a.FirstName, a.LastName, a.Country).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return translateConstraint(err, authorConstraints)
}

func (r *AuthorPG) Delete(ctx context.Context, ref Ref) error {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, "DELETE FROM authors WHERE "+where, arg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
