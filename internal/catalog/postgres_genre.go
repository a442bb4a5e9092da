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

var genreConstraints = map[string]constraintError{
	"genres_slug_key":  {"title", "could not derive a unique slug"},
	"genres_title_key": {"title", "a genre with this title already exists"},
}

// GenrePG stores genres in postgres.
type GenrePG struct {
	pg
}

func NewGenrePG(db *pgxpool.Pool, timeout time.Duration) *GenrePG {
	return &GenrePG{newPG(db, timeout)}
}

const genreColumns = "id, slug, title, created_at, updated_at"

func (r *GenrePG) List(ctx context.Context, f Filter) ([]Genre, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if f.Q != "" {
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", argn))
		args = append(args, "%"+f.Q+"%")
		argn++
	}

	sql := fmt.Sprintf(`SELECT %s FROM genres WHERE %s ORDER BY title ASC, id ASC`,
		genreColumns, strings.Join(clauses, " AND "))
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

	var out []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Slug, &g.Title, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GenrePG) Get(ctx context.Context, ref Ref) (Genre, error) {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var g Genre
	err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM genres WHERE %s", genreColumns, where), arg).
		Scan(&g.ID, &g.Slug, &g.Title, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Genre{}, ErrNotFound
	}
	if err != nil {
		return Genre{}, err
	}
	return g, nil
}

func (r *GenrePG) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM genres WHERE slug = $1 AND id <> $2)", slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *GenrePG) Create(ctx context.Context, g *Genre) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx,
		"INSERT INTO genres (slug, title) VALUES ($1, $2) RETURNING id, created_at, updated_at",
		g.Slug, g.Title).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return translateConstraint(err, genreConstraints)
}

func (r *GenrePG) Update(ctx context.Context, g *Genre) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx,
		"UPDATE genres SET slug = $2, title = $3, updated_at = now() WHERE id = $1 RETURNING updated_at",
		g.ID, g.Slug, g.Title).Scan(&g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return translateConstraint(err, genreConstraints)
}

func (r *GenrePG) Delete(ctx context.Context, ref Ref) error {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, "DELETE FROM genres WHERE "+where, arg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
