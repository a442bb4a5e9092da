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

var languageConstraints = map[string]constraintError{
	"languages_slug_key":  {"title", "could not derive a unique slug"},
	"languages_title_key": {"title", "a language with this title already exists"},
}

// LanguagePG stores languages in postgres.
type LanguagePG struct {
	pg
}

func NewLanguagePG(db *pgxpool.Pool, timeout time.Duration) *LanguagePG {
	return &LanguagePG{newPG(db, timeout)}
}

const languageColumns = "id, slug, title, created_at, updated_at"

func (r *LanguagePG) List(ctx context.Context, f Filter) ([]Language, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if f.Q != "" {
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", argn))
		args = append(args, "%"+f.Q+"%")
		argn++
	}

	sql := fmt.Sprintf(`SELECT %s FROM languages WHERE %s ORDER BY title ASC, id ASC`,
		languageColumns, strings.Join(clauses, " AND "))
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

	var out []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.ID, &l.Slug, &l.Title, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LanguagePG) Get(ctx context.Context, ref Ref) (Language, error) {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var l Language
	err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM languages WHERE %s", languageColumns, where), arg).
		Scan(&l.ID, &l.Slug, &l.Title, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Language{}, ErrNotFound
	}
	if err != nil {
		return Language{}, err
	}
	return l, nil
}

func (r *LanguagePG) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM languages WHERE slug = $1 AND id <> $2)", slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *LanguagePG) Create(ctx context.Context, l *Language) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx,
		"INSERT INTO languages (slug, title) VALUES ($1, $2) RETURNING id, created_at, updated_at",
		l.Slug, l.Title).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return translateConstraint(err, languageConstraints)
}

func (r *LanguagePG) Update(ctx context.Context, l *Language) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx,
		"UPDATE languages SET slug = $2, title = $3, updated_at = now() WHERE id = $1 RETURNING updated_at",
		l.ID, l.Slug, l.Title).Scan(&l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return translateConstraint(err, languageConstraints)
}

func (r *LanguagePG) Delete(ctx context.Context, ref Ref) error {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, "DELETE FROM languages WHERE "+where, arg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
