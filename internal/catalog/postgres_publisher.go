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

var publisherConstraints = map[string]constraintError{
	"publishers_slug_key":          {"title", "could not derive a unique slug"},
	"publishers_title_key":         {"title", "a publisher with this title already exists"},
	"publishers_email_address_key": {"email_address", "a publisher with this email already exists"},
}

// PublisherPG stores publishers in postgres. Deleting a publisher cascades
// to its books through the books.publisher_id foreign key.
type PublisherPG struct {
	pg
}

func NewPublisherPG(db *pgxpool.Pool, timeout time.Duration) *PublisherPG {
	return &PublisherPG{newPG(db, timeout)}
}

// email_address is NULL when unset so the unique index ignores blank rows.
const publisherColumns = "id, slug, title, address, COALESCE(email_address, ''), created_at, updated_at"

func scanPublisher(row pgx.Row, p *Publisher) error {
	return row.Scan(&p.ID, &p.Slug, &p.Title, &p.Address, &p.Email, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PublisherPG) List(ctx context.Context, f Filter) ([]Publisher, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if f.Q != "" {
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", argn))
		args = append(args, "%"+f.Q+"%")
		argn++
	}

	sql := fmt.Sprintf(`SELECT %s FROM publishers WHERE %s ORDER BY title ASC, id ASC`,
		publisherColumns, strings.Join(clauses, " AND "))
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

	var out []Publisher
	for rows.Next() {
		var p Publisher
		if err := scanPublisher(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PublisherPG) Get(ctx context.Context, ref Ref) (Publisher, error) {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var p Publisher
	err := scanPublisher(r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM publishers WHERE %s", publisherColumns, where), arg), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Publisher{}, ErrNotFound
	}
	if err != nil {
		return Publisher{}, err
	}
	return p, nil
}

func (r *PublisherPG) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM publishers WHERE slug = $1 AND id <> $2)", slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *PublisherPG) Create(ctx context.Context, p *Publisher) error {
	const sql = `
		INSERT INTO publishers (slug, title, address, email_address)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at, updated_at`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, sql, p.Slug, p.Title, p.Address, p.Email).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translateConstraint(err, publisherConstraints)
}

func (r *PublisherPG) Update(ctx context.Context, p *Publisher) error {
	const sql = `
		UPDATE publishers
		SET slug = $2, title = $3, address = $4, email_address = NULLIF($5, ''), updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(ctx, sql, p.ID, p.Slug, p.Title, p.Address, p.Email).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return translateConstraint(err, publisherConstraints)
}

func (r *PublisherPG) Delete(ctx context.Context, ref Ref) error {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, "DELETE FROM publishers WHERE "+where, arg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
