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

var bookConstraints = map[string]constraintError{
	"books_slug_key":                  {"title", "could not derive a unique slug"},
	"books_publisher_id_fkey":         {"publisher", "publisher does not exist"},
	"books_pages_check":               {"pages", "must not be negative"},
	"books_year_check":                {"year", "must be between 1000 and 3000"},
	"book_authors_author_id_fkey":     {"authors", "one or more authors do not exist"},
	"book_genres_genre_id_fkey":       {"genres", "one or more genres do not exist"},
	"book_languages_language_id_fkey": {"languages", "one or more languages do not exist"},
}

// BookPG stores books in postgres. The row and all its relation attachments
// are written in a single transaction, so no half-applied book is ever
// visible.
type BookPG struct {
	pg
}

func NewBookPG(db *pgxpool.Pool, timeout time.Duration) *BookPG {
	return &BookPG{newPG(db, timeout)}
}

const bookColumns = `
	b.id, b.slug, b.title, b.pages, b.year, b.cover, b.visible, b.created_at, b.updated_at,
	p.id, p.slug, p.title, p.address, COALESCE(p.email_address, ''), p.created_at, p.updated_at`

func scanBook(row pgx.Row, b *Book) error {
	return row.Scan(
		&b.ID, &b.Slug, &b.Title, &b.Pages, &b.Year, &b.Cover, &b.Visible, &b.CreatedAt, &b.UpdatedAt,
		&b.Publisher.ID, &b.Publisher.Slug, &b.Publisher.Title, &b.Publisher.Address,
		&b.Publisher.Email, &b.Publisher.CreatedAt, &b.Publisher.UpdatedAt,
	)
}

func (r *BookPG) List(ctx context.Context, f Filter) ([]Book, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if f.Q != "" {
		clauses = append(clauses, fmt.Sprintf("b.title ILIKE $%d", argn))
		args = append(args, "%"+f.Q+"%")
		argn++
	}
	if f.Publisher != 0 {
		clauses = append(clauses, fmt.Sprintf("b.publisher_id = $%d", argn))
		args = append(args, f.Publisher)
		argn++
	}
	if f.Genre != 0 {
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM book_genres bg WHERE bg.book_id = b.id AND bg.genre_id = $%d)", argn))
		args = append(args, f.Genre)
		argn++
	}
	if f.Language != 0 {
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM book_languages bl WHERE bl.book_id = b.id AND bl.language_id = $%d)", argn))
		args = append(args, f.Language)
		argn++
	}
	if f.Visible != nil {
		clauses = append(clauses, fmt.Sprintf("b.visible = $%d", argn))
		args = append(args, *f.Visible)
		argn++
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM books b
		JOIN publishers p ON p.id = b.publisher_id
		WHERE %s
		ORDER BY b.title ASC, b.id ASC`, bookColumns, strings.Join(clauses, " AND "))
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

	var out []Book
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookPG) Get(ctx context.Context, ref Ref) (Book, error) {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql := fmt.Sprintf(`
		SELECT %s
		FROM books b
		JOIN publishers p ON p.id = b.publisher_id
		WHERE b.%s`, bookColumns, where)

	var b Book
	err := scanBook(r.db.QueryRow(ctx, sql, arg), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	if err != nil {
		return Book{}, err
	}
	books := []Book{b}
	if err := r.loadRelations(ctx, books); err != nil {
		return Book{}, err
	}
	return books[0], nil
}

// loadRelations fills Authors, Genres and Languages for every listed book
// with their natural ordering.
func (r *BookPG) loadRelations(ctx context.Context, books []Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int64, len(books))
	index := make(map[int64]*Book, len(books))
	for i := range books {
		ids[i] = books[i].ID
		books[i].Authors = []Author{}
		books[i].Genres = []Genre{}
		books[i].Languages = []Language{}
		index[books[i].ID] = &books[i]
	}

	const authorsSQL = `
		SELECT ba.book_id, a.id, a.slug, a.first_name, a.last_name, a.country, a.created_at, a.updated_at
		FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ANY($1)
		ORDER BY a.first_name ASC, a.last_name ASC, a.id ASC`
	rows, err := r.db.Query(ctx, authorsSQL, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookID int64
		var a Author
		if err := rows.Scan(&bookID, &a.ID, &a.Slug, &a.FirstName, &a.LastName, &a.Country, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}
		index[bookID].Authors = append(index[bookID].Authors, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const genresSQL = `
		SELECT bg.book_id, g.id, g.slug, g.title, g.created_at, g.updated_at
		FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ANY($1)
		ORDER BY g.title ASC, g.id ASC`
	rows, err = r.db.Query(ctx, genresSQL, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookID int64
		var g Genre
		if err := rows.Scan(&bookID, &g.ID, &g.Slug, &g.Title, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return err
		}
		index[bookID].Genres = append(index[bookID].Genres, g)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const languagesSQL = `
		SELECT bl.book_id, l.id, l.slug, l.title, l.created_at, l.updated_at
		FROM book_languages bl
		JOIN languages l ON l.id = bl.language_id
		WHERE bl.book_id = ANY($1)
		ORDER BY l.title ASC, l.id ASC`
	rows, err = r.db.Query(ctx, languagesSQL, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookID int64
		var l Language
		if err := rows.Scan(&bookID, &l.ID, &l.Slug, &l.Title, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return err
		}
		index[bookID].Languages = append(index[bookID].Languages, l)
	}
	return rows.Err()
}

func (r *BookPG) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var taken bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM books WHERE slug = $1 AND id <> $2)", slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *BookPG) Create(ctx context.Context, b *Book) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const sql = `
		INSERT INTO books (slug, title, publisher_id, pages, year, cover, visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, sql, b.Slug, b.Title, b.Publisher.ID, b.Pages, b.Year, b.Cover, b.Visible).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return translateConstraint(err, bookConstraints)
	}
	if err := insertBookRelations(ctx, tx, b); err != nil {
		return translateConstraint(err, bookConstraints)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateConstraint(err, bookConstraints)
	}

	full, err := r.Get(ctx, ByID(b.ID))
	if err != nil {
		return err
	}
	*b = full
	return nil
}

func (r *BookPG) Update(ctx context.Context, b *Book) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const sql = `
		UPDATE books
		SET slug = $2, title = $3, publisher_id = $4, pages = $5, year = $6, cover = $7, visible = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err = tx.QueryRow(ctx, sql, b.ID, b.Slug, b.Title, b.Publisher.ID, b.Pages, b.Year, b.Cover, b.Visible).
		Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return translateConstraint(err, bookConstraints)
	}

	for _, table := range []string{"book_authors", "book_genres", "book_languages"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE book_id = $1", table), b.ID); err != nil {
			return err
		}
	}
	if err := insertBookRelations(ctx, tx, b); err != nil {
		return translateConstraint(err, bookConstraints)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateConstraint(err, bookConstraints)
	}

	full, err := r.Get(ctx, ByID(b.ID))
	if err != nil {
		return err
	}
	*b = full
	return nil
}

func insertBookRelations(ctx context.Context, tx pgx.Tx, b *Book) error {
	for _, a := range b.Authors {
		if _, err := tx.Exec(ctx, "INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)", b.ID, a.ID); err != nil {
			return err
		}
	}
	for _, g := range b.Genres {
		if _, err := tx.Exec(ctx, "INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)", b.ID, g.ID); err != nil {
			return err
		}
	}
	for _, l := range b.Languages {
		if _, err := tx.Exec(ctx, "INSERT INTO book_languages (book_id, language_id) VALUES ($1, $2)", b.ID, l.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *BookPG) Delete(ctx context.Context, ref Ref) error {
	where, arg := refWhere(ref)
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, "DELETE FROM books WHERE "+where, arg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
