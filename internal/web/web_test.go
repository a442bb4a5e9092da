package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/catalog"
)

// fakeStore is an in-memory catalog.Store for the page handler tests.
type fakeStore[T any] struct {
	meta   func(*T) *catalog.Meta
	nextID int64
	rows   map[int64]T
}

func newFakeStore[T any](meta func(*T) *catalog.Meta) *fakeStore[T] {
	return &fakeStore[T]{meta: meta, rows: map[int64]T{}}
}

func (f *fakeStore[T]) List(ctx context.Context, _ catalog.Filter) ([]T, error) {
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.rows[id])
	}
	return out, nil
}

func (f *fakeStore[T]) Get(ctx context.Context, ref catalog.Ref) (T, error) {
	var zero T
	if ref.ID != 0 {
		row, ok := f.rows[ref.ID]
		if !ok {
			return zero, catalog.ErrNotFound
		}
		return row, nil
	}
	for _, row := range f.rows {
		if f.meta(&row).Slug == ref.Slug {
			return row, nil
		}
	}
	return zero, catalog.ErrNotFound
}

func (f *fakeStore[T]) Create(ctx context.Context, e *T) error {
	f.nextID++
	m := f.meta(e)
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	f.rows[m.ID] = *e
	return nil
}

func (f *fakeStore[T]) Update(ctx context.Context, e *T) error {
	m := f.meta(e)
	if _, ok := f.rows[m.ID]; !ok {
		return catalog.ErrNotFound
	}
	f.rows[m.ID] = *e
	return nil
}

func (f *fakeStore[T]) Delete(ctx context.Context, ref catalog.Ref) error {
	if ref.ID != 0 {
		if _, ok := f.rows[ref.ID]; !ok {
			return catalog.ErrNotFound
		}
		delete(f.rows, ref.ID)
		return nil
	}
	for id, row := range f.rows {
		if f.meta(&row).Slug == ref.Slug {
			delete(f.rows, id)
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (f *fakeStore[T]) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	for id, row := range f.rows {
		if id != excludeID && f.meta(&row).Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	srv := NewServer(
		catalog.NewController(catalog.Books, newFakeStore(catalog.Books.Meta), nil),
		catalog.NewController(catalog.Authors, newFakeStore(catalog.Authors.Meta), nil),
		catalog.NewController(catalog.Publishers, newFakeStore(catalog.Publishers.Meta), nil),
		catalog.NewController(catalog.Genres, newFakeStore(catalog.Genres.Meta), nil),
		catalog.NewController(catalog.Languages, newFakeStore(catalog.Languages.Meta), nil),
	)
	mux := http.NewServeMux()
	srv.Register(mux)
	return mux
}

func postForm(mux *http.ServeMux, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	mux.ServeHTTP(w, r)
	return w
}

func TestPages_CreateAndBrowse(t *testing.T) {
	mux := newTestMux(t)

	w := postForm(mux, "/genres", url.Values{"title": {"Science Fiction"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/genres/science-fiction", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "create sets a flash cookie")

	// Detail page shows the flash once.
	w2 := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/genres/science-fiction", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	mux.ServeHTTP(w2, r)
	require.Equal(t, http.StatusOK, w2.Code)
	body := w2.Body.String()
	assert.Contains(t, body, "Science Fiction")
	assert.Contains(t, body, "created")

	// List page links to the detail page by slug.
	w3 := httptest.NewRecorder()
	mux.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/genres", nil))
	require.Equal(t, http.StatusOK, w3.Code)
	assert.Contains(t, w3.Body.String(), `href="/genres/science-fiction"`)
}

func TestPages_UnknownSlug(t *testing.T) {
	mux := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/genres/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPages_CreateValidationError(t *testing.T) {
	mux := newTestMux(t)

	w := postForm(mux, "/authors", url.Values{"first_name": {""}, "last_name": {""}, "country": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "must be between 1 and 70 characters")
	assert.Contains(t, body, "New author")
}

func TestPages_Delete(t *testing.T) {
	mux := newTestMux(t)

	w := postForm(mux, "/languages", url.Values{"title": {"English"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = postForm(mux, "/languages/english/delete", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/languages", w.Header().Get("Location"))

	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/languages/english", nil))
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func TestPages_NewFormRendersFields(t *testing.T) {
	mux := newTestMux(t)

	// Seed a publisher so the book form's select has an option.
	w := postForm(mux, "/publishers", url.Values{"title": {"Acme Press"}, "address": {"1 Main St"}, "email_address": {""}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/books/new", nil))
	require.Equal(t, http.StatusOK, w2.Code)
	body := w2.Body.String()
	assert.Contains(t, body, `name="title"`)
	assert.Contains(t, body, `name="publisher"`)
	assert.Contains(t, body, "Acme Press")
	assert.Contains(t, body, `name="visible"`)
}

func TestPages_Edit(t *testing.T) {
	mux := newTestMux(t)

	w := postForm(mux, "/authors", url.Values{"first_name": {"Ursula"}, "last_name": {"Le Guin"}, "country": {""}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	// The edit form is pre-filled with the stored values.
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/authors/ursula/edit", nil))
	require.Equal(t, http.StatusOK, w2.Code)
	body := w2.Body.String()
	assert.Contains(t, body, "Edit author")
	assert.Contains(t, body, `value="Ursula"`)
	assert.Contains(t, body, `value="Le Guin"`)

	// Renaming moves the page to the regenerated slug.
	w3 := postForm(mux, "/authors/ursula/edit", url.Values{"first_name": {"Octavia"}, "last_name": {"Butler"}, "country": {""}})
	require.Equal(t, http.StatusSeeOther, w3.Code)
	assert.Equal(t, "/authors/octavia", w3.Header().Get("Location"))

	w4 := httptest.NewRecorder()
	mux.ServeHTTP(w4, httptest.NewRequest(http.MethodGet, "/authors/ursula", nil))
	assert.Equal(t, http.StatusNotFound, w4.Code)
}

func TestPages_HomeRedirects(t *testing.T) {
	mux := newTestMux(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/books", w.Header().Get("Location"))
}
