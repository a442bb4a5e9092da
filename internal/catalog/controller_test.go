package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/testutil"
)

func newGenreController() (*Controller[Genre, GenreInput], *memStore[Genre]) {
	store := newMemStore(Genres.Meta)
	return NewController(Genres, store, nil), store
}

func newAuthorController() (*Controller[Author, AuthorInput], *memStore[Author]) {
	store := newMemStore(Authors.Meta)
	return NewController(Authors, store, nil), store
}

func TestController_CreateRetrieve(t *testing.T) {
	ctrl, _ := newGenreController()
	ctx := context.Background()

	created, msg, err := ctrl.Create(ctx, GenreInput{Title: testutil.Ptr("Science Fiction")})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", created.Title)
	assert.Equal(t, "science-fiction", created.Slug)
	assert.NotZero(t, created.ID)
	assert.Contains(t, msg, "genre")
	assert.Contains(t, msg, "created")

	byID, err := ctrl.Retrieve(ctx, ByID(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	bySlug, err := ctrl.Retrieve(ctx, BySlug("science-fiction"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)
}

func TestController_CreateValidation(t *testing.T) {
	ctrl, store := newGenreController()
	ctx := context.Background()

	_, _, err := ctrl.Create(ctx, GenreInput{})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "this field is required", fe["title"])
	assert.Empty(t, store.rows, "nothing is written on validation failure")
}

func TestController_SlugCollision(t *testing.T) {
	ctrl, _ := newGenreController()
	ctx := context.Background()

	first, _, err := ctrl.Create(ctx, GenreInput{Title: testutil.Ptr("Horror")})
	require.NoError(t, err)
	second, _, err := ctrl.Create(ctx, GenreInput{Title: testutil.Ptr("Horror")})
	require.NoError(t, err)
	third, _, err := ctrl.Create(ctx, GenreInput{Title: testutil.Ptr("Horror")})
	require.NoError(t, err)

	assert.Equal(t, "horror", first.Slug)
	assert.Equal(t, "horror-2", second.Slug)
	assert.Equal(t, "horror-3", third.Slug)
}

func TestController_SlugFromUnusableTitle(t *testing.T) {
	ctrl, _ := newGenreController()

	_, _, err := ctrl.Create(context.Background(), GenreInput{Title: testutil.Ptr("!!!")})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe["title"], "slug")
}

func TestController_PartialUpdateEmptyPayload(t *testing.T) {
	ctrl, _ := newAuthorController()
	ctx := context.Background()

	created, _, err := ctrl.Create(ctx, AuthorInput{
		FirstName: testutil.Ptr("Ursula"),
		LastName:  testutil.Ptr("Le Guin"),
		Country:   testutil.Ptr("United States"),
	})
	require.NoError(t, err)

	updated, msg, err := ctrl.Update(ctx, ByID(created.ID), AuthorInput{}, true)
	require.NoError(t, err)
	assert.Equal(t, created.FirstName, updated.FirstName)
	assert.Equal(t, created.LastName, updated.LastName)
	assert.Equal(t, created.Country, updated.Country)
	assert.Equal(t, created.Slug, updated.Slug)
	assert.Contains(t, msg, "updated")
}

func TestController_FullUpdateRequiresAllFields(t *testing.T) {
	ctrl, _ := newAuthorController()
	ctx := context.Background()

	created, _, err := ctrl.Create(ctx, AuthorInput{
		FirstName: testutil.Ptr("Brian"),
		LastName:  testutil.Ptr("Kernighan"),
	})
	require.NoError(t, err)

	_, _, err = ctrl.Update(ctx, ByID(created.ID), AuthorInput{FirstName: testutil.Ptr("Rob")}, false)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "this field is required", fe["last_name"])

	unchanged, err := ctrl.Retrieve(ctx, ByID(created.ID))
	require.NoError(t, err)
	assert.Equal(t, "Brian", unchanged.FirstName)
}

func TestController_UpdateRegeneratesSlugOnRename(t *testing.T) {
	ctrl, _ := newAuthorController()
	ctx := context.Background()

	created, _, err := ctrl.Create(ctx, AuthorInput{
		FirstName: testutil.Ptr("Ursula"),
		LastName:  testutil.Ptr("Le Guin"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ursula", created.Slug)

	// Changing an unrelated field keeps the slug.
	same, _, err := ctrl.Update(ctx, ByID(created.ID), AuthorInput{Country: testutil.Ptr("France")}, true)
	require.NoError(t, err)
	assert.Equal(t, "ursula", same.Slug)

	// Re-submitting the same first name does not mint a -2 suffix.
	kept, _, err := ctrl.Update(ctx, ByID(created.ID), AuthorInput{FirstName: testutil.Ptr("Ursula")}, true)
	require.NoError(t, err)
	assert.Equal(t, "ursula", kept.Slug)

	renamed, _, err := ctrl.Update(ctx, ByID(created.ID), AuthorInput{FirstName: testutil.Ptr("Octavia")}, true)
	require.NoError(t, err)
	assert.Equal(t, "octavia", renamed.Slug)
}

func TestController_Delete(t *testing.T) {
	ctrl, _ := newGenreController()
	ctx := context.Background()

	created, _, err := ctrl.Create(ctx, GenreInput{Title: testutil.Ptr("Mystery")})
	require.NoError(t, err)

	msg, err := ctrl.Delete(ctx, ByID(created.ID))
	require.NoError(t, err)
	assert.Contains(t, msg, `"Mystery"`)
	assert.Contains(t, msg, "deleted")

	_, err = ctrl.Delete(ctx, ByID(created.ID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestController_DeleteBySlug(t *testing.T) {
	ctrl, _ := newGenreController()
	ctx := context.Background()

	created, _, err := ctrl.Create(ctx, GenreInput{Title: testutil.Ptr("Western")})
	require.NoError(t, err)

	_, err = ctrl.Delete(ctx, BySlug(created.Slug))
	require.NoError(t, err)

	_, err = ctrl.Retrieve(ctx, ByID(created.ID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestController_BookDefaults(t *testing.T) {
	store := newMemStore(Books.Meta)
	ctrl := NewController(Books, store, nil)
	ctx := context.Background()

	created, _, err := ctrl.Create(ctx, BookInput{
		Title:     testutil.Ptr("The Dispossessed"),
		Authors:   testutil.Ptr([]int64{1}),
		Publisher: testutil.Ptr(int64(1)),
		Genres:    testutil.Ptr([]int64{1}),
		Languages: testutil.Ptr([]int64{1}),
		Year:      testutil.Ptr(1974),
	})
	require.NoError(t, err)
	assert.True(t, created.Visible, "books are visible unless hidden explicitly")
	assert.Equal(t, 0, created.Pages)
	assert.Equal(t, "the-dispossessed", created.Slug)
}

func TestController_ListEmpty(t *testing.T) {
	ctrl, _ := newGenreController()

	items, err := ctrl.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
