package slug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neverTaken(ctx context.Context, candidate string, excludeID int64) (bool, error) {
	return false, nil
}

func takenSet(existing map[string]int64) Taken {
	return func(ctx context.Context, candidate string, excludeID int64) (bool, error) {
		id, ok := existing[candidate]
		if !ok {
			return false, nil
		}
		return id != excludeID, nil
	}
}

func TestGenerate_Normalizes(t *testing.T) {
	g := &Generator{}
	ctx := context.Background()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"lowercases and hyphenates", "Test Book", "test-book"},
		{"collapses whitespace runs", "Test  Book", "test-book"},
		{"strips punctuation", "Go! (2nd Edition)", "go-2nd-edition"},
		{"transliterates cyrillic", "Русский", "russkii"},
		{"transliterates accents", "Café Noir", "cafe-noir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Generate(ctx, tt.source, 0, neverTaken)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_EmptySource(t *testing.T) {
	g := &Generator{}
	_, err := g.Generate(context.Background(), "!!!", 0, neverTaken)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestGenerate_CollisionSuffix(t *testing.T) {
	g := &Generator{}
	ctx := context.Background()

	got, err := g.Generate(ctx, "Test Book", 0, takenSet(map[string]int64{"test-book": 1}))
	require.NoError(t, err)
	assert.Equal(t, "test-book-2", got)

	got, err = g.Generate(ctx, "Test Book", 0, takenSet(map[string]int64{"test-book": 1, "test-book-2": 2}))
	require.NoError(t, err)
	assert.Equal(t, "test-book-3", got)
}

func TestGenerate_ExcludesOwnRow(t *testing.T) {
	g := &Generator{}

	// Updating row 7 with an unchanged title keeps its own slug.
	got, err := g.Generate(context.Background(), "Test Book", 7, takenSet(map[string]int64{"test-book": 7}))
	require.NoError(t, err)
	assert.Equal(t, "test-book", got)
}

func TestGenerate_TruncatesToBudget(t *testing.T) {
	g := &Generator{MaxLen: 10}
	ctx := context.Background()

	got, err := g.Generate(ctx, "a very long book title", 0, neverTaken)
	require.NoError(t, err)
	assert.Equal(t, "a-very-lon", got)
	assert.LessOrEqual(t, len(got), 10)

	// The disambiguator must also fit the budget.
	got, err = g.Generate(ctx, "a very long book title", 0, takenSet(map[string]int64{"a-very-lon": 1}))
	require.NoError(t, err)
	assert.Equal(t, "a-very-l-2", got)
	assert.LessOrEqual(t, len(got), 10)
}

func TestGenerate_Exhausted(t *testing.T) {
	g := &Generator{MaxAttempts: 3}
	everything := func(ctx context.Context, candidate string, excludeID int64) (bool, error) {
		return true, nil
	}
	_, err := g.Generate(context.Background(), "Test Book", 0, everything)
	assert.ErrorIs(t, err, ErrExhausted)
}
