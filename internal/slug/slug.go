// Package slug derives URL-safe unique identifiers from human-entered names.
package slug

import (
	"context"
	"errors"
	"strconv"
	"strings"

	goslug "github.com/gosimple/slug"
)

// ErrEmptySource is returned when the source string normalizes to nothing
// usable (for example a string of symbols with no Latin rendering).
var ErrEmptySource = errors.New("slug source normalizes to an empty string")

// ErrExhausted is returned when no unique candidate fits the length budget
// within the attempt limit.
var ErrExhausted = errors.New("no unique slug candidate available")

// Taken reports whether candidate is already used by a live row other than
// the one identified by excludeID. Pass excludeID 0 when creating.
type Taken func(ctx context.Context, candidate string, excludeID int64) (bool, error)

const (
	defaultMaxLen      = 250
	defaultMaxAttempts = 1000
)

// Generator produces unique slugs. The zero value uses the default length
// budget and attempt limit.
type Generator struct {
	MaxLen      int
	MaxAttempts int
}

func (g *Generator) maxLen() int {
	if g.MaxLen > 0 {
		return g.MaxLen
	}
	return defaultMaxLen
}

func (g *Generator) maxAttempts() int {
	if g.MaxAttempts > 0 {
		return g.MaxAttempts
	}
	return defaultMaxAttempts
}

// Generate derives a slug from source and resolves collisions by appending
// -2, -3, ... until taken reports the candidate free. Candidates are always
// truncated to the length budget before being checked.
//
// The returned slug is only best-effort unique: concurrent writers can race
// between the check and the insert, so the caller must still rely on the
// store's unique constraint as the authoritative guard.
func (g *Generator) Generate(ctx context.Context, source string, excludeID int64, taken Taken) (string, error) {
	base := goslug.Make(source)
	if base == "" {
		return "", ErrEmptySource
	}
	base = truncate(base, g.maxLen())

	candidate := base
	for n := 2; ; n++ {
		used, err := taken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		if n > g.maxAttempts() {
			return "", ErrExhausted
		}
		suffix := "-" + strconv.Itoa(n)
		candidate = truncate(base, g.maxLen()-len(suffix)) + suffix
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return strings.TrimRight(s[:max], "-")
}
