package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// check records a field error unless the value satisfies the validator tag.
func check(fe FieldErrors, field string, value any, tag, message string) {
	if _, dup := fe[field]; dup {
		return
	}
	if err := validate.Var(value, tag); err != nil {
		fe[field] = message
	}
}

func requireAll(fe FieldErrors, present map[string]bool) {
	for field, ok := range present {
		if !ok {
			fe[field] = "this field is required"
		}
	}
}

// BookInput is the write payload for books. Relations are referenced by
// numeric id.
type BookInput struct {
	Title     *string  `json:"title"`
	Authors   *[]int64 `json:"authors"`
	Publisher *int64   `json:"publisher"`
	Genres    *[]int64 `json:"genres"`
	Languages *[]int64 `json:"languages"`
	Pages     *int     `json:"pages"`
	Year      *int     `json:"year"`
	Visible   *bool    `json:"visible"`
}

func (p BookInput) Validate(partial bool) FieldErrors {
	fe := FieldErrors{}
	if !partial {
		requireAll(fe, map[string]bool{
			"title":     p.Title != nil,
			"authors":   p.Authors != nil,
			"publisher": p.Publisher != nil,
			"genres":    p.Genres != nil,
			"languages": p.Languages != nil,
			"year":      p.Year != nil,
		})
	}
	if p.Title != nil {
		check(fe, "title", *p.Title, "required,max=200", "must be between 1 and 200 characters")
	}
	if p.Publisher != nil {
		check(fe, "publisher", *p.Publisher, "gt=0", "must be a valid publisher id")
	}
	if p.Pages != nil {
		check(fe, "pages", *p.Pages, "gte=0", "must not be negative")
	}
	if p.Year != nil {
		check(fe, "year", *p.Year, "gte=1000,lte=3000", "must be between 1000 and 3000")
	}
	checkIDList(fe, "authors", p.Authors)
	checkIDList(fe, "genres", p.Genres)
	checkIDList(fe, "languages", p.Languages)
	return fe
}

func checkIDList(fe FieldErrors, field string, ids *[]int64) {
	if ids == nil {
		return
	}
	for _, id := range *ids {
		if id <= 0 {
			fe[field] = fmt.Sprintf("%d is not a valid id", id)
			return
		}
	}
}

// AuthorInput is the write payload for authors.
type AuthorInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Country   *string `json:"country"`
}

func (p AuthorInput) Validate(partial bool) FieldErrors {
	fe := FieldErrors{}
	if !partial {
		requireAll(fe, map[string]bool{
			"first_name": p.FirstName != nil,
			"last_name":  p.LastName != nil,
		})
	}
	if p.FirstName != nil {
		check(fe, "first_name", *p.FirstName, "required,max=70", "must be between 1 and 70 characters")
	}
	if p.LastName != nil {
		check(fe, "last_name", *p.LastName, "required,max=100", "must be between 1 and 100 characters")
	}
	if p.Country != nil {
		check(fe, "country", *p.Country, "max=168", "must be at most 168 characters")
	}
	return fe
}

// PublisherInput is the write payload for publishers.
type PublisherInput struct {
	Title   *string `json:"title"`
	Address *string `json:"address"`
	Email   *string `json:"email_address"`
}

func (p PublisherInput) Validate(partial bool) FieldErrors {
	fe := FieldErrors{}
	if !partial {
		requireAll(fe, map[string]bool{
			"title":   p.Title != nil,
			"address": p.Address != nil,
		})
	}
	if p.Title != nil {
		check(fe, "title", *p.Title, "required,max=100", "must be between 1 and 100 characters")
	}
	if p.Address != nil {
		check(fe, "address", *p.Address, "required,max=250", "must be between 1 and 250 characters")
	}
	if p.Email != nil && *p.Email != "" {
		check(fe, "email_address", *p.Email, "email,max=250", "must be a valid email address")
	}
	return fe
}

// GenreInput is the write payload for genres.
type GenreInput struct {
	Title *string `json:"title"`
}

func (p GenreInput) Validate(partial bool) FieldErrors {
	fe := FieldErrors{}
	if !partial {
		requireAll(fe, map[string]bool{"title": p.Title != nil})
	}
	if p.Title != nil {
		check(fe, "title", *p.Title, "required,max=50", "must be between 1 and 50 characters")
	}
	return fe
}

// LanguageInput is the write payload for languages.
type LanguageInput struct {
	Title *string `json:"title"`
}

func (p LanguageInput) Validate(partial bool) FieldErrors {
	fe := FieldErrors{}
	if !partial {
		requireAll(fe, map[string]bool{"title": p.Title != nil})
	}
	if p.Title != nil {
		check(fe, "title", *p.Title, "required,max=30", "must be between 1 and 30 characters")
	}
	return fe
}

func idRefs[T any](meta func(*T) *Meta, ids []int64) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		meta(&out[i]).ID = id
	}
	return out
}

// Books is the book kind descriptor.
var Books = Kind[Book, BookInput]{
	Name:       "book",
	SlugField:  "title",
	Meta:       func(b *Book) *Meta { return &b.Meta },
	SlugSource: func(b *Book) string { return b.Title },
	Defaults:   func(b *Book) { b.Visible = true },
	Apply: func(b *Book, p BookInput) {
		if p.Title != nil {
			b.Title = *p.Title
		}
		if p.Authors != nil {
			b.Authors = idRefs(Authors.Meta, *p.Authors)
		}
		if p.Publisher != nil {
			b.Publisher = Publisher{Meta: Meta{ID: *p.Publisher}}
		}
		if p.Genres != nil {
			b.Genres = idRefs(Genres.Meta, *p.Genres)
		}
		if p.Languages != nil {
			b.Languages = idRefs(Languages.Meta, *p.Languages)
		}
		if p.Pages != nil {
			b.Pages = *p.Pages
		}
		if p.Year != nil {
			b.Year = *p.Year
		}
		if p.Visible != nil {
			b.Visible = *p.Visible
		}
	},
	Label: func(b *Book) string { return b.Title },
	Describe: func(b *Book) map[string]any {
		return map[string]any{"title": b.Title, "pages": b.Pages, "year": b.Year}
	},
}

// Authors is the author kind descriptor. The slug derives from the first
// name, matching the web surface's author URLs.
var Authors = Kind[Author, AuthorInput]{
	Name:       "author",
	SlugField:  "first_name",
	Meta:       func(a *Author) *Meta { return &a.Meta },
	SlugSource: func(a *Author) string { return a.FirstName },
	Apply: func(a *Author, p AuthorInput) {
		if p.FirstName != nil {
			a.FirstName = *p.FirstName
		}
		if p.LastName != nil {
			a.LastName = *p.LastName
		}
		if p.Country != nil {
			a.Country = *p.Country
		}
	},
	Label: func(a *Author) string { return a.FirstName + " " + a.LastName },
	Describe: func(a *Author) map[string]any {
		return map[string]any{"first_name": a.FirstName, "last_name": a.LastName, "country": a.Country}
	},
}

// Publishers is the publisher kind descriptor.
var Publishers = Kind[Publisher, PublisherInput]{
	Name:       "publisher",
	SlugField:  "title",
	Meta:       func(p *Publisher) *Meta { return &p.Meta },
	SlugSource: func(p *Publisher) string { return p.Title },
	Apply: func(e *Publisher, p PublisherInput) {
		if p.Title != nil {
			e.Title = *p.Title
		}
		if p.Address != nil {
			e.Address = *p.Address
		}
		if p.Email != nil {
			e.Email = *p.Email
		}
	},
	Label: func(p *Publisher) string { return p.Title },
	Describe: func(p *Publisher) map[string]any {
		return map[string]any{"title": p.Title, "address": p.Address, "email_address": p.Email}
	},
}

// Genres is the genre kind descriptor.
var Genres = Kind[Genre, GenreInput]{
	Name:       "genre",
	SlugField:  "title",
	Meta:       func(g *Genre) *Meta { return &g.Meta },
	SlugSource: func(g *Genre) string { return g.Title },
	Apply: func(g *Genre, p GenreInput) {
		if p.Title != nil {
			g.Title = *p.Title
		}
	},
	Label:    func(g *Genre) string { return g.Title },
	Describe: func(g *Genre) map[string]any { return map[string]any{"title": g.Title} },
}

// Languages is the language kind descriptor.
var Languages = Kind[Language, LanguageInput]{
	Name:       "language",
	SlugField:  "title",
	Meta:       func(l *Language) *Meta { return &l.Meta },
	SlugSource: func(l *Language) string { return l.Title },
	Apply: func(l *Language, p LanguageInput) {
		if p.Title != nil {
			l.Title = *p.Title
		}
	},
	Label:    func(l *Language) string { return l.Title },
	Describe: func(l *Language) map[string]any { return map[string]any{"title": l.Title} },
}
