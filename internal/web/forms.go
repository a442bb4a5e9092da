package web

import (
	"net/url"
	"strconv"
	"strings"

	"bookcatalog/internal/catalog"
)

// The form decoders always produce full payloads: a web form posts every
// declared field, so creates validate with full-update semantics.

func formString(v url.Values, key string) *string {
	s := strings.TrimSpace(v.Get(key))
	return &s
}

func formInt(v url.Values, key string) *int {
	n, _ := strconv.Atoi(strings.TrimSpace(v.Get(key)))
	return &n
}

func formID(v url.Values, key string) *int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(v.Get(key)), 10, 64)
	return &id
}

func formIDs(v url.Values, key string) *[]int64 {
	ids := make([]int64, 0, len(v[key]))
	for _, raw := range v[key] {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return &ids
}

func bookForm(v url.Values) catalog.BookInput {
	visible := v.Get("visible") == "on"
	return catalog.BookInput{
		Title:     formString(v, "title"),
		Authors:   formIDs(v, "authors"),
		Publisher: formID(v, "publisher"),
		Genres:    formIDs(v, "genres"),
		Languages: formIDs(v, "languages"),
		Pages:     formInt(v, "pages"),
		Year:      formInt(v, "year"),
		Visible:   &visible,
	}
}

func authorForm(v url.Values) catalog.AuthorInput {
	return catalog.AuthorInput{
		FirstName: formString(v, "first_name"),
		LastName:  formString(v, "last_name"),
		Country:   formString(v, "country"),
	}
}

func publisherForm(v url.Values) catalog.PublisherInput {
	return catalog.PublisherInput{
		Title:   formString(v, "title"),
		Address: formString(v, "address"),
		Email:   formString(v, "email_address"),
	}
}

func genreForm(v url.Values) catalog.GenreInput {
	return catalog.GenreInput{Title: formString(v, "title")}
}

func languageForm(v url.Values) catalog.LanguageInput {
	return catalog.LanguageInput{Title: formString(v, "title")}
}

// The encoders render an entity back into form values so the edit page is
// pre-filled.

func bookFormValues(b *catalog.Book) url.Values {
	v := url.Values{
		"title":     {b.Title},
		"publisher": {strconv.FormatInt(b.Publisher.ID, 10)},
		"pages":     {strconv.Itoa(b.Pages)},
		"year":      {strconv.Itoa(b.Year)},
	}
	for _, a := range b.Authors {
		v.Add("authors", strconv.FormatInt(a.ID, 10))
	}
	for _, g := range b.Genres {
		v.Add("genres", strconv.FormatInt(g.ID, 10))
	}
	for _, l := range b.Languages {
		v.Add("languages", strconv.FormatInt(l.ID, 10))
	}
	if b.Visible {
		v.Set("visible", "on")
	}
	return v
}

func authorFormValues(a *catalog.Author) url.Values {
	return url.Values{
		"first_name": {a.FirstName},
		"last_name":  {a.LastName},
		"country":    {a.Country},
	}
}

func publisherFormValues(p *catalog.Publisher) url.Values {
	return url.Values{
		"title":         {p.Title},
		"address":       {p.Address},
		"email_address": {p.Email},
	}
}

func genreFormValues(g *catalog.Genre) url.Values {
	return url.Values{"title": {g.Title}}
}

func languageFormValues(l *catalog.Language) url.Values {
	return url.Values{"title": {l.Title}}
}
