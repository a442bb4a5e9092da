// Package catalog implements the book catalog: five entity kinds and a
// generic CRUD controller applied uniformly across them.
package catalog

import (
	"time"
)

// Meta carries the columns shared by every entity kind. Slug is the public
// identifier on the web surface; ID on the REST surface.
type Meta struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book is the central entity. A book belongs to exactly one publisher and
// holds many-to-many relations to authors, genres and languages. Deleting
// the publisher deletes its books; deleting an author, genre or language
// merely detaches it.
type Book struct {
	Meta
	Title     string     `json:"title"`
	Authors   []Author   `json:"authors"`
	Publisher Publisher  `json:"publisher"`
	Genres    []Genre    `json:"genres"`
	Languages []Language `json:"languages"`
	Pages     int        `json:"pages"`
	Year      int        `json:"year"`
	Cover     string     `json:"cover,omitempty"`
	Visible   bool       `json:"visible"`
}

// Author of a book. The slug derives from the first name.
type Author struct {
	Meta
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country,omitempty"`
}

// Publisher of a book. Title and email are unique among live rows.
type Publisher struct {
	Meta
	Title   string `json:"title"`
	Address string `json:"address"`
	Email   string `json:"email_address,omitempty"`
}

// Genre with a unique title.
type Genre struct {
	Meta
	Title string `json:"title"`
}

// Language with a unique title.
type Language struct {
	Meta
	Title string `json:"title"`
}
