// Package web serves the server-rendered catalog pages. Unlike the REST
// surface, pages identify entities by slug.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"time"

	"bookcatalog/internal/catalog"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	listTmpl   = parsePage("list.html.tmpl")
	detailTmpl = parsePage("detail.html.tmpl")
	formTmpl   = parsePage("form.html.tmpl")
)

var tmplFuncs = template.FuncMap{
	// hasValue reports whether the posted form carries val for key, used to
	// re-select options after a failed submit.
	"hasValue": func(v url.Values, key, val string) bool {
		for _, s := range v[key] {
			if s == val {
				return true
			}
		}
		return false
	},
}

func parsePage(page string) *template.Template {
	return template.Must(template.New("base").Funcs(tmplFuncs).
		ParseFS(templatesFS, "templates/base.html.tmpl", "templates/"+page))
}

// Option is one entry in a relation select box.
type Option struct {
	ID    int64
	Label string
}

// Field describes one form input. Select fields load their options from a
// sibling section at render time.
type Field struct {
	Name    string
	Label   string
	Type    string // text, number, checkbox, select, multiselect
	Options func(ctx context.Context) ([]Option, error)
}

// Item is one row on a list page.
type Item struct {
	Slug  string
	Label string
}

// Row is one attribute on a detail page.
type Row struct {
	Name  string
	Value any
}

// Detail is the data behind a detail page.
type Detail struct {
	Slug  string
	Label string
	Rows  []Row
}

// section adapts one entity kind's controller to the page handlers. The
// generic plumbing is erased here so the server can hold all five kinds in
// one slice.
type section struct {
	Name   string
	Plural string
	Title  string
	fields []Field

	list       func(ctx context.Context, q string) ([]Item, error)
	detail     func(ctx context.Context, slug string) (Detail, error)
	create     func(ctx context.Context, form url.Values) (string, string, error)
	update     func(ctx context.Context, slug string, form url.Values) (string, string, error)
	formValues func(ctx context.Context, slug string) (url.Values, error)
	delete     func(ctx context.Context, slug string) (string, error)
}

func newSection[T any, P catalog.Payload](
	ctrl *catalog.Controller[T, P],
	kind catalog.Kind[T, P],
	plural, title string,
	fields []Field,
	decode func(url.Values) P,
	encode func(*T) url.Values,
	rowOrder []string,
) *section {
	return &section{
		Name:   kind.Name,
		Plural: plural,
		Title:  title,
		fields: fields,
		list: func(ctx context.Context, q string) ([]Item, error) {
			entities, err := ctrl.List(ctx, catalog.Filter{Q: q})
			if err != nil {
				return nil, err
			}
			items := make([]Item, len(entities))
			for i := range entities {
				items[i] = Item{Slug: kind.Meta(&entities[i]).Slug, Label: kind.Label(&entities[i])}
			}
			return items, nil
		},
		detail: func(ctx context.Context, s string) (Detail, error) {
			entity, err := ctrl.Retrieve(ctx, catalog.BySlug(s))
			if err != nil {
				return Detail{}, err
			}
			attrs := kind.Describe(&entity)
			rows := make([]Row, 0, len(rowOrder))
			for _, name := range rowOrder {
				rows = append(rows, Row{Name: name, Value: attrs[name]})
			}
			return Detail{Slug: kind.Meta(&entity).Slug, Label: kind.Label(&entity), Rows: rows}, nil
		},
		create: func(ctx context.Context, form url.Values) (string, string, error) {
			entity, msg, err := ctrl.Create(ctx, decode(form))
			if err != nil {
				return "", "", err
			}
			return kind.Meta(&entity).Slug, msg, nil
		},
		update: func(ctx context.Context, s string, form url.Values) (string, string, error) {
			entity, msg, err := ctrl.Update(ctx, catalog.BySlug(s), decode(form), false)
			if err != nil {
				return "", "", err
			}
			return kind.Meta(&entity).Slug, msg, nil
		},
		formValues: func(ctx context.Context, s string) (url.Values, error) {
			entity, err := ctrl.Retrieve(ctx, catalog.BySlug(s))
			if err != nil {
				return nil, err
			}
			return encode(&entity), nil
		},
		delete: func(ctx context.Context, s string) (string, error) {
			return ctrl.Delete(ctx, catalog.BySlug(s))
		},
	}
}

// Server holds the page handlers for every catalog section.
type Server struct {
	sections []*section
}

// NewServer builds the five catalog sections. The book form's relation
// selects are fed from the other controllers.
func NewServer(
	books *catalog.Controller[catalog.Book, catalog.BookInput],
	authors *catalog.Controller[catalog.Author, catalog.AuthorInput],
	publishers *catalog.Controller[catalog.Publisher, catalog.PublisherInput],
	genres *catalog.Controller[catalog.Genre, catalog.GenreInput],
	languages *catalog.Controller[catalog.Language, catalog.LanguageInput],
) *Server {
	authorOptions := optionLoader(authors, catalog.Authors)
	publisherOptions := optionLoader(publishers, catalog.Publishers)
	genreOptions := optionLoader(genres, catalog.Genres)
	languageOptions := optionLoader(languages, catalog.Languages)

	return &Server{sections: []*section{
		newSection(books, catalog.Books, "books", "Books",
			[]Field{
				{Name: "title", Label: "Title", Type: "text"},
				{Name: "authors", Label: "Authors", Type: "multiselect", Options: authorOptions},
				{Name: "publisher", Label: "Publisher", Type: "select", Options: publisherOptions},
				{Name: "genres", Label: "Genres", Type: "multiselect", Options: genreOptions},
				{Name: "languages", Label: "Languages", Type: "multiselect", Options: languageOptions},
				{Name: "pages", Label: "Pages", Type: "number"},
				{Name: "year", Label: "Year", Type: "number"},
				{Name: "visible", Label: "Visible", Type: "checkbox"},
			},
			bookForm, bookFormValues, []string{"title", "pages", "year"}),
		newSection(authors, catalog.Authors, "authors", "Authors",
			[]Field{
				{Name: "first_name", Label: "First name", Type: "text"},
				{Name: "last_name", Label: "Last name", Type: "text"},
				{Name: "country", Label: "Country", Type: "text"},
			},
			authorForm, authorFormValues, []string{"first_name", "last_name", "country"}),
		newSection(publishers, catalog.Publishers, "publishers", "Publishers",
			[]Field{
				{Name: "title", Label: "Title", Type: "text"},
				{Name: "address", Label: "Address", Type: "text"},
				{Name: "email_address", Label: "Email", Type: "text"},
			},
			publisherForm, publisherFormValues, []string{"title", "address", "email_address"}),
		newSection(genres, catalog.Genres, "genres", "Genres",
			[]Field{{Name: "title", Label: "Title", Type: "text"}},
			genreForm, genreFormValues, []string{"title"}),
		newSection(languages, catalog.Languages, "languages", "Languages",
			[]Field{{Name: "title", Label: "Title", Type: "text"}},
			languageForm, languageFormValues, []string{"title"}),
	}}
}

func optionLoader[T any, P catalog.Payload](ctrl *catalog.Controller[T, P], kind catalog.Kind[T, P]) func(context.Context) ([]Option, error) {
	return func(ctx context.Context) ([]Option, error) {
		entities, err := ctrl.List(ctx, catalog.Filter{})
		if err != nil {
			return nil, err
		}
		options := make([]Option, len(entities))
		for i := range entities {
			options[i] = Option{ID: kind.Meta(&entities[i]).ID, Label: kind.Label(&entities[i])}
		}
		return options, nil
	}
}

// Register mounts the page routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/books", http.StatusFound)
	})
	for _, sec := range s.sections {
		sec := sec
		mux.HandleFunc("GET /"+sec.Plural, s.handleList(sec))
		mux.HandleFunc("GET /"+sec.Plural+"/new", s.handleNew(sec))
		mux.HandleFunc("POST /"+sec.Plural, s.handleCreate(sec))
		mux.HandleFunc("GET /"+sec.Plural+"/{slug}", s.handleDetail(sec))
		mux.HandleFunc("GET /"+sec.Plural+"/{slug}/edit", s.handleEdit(sec))
		mux.HandleFunc("POST /"+sec.Plural+"/{slug}/edit", s.handleUpdate(sec))
		mux.HandleFunc("POST /"+sec.Plural+"/{slug}/delete", s.handleDelete(sec))
	}
}

type pageData struct {
	Title   string
	Flash   string
	Section *section

	Items  []Item
	Detail Detail

	Action string
	Fields []Field
	Values url.Values
	Errors catalog.FieldErrors

	// Options is resolved per request so selects reflect current rows.
	Options map[string][]Option
}

func (s *Server) handleList(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := sec.list(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		s.render(w, r, listTmpl, pageData{
			Title:   sec.Title,
			Flash:   popFlash(w, r),
			Section: sec,
			Items:   items,
		})
	}
}

func (s *Server) handleDetail(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := sec.detail(r.Context(), r.PathValue("slug"))
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		s.render(w, r, detailTmpl, pageData{
			Title:   detail.Label,
			Flash:   popFlash(w, r),
			Section: sec,
			Detail:  detail,
		})
	}
}

func (s *Server) handleNew(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderForm(w, r, sec, "New "+sec.Name, "/"+sec.Plural, url.Values{}, nil)
	}
}

func (s *Server) handleCreate(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		slug, msg, err := sec.create(r.Context(), r.PostForm)
		if err != nil {
			var fe catalog.FieldErrors
			if errors.As(err, &fe) {
				s.renderForm(w, r, sec, "New "+sec.Name, "/"+sec.Plural, r.PostForm, fe)
				return
			}
			s.renderError(w, r, err)
			return
		}
		setFlash(w, msg)
		http.Redirect(w, r, "/"+sec.Plural+"/"+slug, http.StatusSeeOther)
	}
}

func (s *Server) handleEdit(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		values, err := sec.formValues(r.Context(), slug)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		s.renderForm(w, r, sec, "Edit "+sec.Name, "/"+sec.Plural+"/"+slug+"/edit", values, nil)
	}
}

func (s *Server) handleUpdate(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		// The update can change the slug, so redirect to the returned one.
		newSlug, msg, err := sec.update(r.Context(), slug, r.PostForm)
		if err != nil {
			var fe catalog.FieldErrors
			if errors.As(err, &fe) {
				s.renderForm(w, r, sec, "Edit "+sec.Name, "/"+sec.Plural+"/"+slug+"/edit", r.PostForm, fe)
				return
			}
			s.renderError(w, r, err)
			return
		}
		setFlash(w, msg)
		http.Redirect(w, r, "/"+sec.Plural+"/"+newSlug, http.StatusSeeOther)
	}
}

func (s *Server) handleDelete(sec *section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := sec.delete(r.Context(), r.PathValue("slug"))
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		setFlash(w, msg)
		http.Redirect(w, r, "/"+sec.Plural, http.StatusSeeOther)
	}
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, sec *section, title, action string, values url.Values, fe catalog.FieldErrors) {
	options := map[string][]Option{}
	for _, f := range sec.fields {
		if f.Options == nil {
			continue
		}
		opts, err := f.Options(r.Context())
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		options[f.Name] = opts
	}
	if fe != nil {
		w.WriteHeader(http.StatusBadRequest)
	}
	s.render(w, r, formTmpl, pageData{
		Title:   title,
		Section: sec,
		Action:  action,
		Fields:  sec.fields,
		Values:  values,
		Errors:  fe,
		Options: options,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("web: render %s: %v", r.URL.Path, err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	log.Printf("web: %s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, "something went wrong", http.StatusInternalServerError)
}

const flashCookie = "flash"

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
