package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"bookcatalog/internal/httpx"
)

// Resource exposes one entity kind's controller as REST handlers. The REST
// surface identifies entities by numeric id.
type Resource[T any, P Payload] struct {
	ctrl *Controller[T, P]
}

func NewResource[T any, P Payload](ctrl *Controller[T, P]) *Resource[T, P] {
	return &Resource[T, P]{ctrl: ctrl}
}

// List handles GET /v1/{kinds}.
func (rs *Resource[T, P]) List(w http.ResponseWriter, r *http.Request) {
	f, meta := listFilter(r)
	items, err := rs.ctrl.List(r.Context(), f)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	meta["count"] = len(items)
	httpx.JSONSuccess(w, r, items, meta)
}

// Create handles POST /v1/{kinds}.
func (rs *Resource[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	var payload P
	if !decodeJSON(w, r, &payload) {
		return
	}
	entity, msg, err := rs.ctrl.Create(r.Context(), payload)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, entity, map[string]any{"message": msg})
}

// Get handles GET /v1/{kinds}/{id}.
func (rs *Resource[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := rs.pathID(w, r)
	if !ok {
		return
	}
	entity, err := rs.ctrl.Retrieve(r.Context(), ByID(id))
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, entity, nil)
}

// Put handles PUT /v1/{kinds}/{id}: a full update, every declared field
// must be present.
func (rs *Resource[T, P]) Put(w http.ResponseWriter, r *http.Request) {
	rs.update(w, r, false)
}

// Patch handles PATCH /v1/{kinds}/{id}: a partial update.
func (rs *Resource[T, P]) Patch(w http.ResponseWriter, r *http.Request) {
	rs.update(w, r, true)
}

func (rs *Resource[T, P]) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := rs.pathID(w, r)
	if !ok {
		return
	}
	var payload P
	if !decodeJSON(w, r, &payload) {
		return
	}
	entity, msg, err := rs.ctrl.Update(r.Context(), ByID(id), payload, partial)
	if err != nil {
		rs.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, entity, map[string]any{"message": msg})
}

// Delete handles DELETE /v1/{kinds}/{id}. Deleting the same id twice
// reports 404 on the second call.
func (rs *Resource[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := rs.pathID(w, r)
	if !ok {
		return
	}
	if _, err := rs.ctrl.Delete(r.Context(), ByID(id)); err != nil {
		rs.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

func (rs *Resource[T, P]) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("No %s matches the given identity", rs.ctrl.Name()), nil)
		return 0, false
	}
	return id, true
}

func (rs *Resource[T, P]) writeError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, rs.ctrl.Name(), err)
}

// WriteError maps the controller error taxonomy onto the response contract:
// field errors to 400, unresolved identities to 404, store timeouts to 503.
func WriteError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	var fe FieldErrors
	switch {
	case errors.As(err, &fe):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Invalid %s payload", kind), fieldErrorDetails(fe))
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("No %s matches the given identity", kind), nil)
	case errors.Is(err, context.DeadlineExceeded):
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			"The catalog store did not respond in time", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", nil)
	}
}

func fieldErrorDetails(fe FieldErrors) []httpx.ErrorDetail {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	details := make([]httpx.ErrorDetail, 0, len(fields))
	for _, f := range fields {
		details = append(details, httpx.ErrorDetail{Field: f, Message: fe[f]})
	}
	return details
}

// decodeJSON decodes the body into payload, reporting malformed JSON and
// wrongly typed fields as a 400 validation failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, payload any) bool {
	err := json.NewDecoder(r.Body).Decode(payload)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payload",
			[]httpx.ErrorDetail{{Field: typeErr.Field, Message: "must be a valid " + typeErr.Type.String()}})
		return false
	}
	httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body is not valid JSON", nil)
	return false
}

func listFilter(r *http.Request) (Filter, map[string]any) {
	query := r.URL.Query()
	f := Filter{Q: query.Get("q")}
	meta := map[string]any{}

	f.Publisher, _ = strconv.ParseInt(query.Get("publisher"), 10, 64)
	f.Genre, _ = strconv.ParseInt(query.Get("genre"), 10, 64)
	f.Language, _ = strconv.ParseInt(query.Get("language"), 10, 64)
	if v := query.Get("visible"); v != "" {
		visible := v == "true"
		f.Visible = &visible
	}

	if pageSize, _ := strconv.Atoi(query.Get("page_size")); pageSize > 0 {
		if pageSize > 100 {
			pageSize = 100
		}
		page, _ := strconv.Atoi(query.Get("page"))
		if page < 1 {
			page = 1
		}
		f.Limit = pageSize
		f.Offset = (page - 1) * pageSize
		meta["page"] = page
		meta["page_size"] = pageSize
	}
	return f, meta
}

// BookResource adds the cover upload to the generic book handlers.
type BookResource struct {
	*Resource[Book, BookInput]
	store     Store[Book]
	mediaRoot string
}

func NewBookResource(ctrl *Controller[Book, BookInput], store Store[Book], mediaRoot string) *BookResource {
	return &BookResource{
		Resource:  NewResource(ctrl),
		store:     store,
		mediaRoot: mediaRoot,
	}
}

// UploadCover handles POST /v1/books/{id}/cover. The file lands in a
// directory named after the book's title and the relative path is recorded
// on the row.
func (rs *BookResource) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := rs.pathID(w, r)
	if !ok {
		return
	}
	book, err := rs.ctrl.Retrieve(r.Context(), ByID(id))
	if err != nil {
		rs.writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book payload",
			[]httpx.ErrorDetail{{Field: "cover", Message: "a cover file is required"}})
		return
	}
	defer file.Close()

	relPath, err := saveCover(rs.mediaRoot, book.Title, header.Filename, file)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not store the cover", nil)
		return
	}

	book.Cover = relPath
	if err := rs.store.Update(r.Context(), &book); err != nil {
		rs.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, map[string]any{"message": fmt.Sprintf("book %q cover updated", book.Title)})
}

// saveCover writes the uploaded file under <root>/<title>/<filename>,
// flattening any path separators smuggled into either component.
func saveCover(root, title, filename string, src io.Reader) (string, error) {
	dirName := sanitizePathComponent(title)
	baseName := sanitizePathComponent(filepath.Base(filename))
	if baseName == "" || baseName == "." {
		return "", fmt.Errorf("invalid cover filename %q", filename)
	}

	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(dir, baseName))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return dirName + "/" + baseName, nil
}

func sanitizePathComponent(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "..", "-")
	return strings.TrimSpace(s)
}
