package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"bookcatalog/internal/httpx"
)

// Ptr returns a pointer to v, handy for the pointer-field payload structs.
func Ptr[T any](v T) *T { return &v }

// NewRequest creates an HTTP request with a JSON-encoded body for testing.
func NewRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("Content-Type", "application/json")
	return r
}

// GenerateAdminToken returns a signed admin token for testing guarded routes.
func GenerateAdminToken(secret string) string {
	token, _ := httpx.GenerateAdminToken(secret, "test-admin", time.Hour)
	return token
}

// DecodeResponse parses a recorded response body into the envelope shape.
func DecodeResponse(rec *httptest.ResponseRecorder) map[string]any {
	raw, _ := io.ReadAll(rec.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return decoded
}
