package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	adminSubKey  contextKey = "adminSub"
)

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// AdminFrom retrieves the authenticated admin subject, if any.
func AdminFrom(r *http.Request) string {
	if v, ok := r.Context().Value(adminSubKey).(string); ok {
		return v
	}
	return ""
}

func contextWithAdmin(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, adminSubKey, sub)
}
