package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when an identity does not resolve to a live row.
var ErrNotFound = errors.New("not found")

// FieldErrors maps field names to the reason the field was rejected. It is
// returned by payload validation and by the store when a unique constraint
// fires at write time, so a check-then-write race still surfaces as a
// validation failure rather than a fault.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, fe[f]))
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}
