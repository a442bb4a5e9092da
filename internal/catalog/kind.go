package catalog

// Payload is a client-supplied set of fields for Create or Update. Fields
// are pointers so a partial update can distinguish "absent" from "zero".
type Payload interface {
	// Validate checks the supplied fields against the kind's constraints.
	// When partial is false every declared field must be present.
	Validate(partial bool) FieldErrors
}

// Kind describes one entity kind to the generic controller: its name, which
// field feeds slug generation, and how payloads map onto the entity. Adding
// a kind means declaring one of these, not rewriting control flow.
type Kind[T any, P Payload] struct {
	// Name is the singular kind name used in messages ("book", "author").
	Name string

	// SlugField names the payload field reported when slug generation
	// fails, i.e. the kind's designated name field.
	SlugField string

	// Meta returns the entity's shared columns for identity bookkeeping.
	Meta func(*T) *Meta

	// SlugSource extracts the designated name field's current value.
	SlugSource func(*T) string

	// Apply copies the payload's supplied fields onto the entity,
	// leaving absent fields untouched.
	Apply func(*T, P)

	// Defaults fills kind defaults on a fresh entity before Apply.
	// Optional.
	Defaults func(*T)

	// Label renders the entity for messages ("Leo Tolstoy", "Fantasy").
	Label func(*T) string

	// Describe echoes the entity's declared fields for old/new diffs in
	// operation messages.
	Describe func(*T) map[string]any
}
