package uid

// NumberID generates int64 identifiers, typically for database rows.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers, typically for tokens and
// correlation IDs.
type StringID interface {
	Generate() string
}
