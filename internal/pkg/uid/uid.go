// Package uid generates identifiers: snowflake numbers for rows and UUIDv7
// strings for correlation ids.
package uid

// NumberID generates sortable int64 ids.
type NumberID interface {
	Generate() int64
}

// StringID generates opaque string ids.
type StringID interface {
	Generate() string
}
