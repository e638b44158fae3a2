// Package validator checks usecase inputs against their `validate` tags and
// reports failures as a field to message map.
package validator

// Validator validates a struct value.
type Validator interface {
	Validate(data any) error
}
