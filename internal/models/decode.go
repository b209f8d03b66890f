package models

import (
	"errors"
	"fmt"
)

// Document is the raw, schemaless shape a record is stored in.
type Document = map[string]any

var (
	// ErrInvalidField is returned when a document field has the wrong type.
	ErrInvalidField = errors.New("invalid document field")

	// ErrMissingID is returned when a document carries no usable id.
	ErrMissingID = errors.New("document has no id")
)

// FieldError describes a single field that failed to decode.
type FieldError struct {
	Entity string
	Field  string
	Got    any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: expected string, got %T", e.Entity, e.Field, e.Got)
}

// Unwrap makes FieldError match ErrInvalidField.
func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// decoder reads string fields from a document and remembers the first failure.
type decoder struct {
	entity string
	doc    Document
	err    error
}

func newDecoder(entity string, doc Document) *decoder {
	return &decoder{entity: entity, doc: doc}
}

// str returns the string under key. Absent or null fields decode to "".
func (d *decoder) str(key string) string {
	if d.err != nil {
		return ""
	}
	raw, ok := d.doc[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.err = &FieldError{Entity: d.entity, Field: key, Got: raw}
		return ""
	}
	return s
}

// id returns the document id, which must be a non-empty string.
func (d *decoder) id() string {
	id := d.str("id")
	if d.err == nil && id == "" {
		d.err = fmt.Errorf("%s: %w", d.entity, ErrMissingID)
	}
	return id
}
