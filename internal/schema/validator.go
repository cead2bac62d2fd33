// internal/schema/validator.go
// Package schema validates inbound request bodies against JSON schemas before
// they are decoded into model types.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SearchRequest is the schema every /cases/by-* body must satisfy. Field
// semantics beyond shape (search value length, numeric commission id, date
// ordering) are checked by the search service.
const SearchRequest = "search_request"

const searchRequestSchema = `{
  "type": "object",
  "required": ["state_id", "commission_id", "search_value"],
  "properties": {
    "state_id":      {"type": "string", "maxLength": 32},
    "commission_id": {"type": "string", "maxLength": 32},
    "search_value":  {"type": "string", "maxLength": 256},
    "from_date":     {"oneOf": [{"type": "null"}, {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}]},
    "to_date":       {"oneOf": [{"type": "null"}, {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}]}
  }
}`

// Validator holds compiled schemas by name.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidator compiles the built-in schemas.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}

	if err := v.loadSchema(SearchRequest, searchRequestSchema); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	return v, nil
}

func (v *Validator) loadSchema(name, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", name, err)
	}
	v.schemas[name] = schema
	return nil
}

// Validate checks the raw JSON document against the named schema. A document
// that violates the schema yields a *ValidationError; other errors mean the
// document could not be read at all.
func (v *Validator) Validate(name string, document []byte) error {
	schema, exists := v.schemas[name]
	if !exists {
		return fmt.Errorf("schema not found: %s", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		verr := &ValidationError{}
		for _, desc := range result.Errors() {
			verr.Fields = append(verr.Fields, FieldError{Field: desc.Field(), Message: desc.Description()})
		}
		return verr
	}
	return nil
}
