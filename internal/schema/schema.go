// Package schema validates JSON documents against named JSON Schemas.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema definition.
type Schema struct {
	Name       string
	Definition map[string]any
}

// ErrInvalid reports a document that failed to parse or validate.
type ErrInvalid struct {
	Schema string
	Err    error
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("%s: %v", e.Schema, e.Err)
}

func (e *ErrInvalid) Unwrap() error { return e.Err }

// compiled caches compiled schemas by name.
var compiled sync.Map // map[string]*jsonschema.Schema

// Validate checks raw JSON against s.
func Validate(s *Schema, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalid{Schema: s.Name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	return ValidateValue(s, parsed)
}

// ValidateValue checks an already decoded document. Numbers must be float64
// or json.Number, as produced by encoding/json.
func ValidateValue(s *Schema, doc any) error {
	c, err := compile(s)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	if err := c.Validate(doc); err != nil {
		return &ErrInvalid{Schema: s.Name, Err: err}
	}
	return nil
}

func compile(s *Schema) (*jsonschema.Schema, error) {
	if cached, ok := compiled.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a plain decoded value, not Go maps with typed slices.
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(defBytes, &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	out, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	compiled.Store(s.Name, out)
	return out, nil
}
