// Package forms builds validating converters out of constraints: fields
// turn wire data into objects and back, forms compose fields (and nested
// forms) into a tree, and validation results come back as path-addressed
// ConstraintMaps that mirror that tree.
package forms

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/formlessness/formless"
	js "github.com/formlessness/formless/jsonschema"
)

// Node is anything that can appear inside a form: a Converter or a Section.
type Node interface {
	isNode()
}

// Converter validates, serializes and deserializes one keyed slot of a
// form. Fields and Forms are Converters; Sections are not.
//
// Data is the wire stage (decoded JSON), object is the richer program
// stage. Validation never raises: both Validate methods return a
// ConstraintMap whose truthiness answers pass/fail.
type Converter interface {
	Node

	// Key is the path segment this converter occupies in its parent.
	Key() string
	// Required reports whether a parent mapping must contain this key.
	Required() bool
	// Default returns the object-stage default, if one was declared.
	Default() (any, bool)

	// ValidateData checks a wire value against the data-stage constraint.
	ValidateData(data any) formless.ConstraintMap
	// ValidateObject checks a deserialized value against the object-stage
	// constraint.
	ValidateObject(obj any) formless.ConstraintMap

	// Serialize moves from the object stage to the data stage.
	Serialize(obj any) (any, error)
	// Deserialize moves from the data stage to the object stage. Failures
	// come back as a *DeserializationError carrying a path-keyed issue map.
	Deserialize(data any) (any, error)

	// Schema projects the data-stage constraint into a JSON Schema fragment.
	Schema() js.Validator
}

// SerializeFunc converts an object-stage value into wire data.
type SerializeFunc func(obj any) (any, error)

// DeserializeFunc converts wire data into an object-stage value.
type DeserializeFunc func(data any) (any, error)

// FormError reports validation failure as the full per-path result map, so
// callers can address individual field problems.
type FormError struct {
	Constraints formless.ConstraintMap
}

func (e *FormError) Error() string { return e.Constraints.String() }

// Issues flattens the result map into path-keyed issues.
func (e *FormError) Issues() formless.Issues { return e.Constraints.Issues() }

// DeserializationError is raised when converting already-validated data into
// a richer object fails for reasons constraints cannot see (a well-typed
// string that is not a real date, say). It always carries a path-keyed map
// so an enclosing form can absorb it as just another issue.
type DeserializationError struct {
	Map *formless.IssueMap
}

func (e *DeserializationError) Error() string { return e.Map.Error() }

// Unwrap exposes the issue map to errors.As, letting parents re-scope child
// failures without knowing child internals.
func (e *DeserializationError) Unwrap() error { return e.Map }

func deserializationError(key, message string, cause error) *DeserializationError {
	return &DeserializationError{Map: formless.NewIssueMap(key, formless.Issue{
		Code:    formless.CodeParseError,
		Message: message,
		Cause:   cause,
	})}
}

// DecodeJSON decodes wire bytes into the value shapes the constraint layer
// expects: map[string]any, []any, string, bool, json.Number, nil. Numbers
// stay json.Number so integer and float constraints keep their meaning.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, deserializationError("", "Cannot parse JSON.", err)
	}
	return v, nil
}
