// Package jsonschema holds the JSON Schema fragments produced when a
// constraint is projected into an external schema. A fragment is always a
// best effort: the Faithful flag records whether it characterizes the
// constraint exactly or merely approximates it.
package jsonschema

import (
	json "github.com/goccy/go-json"
)

// Draft07 is the dialect every exported document declares.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Validator is a JSON Schema fragment paired with a faithfulness flag.
// Faithful means the fragment neither over- nor under-accepts relative to
// the constraint it was derived from.
type Validator struct {
	Data     map[string]any
	Faithful bool
}

// New builds a fragment from the given schema keywords.
func New(data map[string]any, faithful bool) Validator {
	if data == nil {
		data = map[string]any{}
	}
	return Validator{Data: data, Faithful: faithful}
}

// Unfaithful is the empty fragment that admits everything without claiming
// to describe anything. It is the projection of constraints that have no
// JSON Schema counterpart.
func Unfaithful() Validator {
	return Validator{Data: map[string]any{}, Faithful: false}
}

// Everything is the empty fragment as an exact description: it is the
// faithful projection of a constraint satisfied by all values.
func Everything() Validator {
	return Validator{Data: map[string]any{}, Faithful: true}
}

// Nothing is the fragment matched by no value.
func Nothing() Validator {
	return Validator{Data: map[string]any{"not": map[string]any{}}, Faithful: true}
}

// Anything reports whether the fragment places no restriction on values.
func (v Validator) Anything() bool {
	return len(v.Data) == 0
}

// Merge returns a fragment carrying the union of both keyword sets. Keys in
// other win on conflict. The result is faithful only when both inputs are.
func (v Validator) Merge(other Validator) Validator {
	data := make(map[string]any, len(v.Data)+len(other.Data))
	for k, val := range v.Data {
		data[k] = val
	}
	for k, val := range other.Data {
		data[k] = val
	}
	return Validator{Data: data, Faithful: v.Faithful && other.Faithful}
}

// Document wraps the fragment into a standalone draft-07 schema document.
func (v Validator) Document() map[string]any {
	doc := make(map[string]any, len(v.Data)+1)
	doc["$schema"] = Draft07
	for k, val := range v.Data {
		doc[k] = val
	}
	return doc
}

// MarshalJSON renders the bare fragment. The faithfulness flag is metadata
// for composing translators, not part of the schema itself.
func (v Validator) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Data)
}
