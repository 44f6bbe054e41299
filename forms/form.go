package forms

import (
	"reflect"
	"strings"

	"github.com/formlessness/formless"
	js "github.com/formlessness/formless/jsonschema"
)

// Form is a fixed-key mapping converter: its children are routed by key,
// its own data constraint requires a mapping carrying every required child
// key, and validation results come back as one ConstraintMap covering the
// whole subtree.
type Form struct {
	key         string
	label       string
	description string

	required   bool
	nullable   bool
	hasDefault bool
	defaultObj any

	children   []Node
	converters []Converter
	byKey      map[string]Converter

	extraData   []formless.Constraint
	extraObject []formless.Constraint

	dataConstraint   formless.Constraint
	objectConstraint formless.Constraint

	serializer   func(map[string]any) (any, error)
	deserializer func(map[string]any) (any, error)
}

// FormOption customizes a form at construction time.
type FormOption func(*Form)

// FormLabel sets the human-facing label.
func FormLabel(label string) FormOption {
	return func(f *Form) { f.label = label }
}

// FormDescription sets the help text carried into the schema.
func FormDescription(d string) FormOption {
	return func(f *Form) { f.description = d }
}

// Children sets the form's nodes in display order. Sections are flattened
// into the validation tree; only Converters own keys.
func Children(nodes ...Node) FormOption {
	return func(f *Form) { f.children = append(f.children, nodes...) }
}

// OptionalForm marks the form as not required by its parent.
func OptionalForm() FormOption {
	return func(f *Form) { f.required = false }
}

// NullableForm additionally accepts null at both stages.
func NullableForm() FormOption {
	return func(f *Form) { f.nullable = true }
}

// FormDefault declares an object-stage default for the whole form.
func FormDefault(obj any) FormOption {
	return func(f *Form) {
		f.hasDefault = true
		f.defaultObj = obj
	}
}

// ExtraDataConstraints conjoins constraints onto the form's own data stage.
func ExtraDataConstraints(cs ...formless.Constraint) FormOption {
	return func(f *Form) { f.extraData = append(f.extraData, cs...) }
}

// ExtraObjectConstraints conjoins constraints onto the form's own object
// stage: cross-field rules live here.
func ExtraObjectConstraints(cs ...formless.Constraint) FormOption {
	return func(f *Form) { f.extraObject = append(f.extraObject, cs...) }
}

// Serializer replaces the final object-to-data hook.
func Serializer(fn func(map[string]any) (any, error)) FormOption {
	return func(f *Form) { f.serializer = fn }
}

// Deserializer replaces the final data-to-object hook; this is where a map
// of deserialized children becomes a domain struct.
func Deserializer(fn func(map[string]any) (any, error)) FormOption {
	return func(f *Form) { f.deserializer = fn }
}

// New builds a form.
func New(key string, opts ...FormOption) *Form {
	f := &Form{key: key, required: true}
	for _, opt := range opts {
		opt(f)
	}
	f.finalize()
	return f
}

func (f *Form) finalize() {
	f.converters = flattenConverters(f.children)
	f.byKey = make(map[string]Converter, len(f.converters))
	for _, c := range f.converters {
		f.byKey[c.Key()] = c
	}

	data := formless.Conjoin(append(
		[]formless.Constraint{formless.IsDict, formless.HasKeys(f.requiredKeys()...)},
		f.extraData...)...)
	obj := formless.Conjoin(f.extraObject...)
	if f.nullable {
		data = formless.Disjoin(formless.IsNull, data)
		obj = formless.Disjoin(formless.IsNull, obj)
	}
	f.dataConstraint = data
	f.objectConstraint = obj
}

func flattenConverters(nodes []Node) []Converter {
	var out []Converter
	for _, n := range nodes {
		switch v := n.(type) {
		case Converter:
			out = append(out, v)
		case *Section:
			out = append(out, flattenConverters(v.children)...)
		}
	}
	return out
}

func (f *Form) requiredKeys() []string {
	var keys []string
	for _, c := range f.converters {
		if c.Required() {
			keys = append(keys, c.Key())
		}
	}
	return keys
}

func (*Form) isNode() {}

func (f *Form) Key() string { return f.key }

func (f *Form) Required() bool { return f.required }

func (f *Form) Default() (any, bool) { return f.defaultObj, f.hasDefault }

// ValidateData checks the form's own constraint at the top path and routes
// each present child key to its converter. Absent keys are reported by the
// top-level HasKeys residual, not by the children.
func (f *Form) ValidateData(data any) formless.ConstraintMap {
	top := f.dataConstraint.Validate(data)
	var children map[string]formless.ConstraintMap
	if m, ok := data.(map[string]any); ok {
		children = make(map[string]formless.ConstraintMap, len(f.converters))
		for _, c := range f.converters {
			if v, present := m[c.Key()]; present {
				children[c.Key()] = c.ValidateData(v)
			}
		}
	}
	return formless.NewConstraintMap(top, children)
}

// ValidateObject mirrors ValidateData at the object stage. Objects may be
// maps or structs; struct fields are matched by `formless` tag first, then
// by case-insensitive name.
func (f *Form) ValidateObject(obj any) formless.ConstraintMap {
	top := f.objectConstraint.Validate(obj)
	children := make(map[string]formless.ConstraintMap, len(f.converters))
	for _, c := range f.converters {
		if v, ok := subValue(obj, c.Key()); ok {
			children[c.Key()] = c.ValidateObject(v)
		}
	}
	return formless.NewConstraintMap(top, children)
}

// Deserialize converts every present child, never aborting siblings: all
// child failures are collected into one path-keyed map before the form's
// own deserializer hook runs.
func (f *Form) Deserialize(data any) (any, error) {
	if f.nullable && data == nil {
		return nil, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil, deserializationError(f.key, "Must be a dictionary.", nil)
	}
	out := make(map[string]any, len(f.converters))
	var errs []error
	for _, c := range f.converters {
		raw, present := m[c.Key()]
		if !present {
			if d, ok := c.Default(); ok {
				out[c.Key()] = d
			}
			continue
		}
		v, err := c.Deserialize(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[c.Key()] = v
	}
	if len(errs) > 0 {
		return nil, &DeserializationError{Map: formless.CollectIssueMap(f.key, errs...)}
	}
	if f.deserializer != nil {
		obj, err := f.deserializer(out)
		if err != nil {
			return nil, deserializationError(f.key, err.Error(), err)
		}
		return obj, nil
	}
	return out, nil
}

// Serialize breaks the object apart along the converter tree and serializes
// each piece under its key.
func (f *Form) Serialize(obj any) (any, error) {
	if f.nullable && obj == nil {
		return nil, nil
	}
	out := make(map[string]any, len(f.converters))
	for _, c := range f.converters {
		v, ok := subValue(obj, c.Key())
		if !ok {
			continue
		}
		d, err := c.Serialize(v)
		if err != nil {
			return nil, err
		}
		out[c.Key()] = d
	}
	if f.serializer != nil {
		return f.serializer(out)
	}
	return out, nil
}

// MakeObject turns data into an object: validate the data, deserialize,
// validate the object. Constraint violations surface as *FormError;
// conversion failures as *DeserializationError.
func (f *Form) MakeObject(data any) (any, error) {
	if cm := f.ValidateData(data); !cm.Always() {
		return nil, &FormError{Constraints: cm}
	}
	obj, err := f.Deserialize(data)
	if err != nil {
		return nil, err
	}
	if cm := f.ValidateObject(obj); !cm.Always() {
		return nil, &FormError{Constraints: cm}
	}
	return obj, nil
}

// MakeObjectJSON decodes raw JSON and feeds it through MakeObject.
func (f *Form) MakeObjectJSON(data []byte) (any, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return f.MakeObject(v)
}

// Schema emits the object schema: explicit properties and required keys
// merged over the form's own constraint fragment.
func (f *Form) Schema() js.Validator {
	props := make(map[string]any, len(f.converters))
	for _, c := range f.converters {
		props[c.Key()] = c.Schema().Data
	}
	required := f.requiredKeys()
	if required == nil {
		required = []string{}
	}
	base := map[string]any{
		"type":                  "object",
		"properties":            props,
		"required":              required,
		"unevaluatedProperties": false,
	}
	if f.description != "" {
		base["description"] = f.description
	}
	frag := f.dataConstraint.JSONSchema()
	return js.New(stripType(frag.Data), frag.Faithful).Merge(js.New(base, true))
}

// stripType drops the redundant type keyword a form's IsDict constraint
// contributes; the explicit object schema already states it.
func stripType(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k == "type" {
			continue
		}
		out[k] = v
	}
	return out
}

// Document wraps the form schema into a standalone draft-07 document.
func (f *Form) Document() map[string]any {
	return f.Schema().Document()
}

// subValue extracts the child value for key from a mapping or a struct.
func subValue(obj any, key string) (any, bool) {
	if m, ok := obj.(map[string]any); ok {
		v, present := m[key]
		return v, present
	}
	if obj == nil {
		return nil, false
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("formless")
		if name == "" {
			name = field.Name
		}
		if strings.EqualFold(name, key) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// Section groups nodes for display without owning a key; its converter
// descendants are flattened into the enclosing form's validation tree.
type Section struct {
	label    string
	children []Node
}

// NewSection builds a display grouping.
func NewSection(label string, children ...Node) *Section {
	return &Section{label: label, children: children}
}

func (*Section) isNode() {}

// Label returns the section's display label.
func (s *Section) Label() string { return s.label }
