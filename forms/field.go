package forms

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/formlessness/formless"
	js "github.com/formlessness/formless/jsonschema"
)

// Field is a leaf converter: one value, a data-stage constraint, an
// object-stage constraint, and a serializer pair.
type Field struct {
	key         string
	label       string
	description string

	required   bool
	nullable   bool
	hasDefault bool
	defaultObj any
	choices    []any

	baseData    formless.Constraint
	baseObject  formless.Constraint
	extraData   []formless.Constraint
	extraObject []formless.Constraint

	dataConstraint   formless.Constraint
	objectConstraint formless.Constraint

	serialize   SerializeFunc
	deserialize DeserializeFunc
}

// FieldOption customizes a field at construction time.
type FieldOption func(*Field)

// Label sets the human-facing label.
func Label(label string) FieldOption {
	return func(f *Field) { f.label = label }
}

// Description sets the help text carried into the schema.
func Description(d string) FieldOption {
	return func(f *Field) { f.description = d }
}

// Optional marks the field as not required by the enclosing form.
func Optional() FieldOption {
	return func(f *Field) { f.required = false }
}

// Nullable additionally accepts null at both stages.
func Nullable() FieldOption {
	return func(f *Field) { f.nullable = true }
}

// DefaultValue declares an object-stage default, applied by the enclosing
// form when the key is absent.
func DefaultValue(obj any) FieldOption {
	return func(f *Field) {
		f.hasDefault = true
		f.defaultObj = obj
	}
}

// ChoiceValues restricts the field to a fixed set of object-stage values.
// The serialized counterparts constrain the data stage; a choice the field's
// serializer rejects panics at construction time.
func ChoiceValues(values ...any) FieldOption {
	return func(f *Field) { f.choices = values }
}

// DataConstraint conjoins an extra constraint onto the data stage.
func DataConstraint(cs ...formless.Constraint) FieldOption {
	return func(f *Field) { f.extraData = append(f.extraData, cs...) }
}

// ObjectConstraint conjoins an extra constraint onto the object stage.
func ObjectConstraint(cs ...formless.Constraint) FieldOption {
	return func(f *Field) { f.extraObject = append(f.extraObject, cs...) }
}

// WithSerializer replaces the field's serializer.
func WithSerializer(fn SerializeFunc) FieldOption {
	return func(f *Field) { f.serialize = fn }
}

// WithDeserializer replaces the field's deserializer.
func WithDeserializer(fn DeserializeFunc) FieldOption {
	return func(f *Field) { f.deserialize = fn }
}

func newField(key string, baseData, baseObject formless.Constraint, ser SerializeFunc, deser DeserializeFunc, opts []FieldOption) *Field {
	f := &Field{
		key:         key,
		required:    true,
		baseData:    baseData,
		baseObject:  baseObject,
		serialize:   ser,
		deserialize: deser,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.finalize()
	return f
}

func (f *Field) finalize() {
	data := formless.Conjoin(append([]formless.Constraint{f.baseData}, f.extraData...)...)
	obj := formless.Conjoin(append([]formless.Constraint{f.baseObject}, f.extraObject...)...)
	if len(f.choices) > 0 {
		dataChoices := make([]any, 0, len(f.choices))
		for _, c := range f.choices {
			d, err := f.serialize(c)
			if err != nil {
				// choices are declared at schema-definition time; one that
				// cannot serialize is a programmer error, like a bad Regex
				panic(fmt.Sprintf("forms: field %q: choice %v cannot be serialized: %v", f.key, c, err))
			}
			dataChoices = append(dataChoices, d)
		}
		data = formless.Conjoin(data, formless.Choices(dataChoices, ""))
		obj = formless.Conjoin(obj, formless.Choices(f.choices, ""))
	}
	if f.nullable {
		data = formless.Disjoin(formless.IsNull, data)
		obj = formless.Disjoin(formless.IsNull, obj)
	}
	f.dataConstraint = data
	f.objectConstraint = obj
}

func (*Field) isNode() {}

func (f *Field) Key() string { return f.key }

func (f *Field) Required() bool { return f.required }

func (f *Field) Default() (any, bool) { return f.defaultObj, f.hasDefault }

func (f *Field) ValidateData(data any) formless.ConstraintMap {
	return formless.NewConstraintMap(f.dataConstraint.Validate(data), nil)
}

func (f *Field) ValidateObject(obj any) formless.ConstraintMap {
	return formless.NewConstraintMap(f.objectConstraint.Validate(obj), nil)
}

func (f *Field) Serialize(obj any) (any, error) {
	if f.nullable && obj == nil {
		return nil, nil
	}
	return f.serialize(obj)
}

func (f *Field) Deserialize(data any) (any, error) {
	if f.nullable && data == nil {
		return nil, nil
	}
	return f.deserialize(data)
}

func (f *Field) Schema() js.Validator {
	frag := f.dataConstraint.JSONSchema()
	extra := map[string]any{}
	if f.description != "" {
		extra["description"] = f.description
	}
	if f.hasDefault {
		if d, err := f.Serialize(f.defaultObj); err == nil {
			extra["default"] = d
		}
	}
	if len(extra) == 0 {
		return frag
	}
	return frag.Merge(js.New(extra, true))
}

// String builds a string field.
func String(key string, opts ...FieldOption) *Field {
	deser := func(data any) (any, error) {
		s, ok := data.(string)
		if !ok {
			return nil, deserializationError(key, "Must be a string.", nil)
		}
		return s, nil
	}
	return newField(key, formless.IsString, formless.IsString, identity, deser, opts)
}

// Int builds an integer field. Wire integers may arrive as json.Number.
func Int(key string, opts ...FieldOption) *Field {
	deser := func(data any) (any, error) {
		n, err := toInt(data)
		if err != nil {
			return nil, deserializationError(key, "Must be an integer.", err)
		}
		return n, nil
	}
	return newField(key, formless.IsInt, formless.IsInt, identity, deser, opts)
}

// Number builds a floating-point field.
func Number(key string, opts ...FieldOption) *Field {
	deser := func(data any) (any, error) {
		n, err := toFloat(data)
		if err != nil {
			return nil, deserializationError(key, "Must be a float.", err)
		}
		return n, nil
	}
	return newField(key, formless.IsNumber, formless.IsNumber, identity, deser, opts)
}

// Bool builds a boolean field.
func Bool(key string, opts ...FieldOption) *Field {
	deser := func(data any) (any, error) {
		b, ok := data.(bool)
		if !ok {
			return nil, deserializationError(key, "Must be a boolean.", nil)
		}
		return b, nil
	}
	return newField(key, formless.IsBool, formless.IsBool, identity, deser, opts)
}

const dateLayout = "2006-01-02"

// Date builds a field whose wire form is an ISO-8601 date string and whose
// object form is a time.Time.
func Date(key string, opts ...FieldOption) *Field {
	ser := func(obj any) (any, error) {
		t, ok := obj.(time.Time)
		if !ok {
			return nil, deserializationError(key, "Must be a date.", nil)
		}
		return t.Format(dateLayout), nil
	}
	deser := func(data any) (any, error) {
		s, ok := data.(string)
		if !ok {
			return nil, deserializationError(key, "Must be a string.", nil)
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, deserializationError(key, "Must be a valid date of YYYY-MM-DD.", err)
		}
		return t, nil
	}
	return newField(key, formless.IsString, formless.IsDate, ser, deser, opts)
}

// CommaList builds a field whose wire form is a comma-separated string and
// whose object form is a []string. Empty segments are dropped.
func CommaList(key string, opts ...FieldOption) *Field {
	return SeparatedList(key, ",", opts...)
}

// SeparatedList is CommaList with an arbitrary separator.
func SeparatedList(key, sep string, opts ...FieldOption) *Field {
	ser := func(obj any) (any, error) {
		items, ok := stringItems(obj)
		if !ok {
			return nil, deserializationError(key, "Must be a list of strings.", nil)
		}
		return strings.Join(items, sep), nil
	}
	deser := func(data any) (any, error) {
		s, ok := data.(string)
		if !ok {
			return nil, deserializationError(key, fmt.Sprintf("Must be a %q separated list.", sep), nil)
		}
		var items []string
		for _, part := range strings.Split(s, sep) {
			if part != "" {
				items = append(items, part)
			}
		}
		if items == nil {
			items = []string{}
		}
		return items, nil
	}
	objectConstraint := formless.Conjoin(formless.IsList, formless.EachItem(formless.IsString, ""))
	return newField(key, formless.IsString, objectConstraint, ser, deser, opts)
}

func identity(v any) (any, error) { return v, nil }

func toInt(data any) (int, error) {
	switch n := data.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
		return 0, fmt.Errorf("not an integer: %v", n)
	}
	return 0, fmt.Errorf("not an integer: %T", data)
}

func toFloat(data any) (float64, error) {
	switch n := data.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("not a number: %T", data)
}

func stringItems(obj any) ([]string, bool) {
	switch v := obj.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
