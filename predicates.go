package formless

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	set "github.com/hashicorp/go-set/v3"

	"github.com/formlessness/formless/i18n"
	js "github.com/formlessness/formless/jsonschema"
)

// Kind tags the structural families a value can belong to. The first seven
// map onto JSON Schema types; the rest only exist at the object stage.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindNumber
	KindString
	KindList
	KindDict
	KindDate
	KindTime
	KindDateTime
	KindIterable
)

func (k Kind) jsonType() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "array"
	case KindDict:
		return "object"
	}
	return ""
}

func (k Kind) label() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "a boolean"
	case KindInt:
		return "an integer"
	case KindNumber:
		return "a float"
	case KindString:
		return "a string"
	case KindList:
		return "a list"
	case KindDict:
		return "a dictionary"
	case KindDate:
		return "a date"
	case KindTime:
		return "a time"
	case KindDateTime:
		return "a datetime"
	case KindIterable:
		return "iterable"
	}
	return "of a known type"
}

// OfType is a structural membership test against a Kind. An empty message
// picks the default from the i18n catalog.
func OfType(kind Kind, message string) Constraint {
	if message == "" {
		message = i18n.T("invalid_type", map[string]string{"type": kind.label()})
	}
	return &ofTypeConstraint{kind: kind, message: message}
}

type ofTypeConstraint struct {
	kind    Kind
	message string
}

func (t *ofTypeConstraint) SatisfiedBy(value any) bool {
	return kindOf(value, t.kind)
}

func (t *ofTypeConstraint) Validate(value any) Constraint { return residual(t, value) }
func (t *ofTypeConstraint) Simplify() Constraint          { return t }
func (t *ofTypeConstraint) Always() bool                  { return false }

func (t *ofTypeConstraint) JSONSchema() js.Validator {
	if jt := t.kind.jsonType(); jt != "" {
		return js.New(map[string]any{"type": jt}, true)
	}
	return js.Unfaithful()
}

func (t *ofTypeConstraint) String() string { return t.message }

// kindOf checks a decoded value against a Kind. Integers and floats are
// distinct families: json.Number carries the distinction the wire format
// makes, so decode with UseNumber when it matters.
func kindOf(value any, kind Kind) bool {
	switch kind {
	case KindNull:
		return value == nil
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindInt:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case json.Number:
			return !strings.ContainsAny(v.String(), ".eE")
		}
		return false
	case KindNumber:
		switch v := value.(type) {
		case float32, float64:
			return true
		case json.Number:
			return strings.ContainsAny(v.String(), ".eE")
		}
		return false
	case KindString:
		_, ok := value.(string)
		return ok
	case KindList:
		if value == nil {
			return false
		}
		k := reflect.TypeOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	case KindDict:
		if value == nil {
			return false
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	case KindDate, KindTime, KindDateTime:
		_, ok := value.(time.Time)
		return ok
	case KindIterable:
		_, ok := iterateItems(value)
		return ok
	}
	return false
}

// Built-in type constraints. Each is a single shared instance so that
// repeated uses inside one expression deduplicate during simplification.
var (
	IsNull     = OfType(KindNull, i18n.T("not_set", nil))
	IsBool     = OfType(KindBool, "")
	IsInt      = OfType(KindInt, "")
	IsNumber   = OfType(KindNumber, "")
	IsString   = OfType(KindString, "")
	IsList     = OfType(KindList, "")
	IsDict     = OfType(KindDict, "")
	IsDate     = OfType(KindDate, "")
	IsTime     = OfType(KindTime, "")
	IsDateTime = OfType(KindDateTime, "")
	IsIterable = OfType(KindIterable, "")

	// NotNull rejects only nil.
	NotNull = Predicate("not_null", i18n.T("required_value", nil), func(v any) bool {
		return v != nil
	})

	IsListOfStrings = ListOf(IsString, "Must be a list of strings.")
	IsListOfInts    = ListOf(IsInt, "Must be a list of integers.")
)

// ListOf is the conjunction of IsList and EachItem(item).
func ListOf(item Constraint, message string) Constraint {
	return AndMessage(message, IsList, EachItem(item, ""))
}

// Predicate wraps an arbitrary boolean function. requires lists constraints
// that must hold before fn is meaningful (type guards before a length
// check); when one fails, validation reports that guard instead of running
// fn on a value it was never written for.
func Predicate(name, message string, fn func(any) bool, requires ...Constraint) Constraint {
	if message == "" {
		message = i18n.T("predicate", map[string]string{"name": name})
	}
	return &predicateConstraint{name: name, message: message, fn: fn, requires: requires}
}

type predicateConstraint struct {
	name     string
	message  string
	fn       func(any) bool
	requires []Constraint
}

func (p *predicateConstraint) SatisfiedBy(value any) bool {
	return requirementsSatisfied(p.requires, value) && p.fn(value)
}

func (p *predicateConstraint) Validate(value any) Constraint {
	if r := requirementResidual(p.requires, value); r != nil {
		return r
	}
	if p.fn(value) {
		return Valid
	}
	return p.Simplify()
}

func (p *predicateConstraint) Simplify() Constraint        { return p }
func (p *predicateConstraint) Always() bool                { return false }
func (p *predicateConstraint) JSONSchema() js.Validator    { return js.Unfaithful() }
func (p *predicateConstraint) String() string              { return p.message }

// Choices restricts a value to a fixed set. Membership of an uncomparable
// value (a slice, say) counts as unsatisfied rather than a crash.
func Choices(values []any, message string) Constraint {
	if message == "" {
		message = i18n.T("invalid_enum", nil)
	}
	allowed := set.New[any](len(values))
	allowed.InsertSlice(values)
	return &choicesConstraint{allowed: allowed, message: message}
}

type choicesConstraint struct {
	allowed *set.Set[any]
	message string
}

func (c *choicesConstraint) SatisfiedBy(value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return c.allowed.Contains(value)
}

func (c *choicesConstraint) Validate(value any) Constraint { return residual(c, value) }
func (c *choicesConstraint) Simplify() Constraint          { return c }
func (c *choicesConstraint) Always() bool                  { return false }
func (c *choicesConstraint) JSONSchema() js.Validator      { return js.Unfaithful() }
func (c *choicesConstraint) String() string                { return c.message }

// Regex requires a string matching the pattern in full, not partially.
// The pattern must be valid; constraints are built at schema-definition
// time, so a bad pattern is a programmer error and panics there.
func Regex(pattern, message string) Constraint {
	if message == "" {
		message = i18n.T("pattern", map[string]string{"pattern": pattern})
	}
	re := regexp.MustCompile(`\A(?:` + pattern + `)\z`)
	return &regexConstraint{re: re, pattern: pattern, message: message}
}

type regexConstraint struct {
	re      *regexp.Regexp
	pattern string
	message string
}

func (r *regexConstraint) SatisfiedBy(value any) bool {
	s, ok := value.(string)
	return ok && r.re.MatchString(s)
}

func (r *regexConstraint) Validate(value any) Constraint { return residual(r, value) }
func (r *regexConstraint) Simplify() Constraint          { return r }
func (r *regexConstraint) Always() bool                  { return false }
func (r *regexConstraint) JSONSchema() js.Validator      { return js.Unfaithful() }
func (r *regexConstraint) String() string                { return r.message }

// EachItem checks a constraint against every item of an iterable value.
// Strings iterate by rune, maps by key.
func EachItem(item Constraint, message string) Constraint {
	return &eachItemConstraint{item: item, message: message}
}

type eachItemConstraint struct {
	item    Constraint
	message string
}

func (e *eachItemConstraint) SatisfiedBy(value any) bool {
	items, ok := iterateItems(value)
	if !ok {
		return false
	}
	for _, it := range items {
		if !e.item.SatisfiedBy(it) {
			return false
		}
	}
	return true
}

func (e *eachItemConstraint) Validate(value any) Constraint {
	if _, ok := iterateItems(value); !ok {
		return IsIterable.Validate(value)
	}
	return residual(e, value)
}

// Simplify reduces to the bare iterability check when the item constraint is
// vacuous; the iterability prerequisite itself is never dropped.
func (e *eachItemConstraint) Simplify() Constraint {
	item := e.item.Simplify()
	if item == Valid {
		return IsIterable
	}
	if item == e.item {
		return e
	}
	return &eachItemConstraint{item: item, message: e.message}
}

func (e *eachItemConstraint) Always() bool             { return false }
func (e *eachItemConstraint) JSONSchema() js.Validator { return js.Unfaithful() }

func (e *eachItemConstraint) String() string {
	if e.message != "" {
		return e.message
	}
	return i18n.T("each_item", map[string]string{"rule": strings.ToLower(e.item.String())})
}

// iterateItems flattens an iterable value into its items: slice and array
// elements, map keys, or the runes of a string. ok is false for everything
// else.
func iterateItems(value any) (items []any, ok bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, true
	case []any:
		return v, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Map:
		out := make([]any, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out = append(out, iter.Key().Interface())
		}
		return out, true
	}
	return nil, false
}

// HasKeys requires a mapping to contain every listed key. The residual on
// failure lists only the keys still missing, keeping errors minimal.
func HasKeys(keys ...string) Constraint {
	return &hasKeysConstraint{keys: keys}
}

type hasKeysConstraint struct {
	keys []string
}

func (h *hasKeysConstraint) SatisfiedBy(value any) bool {
	return IsDict.SatisfiedBy(value) && h.Validate(value).Always()
}

func (h *hasKeysConstraint) Validate(value any) Constraint {
	present, ok := mappingKeys(value)
	if !ok {
		if !IsDict.SatisfiedBy(value) {
			return IsDict.Validate(value)
		}
		// a mapping without string keys misses every required key
		if len(h.keys) == 0 {
			return Valid
		}
		return h
	}
	var missing []string
	for _, k := range h.keys {
		if !present.Contains(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return Valid
	}
	return &hasKeysConstraint{keys: missing}
}

// Simplify keeps the node even with zero keys: the mapping requirement
// itself still has to hold.
func (h *hasKeysConstraint) Simplify() Constraint     { return h }
func (h *hasKeysConstraint) Always() bool             { return false }
func (h *hasKeysConstraint) JSONSchema() js.Validator { return js.Unfaithful() }

func (h *hasKeysConstraint) String() string {
	return i18n.T("required_keys", map[string]string{"keys": strings.Join(h.keys, ", ")})
}

// mappingKeys collects the string keys of a map value.
func mappingKeys(value any) (*set.Set[string], bool) {
	if m, ok := value.(map[string]any); ok {
		keys := set.New[string](len(m))
		for k := range m {
			keys.Insert(k)
		}
		return keys, true
	}
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := set.New[string](rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys.Insert(iter.Key().String())
	}
	return keys, true
}
