package formless_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/formlessness/formless"
	js "github.com/formlessness/formless/jsonschema"
)

func assertFragment(t *testing.T, got js.Validator, wantData map[string]any, wantFaithful bool) {
	t.Helper()
	if diff := cmp.Diff(wantData, got.Data); diff != "" {
		t.Errorf("fragment mismatch (-want +got):\n%s", diff)
	}
	if got.Faithful != wantFaithful {
		t.Errorf("faithful = %v, want %v", got.Faithful, wantFaithful)
	}
}

func TestJSONSchemaSingletons(t *testing.T) {
	assertFragment(t, formless.Valid.JSONSchema(), map[string]any{}, true)
	assertFragment(t, formless.Invalid.JSONSchema(), map[string]any{"not": map[string]any{}}, true)
}

func TestJSONSchemaOfType(t *testing.T) {
	assertFragment(t, formless.IsString.JSONSchema(), map[string]any{"type": "string"}, true)
	assertFragment(t, formless.IsInt.JSONSchema(), map[string]any{"type": "integer"}, true)
	// object-stage kinds have no JSON counterpart
	assertFragment(t, formless.IsDate.JSONSchema(), map[string]any{}, false)
	assertFragment(t, formless.IsIterable.JSONSchema(), map[string]any{}, false)
}

func TestJSONSchemaComparison(t *testing.T) {
	assertFragment(t, formless.GE(100).JSONSchema(), map[string]any{"minimum": 100}, true)
	assertFragment(t, formless.GT(0).JSONSchema(), map[string]any{"exclusiveMinimum": 0}, true)
	assertFragment(t, formless.LE(10).JSONSchema(), map[string]any{"maximum": 10}, true)
	assertFragment(t, formless.LT(10).JSONSchema(), map[string]any{"exclusiveMaximum": 10}, true)
	// non-numeric operands cannot be expressed
	assertFragment(t, formless.GE("A").JSONSchema(), map[string]any{}, false)
}

// An unfaithful disjunct poisons the whole union; an unfaithful conjunct
// only taints the flag while the faithful fragments stay useful.
func TestJSONSchemaFaithfulnessAsymmetry(t *testing.T) {
	faithful := formless.IsString
	unfaithful := lte140 // opaque predicate

	assertFragment(t, formless.Or(faithful, unfaithful).JSONSchema(), map[string]any{}, false)
	assertFragment(t, formless.And(faithful, unfaithful).JSONSchema(), map[string]any{"type": "string"}, false)
}

func TestJSONSchemaAnd(t *testing.T) {
	got := formless.And(formless.IsNumber, formless.GE(0), formless.LT(1)).JSONSchema()
	want := map[string]any{
		"allOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"minimum": 0},
			map[string]any{"exclusiveMaximum": 1},
		},
	}
	assertFragment(t, got, want, true)
}

func TestJSONSchemaOr(t *testing.T) {
	got := formless.Or(formless.IsString, formless.IsInt).JSONSchema()
	want := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "integer"},
		},
	}
	assertFragment(t, got, want, true)
	// a child that faithfully accepts everything makes the union everything
	assertFragment(t, formless.Or(formless.IsString, formless.Valid).JSONSchema(), map[string]any{}, true)
}

func TestJSONSchemaNot(t *testing.T) {
	assertFragment(t, formless.Not(formless.IsString).JSONSchema(),
		map[string]any{"not": map[string]any{"type": "string"}}, true)
	assertFragment(t, formless.Not(lte140).JSONSchema(), map[string]any{}, false)
}

func TestJSONSchemaDefaultsUnfaithful(t *testing.T) {
	for _, c := range []formless.Constraint{
		lte140,
		formless.Choices([]any{"a"}, ""),
		formless.Regex(`\w+`, ""),
		formless.EachItem(formless.IsString, ""),
		formless.HasKeys("a"),
		formless.If(formless.IsInt, formless.GT(1)),
	} {
		if got := c.JSONSchema(); got.Faithful || !got.Anything() {
			t.Errorf("%q: expected empty unfaithful fragment, got %v (faithful=%v)", c, got.Data, got.Faithful)
		}
	}
}
