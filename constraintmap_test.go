package formless_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/formlessness/formless"
)

func mapOf(top formless.Constraint, children map[string]formless.ConstraintMap) formless.ConstraintMap {
	return formless.NewConstraintMap(top, children)
}

func TestConstraintMapDefaultsToValid(t *testing.T) {
	m := mapOf(formless.IsDict, map[string]formless.ConstraintMap{
		"title": mapOf(formless.IsString, nil),
	})
	if got := m.Get("title"); got != formless.IsString {
		t.Errorf("Get(title) = %q", got)
	}
	if got := m.Get("missing"); got != formless.Valid {
		t.Errorf("Get(missing) = %q, want Valid", got)
	}
	if got := m.Get("title", "deeper", "still"); got != formless.Valid {
		t.Errorf("Get on absent deep path = %q, want Valid", got)
	}
	if got := m.Get(); got != formless.IsDict {
		t.Errorf("Get() = %q, want the top constraint", got)
	}
	var zero formless.ConstraintMap
	if got := zero.Top(); got != formless.Valid {
		t.Errorf("zero map Top() = %q, want Valid", got)
	}
}

// Merging commutes with lookup: (m1 & m2)[path] behaves as m1[path] & m2[path].
func TestConstraintMapAndMergesPointwise(t *testing.T) {
	m1 := mapOf(formless.IsDict, map[string]formless.ConstraintMap{
		"title":    mapOf(formless.IsString, nil),
		"director": mapOf(formless.IsString, nil),
	})
	m2 := mapOf(formless.HasKeys("title"), map[string]formless.ConstraintMap{
		"title": mapOf(lte140, nil),
		"year":  mapOf(formless.IsInt, nil),
	})
	merged := m1.And(m2)

	paths := [][]string{{}, {"title"}, {"director"}, {"year"}, {"absent"}}
	values := []any{nil, 5, "x", map[string]any{"title": "x"}}
	for _, p := range paths {
		want := formless.Conjoin(m1.Get(p...), m2.Get(p...))
		got := merged.Get(p...)
		for _, v := range values {
			if got.SatisfiedBy(v) != want.SatisfiedBy(v) {
				t.Errorf("merged[%v] disagrees with pointwise conjunction on %#v", p, v)
			}
		}
	}
}

func TestConstraintMapAlways(t *testing.T) {
	if !mapOf(formless.Valid, nil).Always() {
		t.Errorf("all-Valid map must be Always")
	}
	failing := mapOf(formless.Valid, map[string]formless.ConstraintMap{
		"title": mapOf(formless.IsString, nil),
	})
	if failing.Always() {
		t.Errorf("map holding a residual must not be Always")
	}
}

func TestConstraintMapPaths(t *testing.T) {
	m := mapOf(formless.HasKeys("b"), map[string]formless.ConstraintMap{
		"b": mapOf(formless.Valid, map[string]formless.ConstraintMap{
			"c": mapOf(formless.IsInt, nil),
		}),
		"a": mapOf(formless.IsString, nil),
	})
	want := [][]string{{}, {"a"}, {"b", "c"}}
	if diff := cmp.Diff(want, m.Paths()); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
	if got := m.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
	// the root path is suppressed once its constraint is Valid
	ok := mapOf(formless.Valid, map[string]formless.ConstraintMap{
		"a": mapOf(formless.IsString, nil),
	})
	if diff := cmp.Diff([][]string{{"a"}}, ok.Paths()); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestConstraintMapString(t *testing.T) {
	m := mapOf(formless.Valid, map[string]formless.ConstraintMap{
		"location": mapOf(formless.Valid, map[string]formless.ConstraintMap{
			"city": mapOf(formless.IsString, nil),
		}),
		"title": mapOf(lte140, nil),
	})
	want := "location.city: Must be a string.\n\ntitle: Must be 140 characters or less."
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestConstraintMapIssues(t *testing.T) {
	m := mapOf(formless.Conjoin(formless.IsDict, formless.HasKeys("title")).Validate(map[string]any{}),
		map[string]formless.ConstraintMap{
			"year": mapOf(formless.IsInt, nil),
		})
	iss := m.Issues()
	if len(iss) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(iss), iss)
	}
	if iss[0].Path != "" || iss[0].Code != formless.CodeRequiredKeys {
		t.Errorf("top issue = %+v", iss[0])
	}
	if iss[1].Path != "year" || iss[1].Code != formless.CodeInvalidType {
		t.Errorf("child issue = %+v", iss[1])
	}
}
