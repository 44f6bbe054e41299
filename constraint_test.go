package formless_test

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/formlessness/formless"
)

var lte140 = formless.Predicate("lte_140_characters",
	"Must be 140 characters or less.",
	func(v any) bool { s, _ := v.(string); return len(s) <= 140 },
	formless.IsString)

func sampleConstraints() []formless.Constraint {
	return []formless.Constraint{
		formless.Valid,
		formless.Invalid,
		formless.IsString,
		formless.IsInt,
		formless.IsDict,
		formless.IsIterable,
		lte140,
		formless.GT(1),
		formless.GE(100),
		formless.LT("m"),
		formless.Regex(`\w+`, ""),
		formless.Choices([]any{"a", "b", 3}, ""),
		formless.EachItem(formless.IsString, ""),
		formless.HasKeys("a", "b"),
		formless.And(formless.IsString, lte140),
		formless.Or(formless.IsNull, formless.IsString),
		formless.Not(formless.IsString),
		formless.Not(lte140),
		formless.If(formless.IsInt, formless.GT(1)),
		formless.Conjoin(formless.IsList, formless.EachItem(formless.IsInt, "")),
		formless.IsListOfStrings,
	}
}

func sampleValues() []any {
	return []any{
		nil,
		true,
		0,
		2,
		150,
		5.5,
		json.Number("5"),
		json.Number("5.5"),
		"x",
		strings.Repeat("y", 200),
		[]any{"x", "y"},
		[]any{"x", 1},
		[]int{1, 2},
		map[string]any{"a": 1},
		map[string]any{"a": 1, "b": 2, "c": 3},
		map[int]any{1: "x"},
		time.Date(2021, 10, 9, 0, 0, 0, 0, time.UTC),
	}
}

// The residual's truthiness must agree exactly with satisfaction, for every
// constraint against every value.
func TestValidateAgreesWithSatisfiedBy(t *testing.T) {
	for _, c := range sampleConstraints() {
		for _, v := range sampleValues() {
			sat := c.SatisfiedBy(v)
			res := c.Validate(v)
			if sat != res.Always() {
				t.Errorf("%q on %#v: SatisfiedBy=%v but residual %q has Always=%v",
					c, v, sat, res, res.Always())
			}
			if sat && res != formless.Valid {
				t.Errorf("%q on %#v: satisfied but residual is %q", c, v, res)
			}
		}
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	for _, c := range sampleConstraints() {
		s1 := c.Simplify()
		s2 := s1.Simplify()
		if s1 != s2 {
			t.Errorf("%q: Simplify not idempotent: %q vs %q", c, s1, s2)
		}
	}
}

func TestAlwaysMatchesSimplify(t *testing.T) {
	for _, c := range sampleConstraints() {
		if got, want := c.Always(), c.Simplify() == formless.Valid; got != want {
			t.Errorf("%q: Always=%v but Simplify==Valid is %v", c, got, want)
		}
	}
}

func TestSimplifyPreservesSatisfaction(t *testing.T) {
	for _, c := range sampleConstraints() {
		s := c.Simplify()
		for _, v := range sampleValues() {
			if c.SatisfiedBy(v) != s.SatisfiedBy(v) {
				t.Errorf("%q vs simplified %q disagree on %#v", c, s, v)
			}
		}
	}
}

func TestEmptyCombinators(t *testing.T) {
	if got := formless.And().Simplify(); got != formless.Valid {
		t.Errorf("And() simplified to %q, want Valid", got)
	}
	if got := formless.Or().Simplify(); got != formless.Invalid {
		t.Errorf("Or() simplified to %q, want Invalid", got)
	}
}

func TestAndSimplification(t *testing.T) {
	gt1 := formless.GT(1)
	if got := formless.And(gt1, formless.Valid).Simplify(); got != gt1 {
		t.Errorf("And(GT(1), Valid) simplified to %q, want GT(1)", got)
	}
	if got := formless.And(gt1, formless.Invalid).Simplify(); got != formless.Invalid {
		t.Errorf("And(GT(1), Invalid) simplified to %q, want Invalid", got)
	}
	// nested same-kind children flatten
	flat := formless.And(formless.And(formless.IsString, lte140), gt1).Simplify()
	want := "(Must be a string.\nand\nMust be 140 characters or less.\nand\nMust be greater than 1.)"
	if flat.String() != want {
		t.Errorf("flattened And renders %q, want %q", flat, want)
	}
}

func TestOrSimplification(t *testing.T) {
	if got := formless.Or(formless.Invalid, formless.Valid, formless.Valid).Simplify(); got != formless.Valid {
		t.Errorf("Or(Invalid, Valid, Valid) simplified to %q, want Valid", got)
	}
	gt1 := formless.GT(1)
	if got := formless.Or(gt1, formless.Invalid).Simplify(); got != gt1 {
		t.Errorf("Or(GT(1), Invalid) simplified to %q, want GT(1)", got)
	}
}

func TestNotSimplification(t *testing.T) {
	if got := formless.Not(formless.Valid).Simplify(); got != formless.Invalid {
		t.Errorf("Not(Valid) simplified to %q, want Invalid", got)
	}
	if got := formless.Not(formless.Invalid).Simplify(); got != formless.Valid {
		t.Errorf("Not(Invalid) simplified to %q, want Valid", got)
	}
	// double negation of an opaque predicate recovers the original
	if got := formless.Not(formless.Not(formless.IsString)).Simplify(); got != formless.IsString {
		t.Errorf("Not(Not(IsString)) simplified to %q, want IsString", got)
	}
	// a single negation of an opaque predicate stays syntactic
	got := formless.Not(formless.IsString).Simplify()
	if want := "Not (Must be a string.)"; got.String() != want {
		t.Errorf("Not(IsString) renders %q, want %q", got, want)
	}
	// comparisons have exact complements
	if got := formless.Not(formless.GT(5)).Simplify().String(); got != "Must be less than or equal to 5." {
		t.Errorf("Not(GT(5)) simplified to %q", got)
	}
}

func TestNotBehavesAsComplement(t *testing.T) {
	inner := formless.IsString
	neg := formless.Not(inner)
	for _, v := range sampleValues() {
		if neg.SatisfiedBy(v) == inner.SatisfiedBy(v) {
			t.Errorf("Not(IsString) agrees with IsString on %#v", v)
		}
		double := formless.Not(neg).Simplify()
		if double.SatisfiedBy(v) != inner.SatisfiedBy(v) {
			t.Errorf("Not(Not(IsString)) disagrees with IsString on %#v", v)
		}
	}
}

func TestIfMaterialImplication(t *testing.T) {
	con := formless.If(formless.IsInt, formless.GT(1))
	cases := []struct {
		value any
		want  bool
	}{
		{0, false},
		{2, true},
		{"A", true},
	}
	for _, tc := range cases {
		if got := con.SatisfiedBy(tc.value); got != tc.want {
			t.Errorf("If(IsInt, GT(1)).SatisfiedBy(%#v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestHasKeysResidualListsOnlyMissing(t *testing.T) {
	hk := formless.HasKeys("a", "b")
	res := hk.Validate(map[string]any{"a": 1})
	if res.Always() {
		t.Fatalf("expected unsatisfied residual")
	}
	if got, want := res.String(), "Must set b"; got != want {
		t.Errorf("residual renders %q, want %q", got, want)
	}
	if got := hk.Validate(map[string]any{"a": 1, "b": 2}); got != formless.Valid {
		t.Errorf("expected Valid residual, got %q", got)
	}
	// non-mapping values fail on the mapping requirement itself
	if got, want := hk.Validate(5).String(), "Must be a dictionary."; got != want {
		t.Errorf("residual on non-mapping renders %q, want %q", got, want)
	}
}

// A mapping whose keys are not strings can never contain a required string
// key, so every required key is missing rather than the value passing as a
// mere dictionary.
func TestHasKeysNonStringKeyedMap(t *testing.T) {
	hk := formless.HasKeys("a")
	if hk.SatisfiedBy(map[int]any{1: 2}) {
		t.Errorf("int-keyed map must not satisfy HasKeys(a)")
	}
	res := hk.Validate(map[int]any{1: 2})
	if got, want := res.String(), "Must set a"; got != want {
		t.Errorf("residual renders %q, want %q", got, want)
	}
	// with no required keys the mapping requirement alone is met
	if !formless.HasKeys().SatisfiedBy(map[int]any{1: 2}) {
		t.Errorf("int-keyed map is still a mapping for HasKeys()")
	}
	if got := formless.HasKeys().Validate(map[int]any{1: 2}); got != formless.Valid {
		t.Errorf("residual = %q, want Valid", got)
	}
}

func TestEachItem(t *testing.T) {
	each := formless.EachItem(formless.IsString, "")
	if !each.SatisfiedBy([]any{"x", "y"}) {
		t.Errorf("expected []any{x,y} to satisfy")
	}
	if each.SatisfiedBy([]any{1}) {
		t.Errorf("expected []any{1} to fail")
	}
	if each.SatisfiedBy(1) {
		t.Errorf("expected non-iterable to fail")
	}
	if !each.SatisfiedBy("xy") {
		t.Errorf("expected string to iterate by rune")
	}
	if got, want := each.String(), "Each item must be a string."; got != want {
		t.Errorf("message %q, want %q", got, want)
	}
}

func TestEachItemSimplifyKeepsIterability(t *testing.T) {
	got := formless.EachItem(formless.Valid, "").Simplify()
	if got != formless.IsIterable {
		t.Errorf("EachItem(Valid) simplified to %q, want IsIterable", got)
	}
	if got.SatisfiedBy(5) {
		t.Errorf("simplified EachItem(Valid) must still reject non-iterables")
	}
}

func TestRegexMatchesFullStringOnly(t *testing.T) {
	c := formless.Regex(`\w+`, "")
	if !c.SatisfiedBy("snake_case") {
		t.Errorf("expected full \\w+ match")
	}
	if c.SatisfiedBy("abc!") {
		t.Errorf("expected partial match to fail")
	}
	if got, want := c.String(), `Must match regex \w+`; got != want {
		t.Errorf("message %q, want %q", got, want)
	}
	if formless.Regex(`\w`, "").SatisfiedBy("snake_case") {
		t.Errorf("single \\w must not match a longer string")
	}
	if c.SatisfiedBy(5) {
		t.Errorf("non-strings never match")
	}
}

func TestChoices(t *testing.T) {
	c := formless.Choices([]any{"a", "b", 3}, "")
	if !c.SatisfiedBy("a") || !c.SatisfiedBy(3) {
		t.Errorf("expected listed values to satisfy")
	}
	if c.SatisfiedBy("z") {
		t.Errorf("expected unlisted value to fail")
	}
	// uncomparable values are unsatisfied, not a crash
	if c.SatisfiedBy([]any{"a"}) {
		t.Errorf("expected uncomparable value to fail")
	}
}

// A type-guard failure must short-circuit: validating a non-string against
// "string and at most 140 chars" reports only the string failure.
func TestPrerequisiteShortCircuit(t *testing.T) {
	title := formless.Conjoin(formless.IsString, lte140)
	res := title.Validate(5)
	if res != formless.IsString {
		t.Fatalf("residual is %q, want the bare IsString failure", res)
	}
	if got, want := res.String(), "Must be a string."; got != want {
		t.Errorf("residual renders %q, want %q", got, want)
	}
	// on a too-long string, only the length rule remains
	res = title.Validate(strings.Repeat("y", 200))
	if got, want := res.String(), "Must be 140 characters or less."; got != want {
		t.Errorf("residual renders %q, want %q", got, want)
	}
}

func TestConjoinDisjoin(t *testing.T) {
	if got := formless.Conjoin(formless.Valid, formless.Valid); got != formless.Valid {
		t.Errorf("Conjoin(Valid, Valid) = %q", got)
	}
	if got := formless.Disjoin(formless.Invalid, formless.IsString); got != formless.IsString {
		t.Errorf("Disjoin(Invalid, IsString) = %q", got)
	}
}

func TestComplementInvolution(t *testing.T) {
	for _, c := range sampleConstraints() {
		double := formless.Complement(formless.Complement(c))
		for _, v := range sampleValues() {
			if double.SatisfiedBy(v) != c.SatisfiedBy(v) {
				t.Errorf("~~%q disagrees with original on %#v", c, v)
			}
		}
	}
}
