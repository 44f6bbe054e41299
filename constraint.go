package formless

import (
	js "github.com/formlessness/formless/jsonschema"
)

// Constraint is a rule that can be satisfied by values. A Constraint doubles
// as its own report of what is wrong: Validate returns the residual
// constraint describing exactly what remains unsatisfied, and String renders
// it for humans.
//
// Constraints are immutable value types after construction. Building them is
// cheap and done once at schema-definition time; SatisfiedBy, Validate and
// Simplify are pure and safe for concurrent use.
type Constraint interface {
	// SatisfiedBy reports whether the value satisfies this constraint.
	SatisfiedBy(value any) bool

	// Validate returns the remaining constraint that the value would have to
	// satisfy. It returns Valid when the value is acceptable; otherwise the
	// residual is the simplified description of what went wrong.
	Validate(value any) Constraint

	// Simplify returns a functionally identical but reduced constraint,
	// without evaluating against any value. Simplify is idempotent.
	Simplify() Constraint

	// Always reports whether the constraint is satisfied by every possible
	// value, i.e. whether it is identically Valid after simplification.
	Always() bool

	// JSONSchema projects the constraint into a JSON Schema fragment plus a
	// faithfulness flag. Constraints with no schema counterpart return the
	// empty, unfaithful fragment.
	JSONSchema() js.Validator

	// String renders the human-facing message.
	String() string
}

// complementer is implemented by variants whose logical complement has an
// exact representation of its own (for example ~GT(x) is LE(x)). Variants
// without one are complemented by a syntactic Not wrapper.
type complementer interface {
	complement() Constraint
}

// Complement returns the logical inverse of c: a constraint satisfied by
// exactly the values that do not satisfy c.
func Complement(c Constraint) Constraint {
	if inv, ok := c.(complementer); ok {
		return inv.complement()
	}
	return &notConstraint{inner: c}
}

// Conjoin returns the simplified conjunction of the given constraints.
func Conjoin(cs ...Constraint) Constraint {
	return And(cs...).Simplify()
}

// Disjoin returns the simplified disjunction of the given constraints.
func Disjoin(cs ...Constraint) Constraint {
	return Or(cs...).Simplify()
}

// requirementsSatisfied checks prerequisite constraints left to right,
// stopping at the first failure so later checks never see a value their
// guards rejected.
func requirementsSatisfied(requires []Constraint, value any) bool {
	for _, r := range requires {
		if !r.SatisfiedBy(value) {
			return false
		}
	}
	return true
}

// requirementResidual returns the residual of the first failing
// prerequisite, or nil when all hold. Prerequisites are checked
// independently rather than folded into one And, so the residual names only
// the guard that actually failed.
func requirementResidual(requires []Constraint, value any) Constraint {
	for _, r := range requires {
		if !r.SatisfiedBy(value) {
			return r.Validate(value)
		}
	}
	return nil
}

// residual is the default Validate: Valid when satisfied, the simplified
// constraint itself otherwise.
func residual(c Constraint, value any) Constraint {
	if c.SatisfiedBy(value) {
		return Valid
	}
	return c.Simplify()
}

// Valid is the canonical constraint satisfied by every value: the identity
// for And and the absorbing element for Or.
var Valid Constraint = validConstraint{}

// Invalid is the canonical constraint satisfied by no value: the identity
// for Or and the absorbing element for And.
var Invalid Constraint = invalidConstraint{}

type validConstraint struct{}

func (validConstraint) SatisfiedBy(any) bool       { return true }
func (validConstraint) Validate(any) Constraint    { return Valid }
func (validConstraint) Simplify() Constraint       { return Valid }
func (validConstraint) Always() bool               { return true }
func (validConstraint) complement() Constraint     { return Invalid }
func (validConstraint) JSONSchema() js.Validator   { return js.Everything() }
func (validConstraint) String() string             { return "Valid" }

type invalidConstraint struct{}

func (invalidConstraint) SatisfiedBy(any) bool     { return false }
func (invalidConstraint) Validate(any) Constraint  { return Invalid }
func (invalidConstraint) Simplify() Constraint     { return Invalid }
func (invalidConstraint) Always() bool             { return false }
func (invalidConstraint) complement() Constraint   { return Valid }
func (invalidConstraint) JSONSchema() js.Validator { return js.Nothing() }
func (invalidConstraint) String() string           { return "Invalid" }
