// Package formless provides:
//
// - A constraint algebra: boolean-logic expressions over predicates
//   (type checks, comparisons, regexes, And/Or/Not/If, per-item rules)
//   with sound, idempotent simplification
// - Residual validation: Validate reduces a constraint plus a value into
//   the constraint that remains unsatisfied, which doubles as the error
// - Path-addressed result trees (ConstraintMap, IssueMap) that mirror the
//   shape of nested forms and merge deterministically
// - Best-effort JSON Schema projection with explicit faithfulness tracking
//
// Design policy:
// - Keep the algebra and result maps in the root package; schema fragments
//   live under jsonschema/, messages under i18n/, the converter tree under
//   forms/, and the CLI under cmd/formless.
// - Constraints are immutable after construction and safe for concurrent
//   use; validation is total and never panics on malformed input.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	title := formless.Conjoin(formless.IsString, maxLen140)
//	if res := title.Validate(v); !res.Always() {
//		fmt.Println(res) // exactly what is wrong, nothing else
//	}
//
//	frag := title.JSONSchema() // fragment + faithfulness flag
package formless
