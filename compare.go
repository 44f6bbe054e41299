package formless

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	json "github.com/goccy/go-json"

	"github.com/formlessness/formless/i18n"
	js "github.com/formlessness/formless/jsonschema"
)

// Relation is the ordering a Comparison asserts between value and operand.
type Relation int

const (
	RelGT Relation = iota
	RelGE
	RelLT
	RelLE
)

func (r Relation) phrase() string {
	switch r {
	case RelGT:
		return "greater than"
	case RelGE:
		return "greater than or equal to"
	case RelLT:
		return "less than"
	case RelLE:
		return "less than or equal to"
	}
	return "comparable to"
}

func (r Relation) holds(cmp int) bool {
	switch r {
	case RelGT:
		return cmp > 0
	case RelGE:
		return cmp >= 0
	case RelLT:
		return cmp < 0
	case RelLE:
		return cmp <= 0
	}
	return false
}

// negate returns the complementary relation: not(>) is <=, and so on.
func (r Relation) negate() Relation {
	switch r {
	case RelGT:
		return RelLE
	case RelGE:
		return RelLT
	case RelLT:
		return RelGE
	default:
		return RelGT
	}
}

// schemaKeyword maps a relation onto its draft-07 bound keyword.
func (r Relation) schemaKeyword() string {
	switch r {
	case RelGE:
		return "minimum"
	case RelGT:
		return "exclusiveMinimum"
	case RelLE:
		return "maximum"
	default:
		return "exclusiveMaximum"
	}
}

// Comparison requires the value to stand in the given relation to the
// operand. Values that cannot be compared to the operand at all are simply
// unsatisfied; comparison never fails loudly.
func Comparison(rel Relation, operand any, message string) Constraint {
	return &comparisonConstraint{rel: rel, operand: operand, message: message}
}

// GT requires the value to be greater than the operand.
func GT(operand any) Constraint { return Comparison(RelGT, operand, "") }

// GE requires the value to be greater than or equal to the operand.
func GE(operand any) Constraint { return Comparison(RelGE, operand, "") }

// LT requires the value to be less than the operand.
func LT(operand any) Constraint { return Comparison(RelLT, operand, "") }

// LE requires the value to be less than or equal to the operand.
func LE(operand any) Constraint { return Comparison(RelLE, operand, "") }

type comparisonConstraint struct {
	rel     Relation
	operand any
	message string
}

func (c *comparisonConstraint) SatisfiedBy(value any) bool {
	cmp, ok := compareValues(value, c.operand)
	return ok && c.rel.holds(cmp)
}

func (c *comparisonConstraint) Validate(value any) Constraint { return residual(c, value) }
func (c *comparisonConstraint) Simplify() Constraint          { return c }
func (c *comparisonConstraint) Always() bool                  { return false }

// complement flips the relation; a custom message cannot be negated and is
// dropped in favor of the derived one.
func (c *comparisonConstraint) complement() Constraint {
	return &comparisonConstraint{rel: c.rel.negate(), operand: c.operand}
}

func (c *comparisonConstraint) JSONSchema() js.Validator {
	if _, ok := toDecimal(c.operand); !ok {
		return js.Unfaithful()
	}
	return js.New(map[string]any{c.rel.schemaKeyword(): c.operand}, true)
}

func (c *comparisonConstraint) String() string {
	if c.message != "" {
		return c.message
	}
	return i18n.T("comparison", map[string]string{
		"relation": c.rel.phrase(),
		"operand":  fmt.Sprint(c.operand),
	})
}

// compareValues orders two values when an order exists: numbers compare as
// exact decimals regardless of their Go representation, strings
// lexicographically, times chronologically. Mixed or unordered operands
// report ok=false.
func compareValues(a, b any) (cmp int, ok bool) {
	if da, aok := toDecimal(a); aok {
		db, bok := toDecimal(b)
		if !bok {
			return 0, false
		}
		return da.Cmp(db), true
	}
	switch av := a.(type) {
	case string:
		bv, bok := b.(string)
		if !bok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, bok := b.(time.Time)
		if !bok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

// toDecimal widens any numeric representation to an exact decimal. NaN and
// the infinities have no order here and report false.
func toDecimal(v any) (*apd.Decimal, bool) {
	d := new(apd.Decimal)
	switch n := v.(type) {
	case int:
		return d.SetInt64(int64(n)), true
	case int8:
		return d.SetInt64(int64(n)), true
	case int16:
		return d.SetInt64(int64(n)), true
	case int32:
		return d.SetInt64(int64(n)), true
	case int64:
		return d.SetInt64(n), true
	case uint:
		return setUint(d, uint64(n))
	case uint8:
		return d.SetInt64(int64(n)), true
	case uint16:
		return d.SetInt64(int64(n)), true
	case uint32:
		return d.SetInt64(int64(n)), true
	case uint64:
		return setUint(d, n)
	case float32:
		if _, err := d.SetFloat64(float64(n)); err != nil {
			return nil, false
		}
		return d, true
	case float64:
		if _, err := d.SetFloat64(n); err != nil {
			return nil, false
		}
		return d, true
	case json.Number:
		if _, _, err := d.SetString(n.String()); err != nil {
			return nil, false
		}
		return d, true
	case *apd.Decimal:
		if n == nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

func setUint(d *apd.Decimal, n uint64) (*apd.Decimal, bool) {
	if _, _, err := d.SetString(strconv.FormatUint(n, 10)); err != nil {
		return nil, false
	}
	return d, true
}
