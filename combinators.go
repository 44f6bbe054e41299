package formless

import (
	"strings"

	set "github.com/hashicorp/go-set/v3"

	js "github.com/formlessness/formless/jsonschema"
)

// And combines constraints so that all of them must be satisfied.
// And() with no children is equivalent to Valid.
func And(children ...Constraint) Constraint {
	return &andConstraint{children: children}
}

// AndMessage is And with a custom message replacing the joined rendering.
func AndMessage(message string, children ...Constraint) Constraint {
	return &andConstraint{children: children, message: message}
}

type andConstraint struct {
	children   []Constraint
	message    string
	simplified bool
}

func (a *andConstraint) SatisfiedBy(value any) bool {
	return a.Validate(value).Always()
}

// Validate fully evaluates every child so the residual reports all problems
// at once; satisfied children drop out during simplification.
func (a *andConstraint) Validate(value any) Constraint {
	residuals := make([]Constraint, len(a.children))
	for i, c := range a.children {
		residuals[i] = c.Validate(value)
	}
	return And(residuals...).Simplify()
}

func (a *andConstraint) Always() bool {
	for _, c := range a.children {
		if !c.Always() {
			return false
		}
	}
	return true
}

func (a *andConstraint) Simplify() Constraint {
	if a.simplified {
		return a
	}
	seen := set.New[Constraint](len(a.children))
	var children []Constraint
	add := func(c Constraint) {
		if seen.Insert(c) {
			children = append(children, c)
		}
	}
	for _, c := range a.children {
		s := c.Simplify()
		if s == Invalid {
			return Invalid
		}
		if s == Valid {
			continue
		}
		if sub, ok := s.(*andConstraint); ok {
			for _, sc := range sub.children {
				add(sc)
			}
			continue
		}
		add(s)
	}
	switch len(children) {
	case 0:
		return Valid
	case 1:
		return children[0]
	}
	return &andConstraint{children: children, message: a.message, simplified: true}
}

func (a *andConstraint) complement() Constraint {
	inverted := make([]Constraint, len(a.children))
	for i, c := range a.children {
		inverted[i] = Complement(c)
	}
	return Or(inverted...).Simplify()
}

// JSONSchema collects the faithful, non-trivial child fragments into allOf.
// An unfaithful child taints the flag but does not abort the conjunction: a
// partial schema is still a useful necessary filter.
func (a *andConstraint) JSONSchema() js.Validator {
	faithful := true
	var fragments []js.Validator
	for _, c := range a.children {
		f := c.JSONSchema()
		if !f.Faithful {
			faithful = false
		}
		if !f.Anything() {
			fragments = append(fragments, f)
		}
	}
	switch len(fragments) {
	case 0:
		return js.New(nil, faithful)
	case 1:
		return js.New(fragments[0].Data, faithful)
	}
	datas := make([]any, len(fragments))
	for i, f := range fragments {
		datas[i] = f.Data
	}
	return js.New(map[string]any{"allOf": datas}, faithful)
}

func (a *andConstraint) String() string {
	if a.message != "" {
		return a.message
	}
	return joinMessages(a.children, "\nand\n")
}

// Or combines constraints so that at least one must be satisfied.
// Or() with no children is equivalent to Invalid.
func Or(children ...Constraint) Constraint {
	return &orConstraint{children: children}
}

// OrMessage is Or with a custom message replacing the joined rendering.
func OrMessage(message string, children ...Constraint) Constraint {
	return &orConstraint{children: children, message: message}
}

type orConstraint struct {
	children   []Constraint
	message    string
	simplified bool
}

func (o *orConstraint) SatisfiedBy(value any) bool {
	return o.Validate(value).Always()
}

// Validate evaluates every child; one fully validating child collapses the
// residual to Valid since a disjunction needs only one success.
func (o *orConstraint) Validate(value any) Constraint {
	residuals := make([]Constraint, len(o.children))
	for i, c := range o.children {
		residuals[i] = c.Validate(value)
	}
	return Or(residuals...).Simplify()
}

func (o *orConstraint) Always() bool {
	for _, c := range o.children {
		if c.Always() {
			return true
		}
	}
	return false
}

func (o *orConstraint) Simplify() Constraint {
	if o.simplified {
		return o
	}
	seen := set.New[Constraint](len(o.children))
	var children []Constraint
	add := func(c Constraint) {
		if seen.Insert(c) {
			children = append(children, c)
		}
	}
	for _, c := range o.children {
		s := c.Simplify()
		if s == Valid {
			return Valid
		}
		if s == Invalid {
			continue
		}
		if sub, ok := s.(*orConstraint); ok {
			for _, sc := range sub.children {
				add(sc)
			}
			continue
		}
		add(s)
	}
	switch len(children) {
	case 0:
		return Invalid
	case 1:
		return children[0]
	}
	return &orConstraint{children: children, message: o.message, simplified: true}
}

func (o *orConstraint) complement() Constraint {
	inverted := make([]Constraint, len(o.children))
	for i, c := range o.children {
		inverted[i] = Complement(c)
	}
	return And(inverted...).Simplify()
}

// JSONSchema degrades to the empty, unfaithful fragment as soon as one child
// is unfaithful: an untrusted disjunct could hide values the schema knows
// nothing about, so the whole union cannot be trusted. A child that
// faithfully accepts everything makes the disjunction itself accept
// everything, faithfully.
func (o *orConstraint) JSONSchema() js.Validator {
	var fragments []js.Validator
	for _, c := range o.children {
		f := c.JSONSchema()
		if !f.Faithful {
			return js.Unfaithful()
		}
		if f.Anything() {
			return js.Everything()
		}
		fragments = append(fragments, f)
	}
	switch len(fragments) {
	case 0:
		return js.Nothing()
	case 1:
		return fragments[0]
	}
	datas := make([]any, len(fragments))
	for i, f := range fragments {
		datas[i] = f.Data
	}
	return js.New(map[string]any{"anyOf": datas}, true)
}

func (o *orConstraint) String() string {
	if o.message != "" {
		return o.message
	}
	return joinMessages(o.children, "\nor\n")
}

// Not inverts a constraint.
func Not(inner Constraint) Constraint {
	return &notConstraint{inner: inner}
}

// NotMessage is Not with a custom message.
func NotMessage(message string, inner Constraint) Constraint {
	return &notConstraint{inner: inner, message: message}
}

type notConstraint struct {
	inner      Constraint
	message    string
	simplified bool
}

func (n *notConstraint) SatisfiedBy(value any) bool {
	return !n.inner.SatisfiedBy(value)
}

func (n *notConstraint) Validate(value any) Constraint {
	return residual(n, value)
}

func (n *notConstraint) Always() bool {
	return n.inner.Simplify() == Invalid
}

// Simplify applies double-negation elimination when the inner constraint has
// an exact complement; otherwise the Not stays syntactic around the
// simplified inner constraint. The simplified flag stops the descent from
// recursing forever through freshly built wrappers.
func (n *notConstraint) Simplify() Constraint {
	if n.simplified {
		return n
	}
	inner := n.inner.Simplify()
	inverted := Complement(inner)
	if _, syntactic := inverted.(*notConstraint); syntactic {
		return &notConstraint{inner: inner, message: n.message, simplified: true}
	}
	return inverted.Simplify()
}

func (n *notConstraint) complement() Constraint {
	return n.inner
}

func (n *notConstraint) JSONSchema() js.Validator {
	inner := n.inner.JSONSchema()
	if !inner.Faithful {
		return js.Unfaithful()
	}
	return js.New(map[string]any{"not": inner.Data}, true)
}

func (n *notConstraint) String() string {
	if n.message != "" {
		return n.message
	}
	return "Not (" + n.inner.String() + ")"
}

// If is material implication: satisfied when the premise does not hold or
// the consequence does. It has no independent representation and reduces to
// Or(Not(premise), consequence).
func If(premise, consequence Constraint) Constraint {
	return &ifConstraint{p: premise, q: consequence}
}

// IfMessage is If with a custom message.
func IfMessage(message string, premise, consequence Constraint) Constraint {
	return &ifConstraint{p: premise, q: consequence, message: message}
}

type ifConstraint struct {
	p, q    Constraint
	message string
}

func (i *ifConstraint) SatisfiedBy(value any) bool {
	if i.p.SatisfiedBy(value) {
		return i.q.SatisfiedBy(value)
	}
	return true
}

func (i *ifConstraint) Validate(value any) Constraint {
	return Or(Complement(i.p), i.q).Validate(value)
}

func (i *ifConstraint) Always() bool {
	return i.Simplify() == Valid
}

func (i *ifConstraint) Simplify() Constraint {
	return Or(Complement(i.p), i.q).Simplify()
}

func (i *ifConstraint) complement() Constraint {
	return Conjoin(i.p, Complement(i.q))
}

func (i *ifConstraint) JSONSchema() js.Validator {
	return js.Unfaithful()
}

func (i *ifConstraint) String() string {
	if i.message != "" {
		return i.message
	}
	return "If (" + i.p.String() + ") Then (" + i.q.String() + ")"
}

func joinMessages(children []Constraint, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
