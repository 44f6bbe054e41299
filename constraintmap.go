package formless

import (
	"sort"
	"strings"
)

// ConstraintMap is a path-addressed tree of constraint-validation results,
// mirroring the shape of nested forms. Every path not explicitly present
// holds Valid, so lookups alone never invent failures. Maps are built fresh
// per validation call and merged with And.
type ConstraintMap struct {
	top      Constraint
	children map[string]ConstraintMap
}

// NewConstraintMap builds a map from the constraint at this path plus child
// maps keyed by the next path segment.
func NewConstraintMap(top Constraint, children map[string]ConstraintMap) ConstraintMap {
	if top == nil {
		top = Valid
	}
	return ConstraintMap{top: top, children: children}
}

// Top returns the constraint rooted at this path.
func (m ConstraintMap) Top() Constraint {
	if m.top == nil {
		return Valid
	}
	return m.top
}

// Get returns the constraint at the given path, defaulting to Valid for any
// path not present.
func (m ConstraintMap) Get(path ...string) Constraint {
	if len(path) == 0 {
		return m.Top()
	}
	child, ok := m.children[path[0]]
	if !ok {
		return Valid
	}
	return child.Get(path[1:]...)
}

// And merges two maps: constraints at matching paths are conjoined,
// non-overlapping children are unioned. Merging is deterministic regardless
// of the order sibling validations completed in.
func (m ConstraintMap) And(other ConstraintMap) ConstraintMap {
	top := Conjoin(m.Top(), other.Top())
	children := make(map[string]ConstraintMap, len(m.children)+len(other.children))
	for k, v := range m.children {
		children[k] = v
	}
	for k, v := range other.children {
		if existing, ok := children[k]; ok {
			children[k] = existing.And(v)
		} else {
			children[k] = v
		}
	}
	return ConstraintMap{top: top, children: children}
}

// Always reports whether every constraint in the map, recursively, can never
// be violated. This is the pass/fail answer for a whole form.
func (m ConstraintMap) Always() bool {
	if !m.Top().Always() {
		return false
	}
	for _, child := range m.children {
		if !child.Always() {
			return false
		}
	}
	return true
}

// Paths yields every path holding a non-Valid constraint, in sorted segment
// order. The root path (an empty slice) appears only when its constraint is
// not Valid.
func (m ConstraintMap) Paths() [][]string {
	var out [][]string
	if m.Top() != Valid {
		out = append(out, []string{})
	}
	for _, k := range m.childKeys() {
		for _, sub := range m.children[k].Paths() {
			out = append(out, append([]string{k}, sub...))
		}
	}
	return out
}

// Len counts the paths holding a non-Valid constraint.
func (m ConstraintMap) Len() int { return len(m.Paths()) }

func (m ConstraintMap) childKeys() []string {
	keys := make([]string, 0, len(m.children))
	for k := range m.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders every failing path as "dotted.path: message" blocks.
func (m ConstraintMap) String() string {
	var parts []string
	for _, path := range m.Paths() {
		parts = append(parts, strings.Join(path, ".")+": "+m.Get(path...).String())
	}
	return strings.Join(parts, "\n\n")
}

// Issues flattens the map into path-keyed issues, splitting conjunctions so
// each failed rule reports separately.
func (m ConstraintMap) Issues() Issues {
	var out Issues
	for _, path := range m.Paths() {
		out = append(out, constraintIssues(strings.Join(path, "."), m.Get(path...))...)
	}
	return out
}
