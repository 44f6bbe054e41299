package formless

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType  = "invalid_type"
	CodeInvalidEnum  = "invalid_enum"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodePattern      = "pattern"
	CodeRequiredKeys = "required_keys"
	CodeEachItem     = "each_item"
	CodePredicate    = "predicate"
	CodeNot          = "not"
	CodeAnyOf        = "any_of"
	CodeUnsatisfied  = "unsatisfied"
	CodeParseError   = "parse_error"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // Dotted field path (for example: location.city).
	Code    string // One of the codes listed above.
	Message string
	Cause   error          // Optional: underlying error.
	Params  map[string]any // Structured parameters for i18n and observability.
}

// Issues is a collection of validation entries that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice
// when needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// constraintIssues renders a residual constraint at a path into issues.
// Conjunctions fan out so every failed rule gets its own entry.
func constraintIssues(path string, c Constraint) Issues {
	switch v := c.(type) {
	case validConstraint:
		return nil
	case *andConstraint:
		var out Issues
		for _, child := range v.children {
			out = append(out, constraintIssues(path, child)...)
		}
		return out
	default:
		return Issues{{Path: path, Code: issueCode(c), Message: c.String()}}
	}
}

func issueCode(c Constraint) string {
	switch v := c.(type) {
	case *ofTypeConstraint:
		return CodeInvalidType
	case *choicesConstraint:
		return CodeInvalidEnum
	case *comparisonConstraint:
		if v.rel == RelGT || v.rel == RelGE {
			return CodeTooSmall
		}
		return CodeTooBig
	case *regexConstraint:
		return CodePattern
	case *hasKeysConstraint:
		return CodeRequiredKeys
	case *eachItemConstraint:
		return CodeEachItem
	case *predicateConstraint:
		return CodePredicate
	case *notConstraint:
		return CodeNot
	case *orConstraint:
		return CodeAnyOf
	default:
		return CodeUnsatisfied
	}
}

// IssueMap is a path-keyed tree of raised issues: the alternate result
// representation for flows that accumulate exception-like issues instead of
// constraint residuals. An IssueMap with no issues anywhere is "valid"; a
// non-empty one is usable directly as the error for "raise if invalid".
type IssueMap struct {
	key      string
	issues   Issues
	children map[string]*IssueMap
}

// NewIssueMap builds a map scoped to key holding the given top-level issues.
func NewIssueMap(key string, issues ...Issue) *IssueMap {
	return &IssueMap{key: key, issues: issues}
}

// CollectIssueMap partitions a flat list of raised errors into a map scoped
// to key: plain issues land at the top level, while errors that are already
// scoped IssueMaps (a child's own validation bubbling up) become children
// under their own key, no knowledge of child internals required. Errors that
// are neither are wrapped as parse errors. nil errors are skipped.
func CollectIssueMap(key string, errs ...error) *IssueMap {
	m := &IssueMap{key: key}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var sub *IssueMap
		if errors.As(err, &sub) {
			m.addChild(sub)
			continue
		}
		if iss, ok := AsIssues(err); ok {
			m.issues = append(m.issues, iss...)
			continue
		}
		m.issues = append(m.issues, Issue{
			Code:    CodeParseError,
			Message: err.Error(),
			Cause:   err,
		})
	}
	return m
}

func (m *IssueMap) addChild(sub *IssueMap) {
	if m.children == nil {
		m.children = map[string]*IssueMap{}
	}
	if existing, ok := m.children[sub.key]; ok {
		m.children[sub.key] = existing.Or(sub)
	} else {
		m.children[sub.key] = sub
	}
}

// Key returns the path segment this map is scoped to.
func (m *IssueMap) Key() string { return m.key }

// TopIssues returns the issues raised at this level.
func (m *IssueMap) TopIssues() Issues { return m.issues }

// Child returns the scoped child map for the given key, or nil.
func (m *IssueMap) Child(key string) *IssueMap {
	return m.children[key]
}

// Or merges two maps field by field: top-level issues concatenate and
// overlapping children merge recursively. The receiver's key wins.
func (m *IssueMap) Or(other *IssueMap) *IssueMap {
	if other == nil {
		return m
	}
	if m == nil {
		return other
	}
	out := &IssueMap{key: m.key}
	out.issues = append(append(Issues{}, m.issues...), other.issues...)
	for _, src := range []map[string]*IssueMap{m.children, other.children} {
		for _, child := range src {
			out.addChild(child)
		}
	}
	return out
}

// Empty reports whether no issue was raised anywhere in the tree.
func (m *IssueMap) Empty() bool {
	if m == nil {
		return true
	}
	if len(m.issues) > 0 {
		return false
	}
	for _, child := range m.children {
		if !child.Empty() {
			return false
		}
	}
	return true
}

// Len counts all issues in the tree.
func (m *IssueMap) Len() int {
	if m == nil {
		return 0
	}
	n := len(m.issues)
	for _, child := range m.children {
		n += child.Len()
	}
	return n
}

// Flatten renders the tree as a flat issue list with dotted paths.
func (m *IssueMap) Flatten() Issues {
	var out Issues
	m.flattenInto("", &out)
	return out
}

func (m *IssueMap) flattenInto(prefix string, out *Issues) {
	if m == nil {
		return
	}
	for _, is := range m.issues {
		is.Path = joinPath(prefix, is.Path)
		*out = append(*out, is)
	}
	keys := make([]string, 0, len(m.children))
	for k := range m.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.children[k].flattenInto(joinPath(prefix, k), out)
	}
}

func joinPath(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// Error makes a non-empty IssueMap usable directly as an error value.
func (m *IssueMap) Error() string {
	return m.Flatten().Error()
}
