// Package pattern compiles glob-style inclusion/exclusion patterns into
// matchers used by the scanner and plan builder.
//
// Pattern syntax follows doublestar semantics: `*` matches any run of
// characters except the path separator, `**` matches across separators.
// A pattern containing no separator is matched against the entry's base
// name, so "*.tmp" flags cache.tmp anywhere in the tree.
package pattern

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CompileError reports a malformed pattern. It is fatal and raised before
// any scanning begins; running with a broken matcher risks misclassifying
// user files.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Matcher is a single compiled pattern.
type Matcher struct {
	raw      string
	pattern  string
	baseOnly bool
	fold     bool
}

// Compile validates and compiles a single pattern. caseInsensitive enables
// case-folded matching for case-insensitive filesystems.
func Compile(p string, caseInsensitive bool) (*Matcher, error) {
	if strings.TrimSpace(p) == "" {
		return nil, &CompileError{Pattern: p, Err: fmt.Errorf("empty pattern")}
	}

	normalized := filepath.ToSlash(p)
	if !doublestar.ValidatePattern(normalized) {
		return nil, &CompileError{Pattern: p, Err: doublestar.ErrBadPattern}
	}

	m := &Matcher{
		raw:      p,
		pattern:  normalized,
		baseOnly: !strings.Contains(normalized, "/"),
		fold:     caseInsensitive,
	}
	if caseInsensitive {
		m.pattern = strings.ToLower(m.pattern)
	}
	return m, nil
}

// String returns the pattern as originally written.
func (m *Matcher) String() string {
	return m.raw
}

// Match reports whether the given slash-separated relative path matches.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if m.fold {
		rel = strings.ToLower(rel)
	}

	subject := rel
	if m.baseOnly {
		subject = path.Base(rel)
	}

	// Pattern validity was checked at compile time, so the error from
	// doublestar.Match can only be ErrBadPattern and never fires here.
	ok, _ := doublestar.Match(m.pattern, subject)
	return ok
}

// Set is an ordered collection of matchers.
type Set []*Matcher

// CompileAll compiles every pattern in order, failing fast on the first
// malformed one.
func CompileAll(patterns []string, caseInsensitive bool) (Set, error) {
	set := make(Set, 0, len(patterns))
	for _, p := range patterns {
		m, err := Compile(p, caseInsensitive)
		if err != nil {
			return nil, err
		}
		set = append(set, m)
	}
	return set, nil
}

// MatchAny reports whether any matcher in the set matches the path.
func (s Set) MatchAny(rel string) bool {
	for _, m := range s {
		if m.Match(rel) {
			return true
		}
	}
	return false
}
