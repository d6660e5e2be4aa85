// Package filter evaluates record filters against stores, maintaining
// live views: ordered sequences of matching record positions that
// update incrementally as records are appended.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// DefinitionError reports an invalid filter definition, e.g. a search
// term that fails to compile as a regular expression. A filter change
// rejected with a DefinitionError leaves the previous view intact.
type DefinitionError struct {
	Reason string
	Err    error
}

func (e *DefinitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid filter: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid filter: %s", e.Reason)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// textMatcher is a compiled SearchSpec.
type textMatcher struct {
	spec model.SearchSpec
	re   *regexp.Regexp // nil for plain substring search
	term string         // folded term for substring search
}

func compileSearch(spec model.SearchSpec) (*textMatcher, error) {
	if !spec.Active() {
		return nil, nil
	}
	m := &textMatcher{spec: spec}
	switch {
	case spec.Regex:
		pattern := spec.Term
		if !spec.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &DefinitionError{Reason: "bad search regexp", Err: err}
		}
		m.re = re
	case spec.Wildcard:
		re, err := regexp.Compile(wildcardToRegexp(spec.Term, spec.CaseSensitive))
		if err != nil {
			return nil, &DefinitionError{Reason: "bad search wildcard", Err: err}
		}
		m.re = re
	default:
		m.term = spec.Term
		if !spec.CaseSensitive {
			m.term = strings.ToLower(m.term)
		}
	}
	return m, nil
}

// wildcardToRegexp translates a glob-style pattern (* and ?) into an
// anchored regular expression.
func wildcardToRegexp(pattern string, caseSensitive bool) string {
	var b strings.Builder
	if !caseSensitive {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// matchText applies the compiled search to one text field.
func (m *textMatcher) matchText(text string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	if !m.spec.CaseSensitive {
		text = strings.ToLower(text)
	}
	return strings.Contains(text, m.term)
}

// matchRecord applies the compiled search to a record: its message,
// its exception text when present, and, when IncludeExtra is set, the
// rendered form of its extra fields.
func (m *textMatcher) matchRecord(rec *model.Record) bool {
	if m.matchText(rec.Message) {
		return true
	}
	if rec.ExceptionText != nil && m.matchText(*rec.ExceptionText) {
		return true
	}
	if m.spec.IncludeExtra && len(rec.Extra) > 0 {
		return m.matchText(renderExtra(rec.Extra))
	}
	return false
}

// renderExtra serializes extra fields to their searchable text form,
// "key=value" per field with sorted keys.
func renderExtra(extra map[string]model.Value) string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + extra[k].String()
	}
	return strings.Join(parts, " ")
}

// matcher is a compiled Filter.
type matcher struct {
	filter model.Filter
	search *textMatcher // nil when no search term is part of the filter
}

func compile(f model.Filter) (*matcher, error) {
	search, err := compileSearch(f.Search)
	if err != nil {
		return nil, err
	}
	return &matcher{filter: f, search: search}, nil
}

// matches is the filter predicate: level threshold, namespace
// membership (equal or dot-delimited descendant, empty set allows
// all), and the optional search term.
func (m *matcher) matches(rec *model.Record) bool {
	if rec.Level < m.filter.MinLevel {
		return false
	}
	if len(m.filter.Namespaces) > 0 {
		allowed := false
		for _, ns := range m.filter.Namespaces {
			if rec.IsDescendantOf(ns) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	if m.search != nil && !m.search.matchRecord(rec) {
		return false
	}
	return true
}

// Matches reports whether rec passes the filter. It is a pure function
// of the record and filter fields; the incremental view machinery and
// any full re-scan agree with it by construction.
func Matches(rec *model.Record, f model.Filter) (bool, error) {
	m, err := compile(f)
	if err != nil {
		return false, err
	}
	return m.matches(rec), nil
}
