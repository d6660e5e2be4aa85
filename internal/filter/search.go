package filter

import (
	"strings"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// Cursor search ("search down" / "search up"). The cursor is the
// sequence of the most recent hit; a search scans forward or backward
// from it through either the view's matches (FilteredOnly) or the whole
// store. Both directions wrap around: searching down past the last
// match continues from the first record, and searching up past the
// first match continues from the last. A search with no hit anywhere
// reports false and resets the cursor.

// SearchDown finds the next record after the cursor matching spec,
// advances the cursor to it, and returns it. Wraps to the beginning
// when no match exists after the cursor.
func (v *View) SearchDown(spec model.SearchSpec) (model.Record, bool, error) {
	return v.search(spec, false)
}

// SearchUp finds the previous record before the cursor matching spec,
// moves the cursor to it, and returns it. Wraps to the end when no
// match exists before the cursor.
func (v *View) SearchUp(spec model.SearchSpec) (model.Record, bool, error) {
	return v.search(spec, true)
}

// ResetCursor restarts searching from the beginning (or, for SearchUp,
// the end).
func (v *View) ResetCursor() {
	v.mu.Lock()
	v.cursorSeq = 0
	v.mu.Unlock()
}

func (v *View) search(spec model.SearchSpec, backward bool) (model.Record, bool, error) {
	m, err := compileSearch(spec)
	if err != nil {
		return model.Record{}, false, err
	}
	if m == nil {
		return model.Record{}, false, nil
	}

	domain := v.searchDomain(spec)

	v.mu.Lock()
	cursor := v.cursorSeq
	v.mu.Unlock()

	hit, ok := v.scanDomain(domain, m, cursor, backward)
	if !ok {
		v.ResetCursor()
		return model.Record{}, false, nil
	}

	v.mu.Lock()
	v.cursorSeq = hit
	v.mu.Unlock()

	rec, _ := v.s.Get(hit)
	return rec, true, nil
}

// searchDomain selects the candidate sequences to scan: the view's
// matches when FilteredOnly, otherwise the whole store — narrowed by
// the token index when the term is a plain case-insensitive single
// token, which is the common case.
func (v *View) searchDomain(spec model.SearchSpec) []uint64 {
	if spec.FilteredOnly {
		return v.Sequences()
	}
	if tok, ok := singleToken(spec); ok {
		return v.s.TokenSeqs(func(indexed string) bool {
			return strings.Contains(indexed, tok)
		})
	}
	n := v.s.Len()
	domain := make([]uint64, n)
	for i := range domain {
		domain[i] = uint64(i) + 1
	}
	return domain
}

// singleToken reports whether the spec is a plain case-insensitive
// substring search whose term is one alphanumeric run, making the
// token index a sound candidate filter: such a term cannot span a
// token boundary.
func singleToken(spec model.SearchSpec) (string, bool) {
	if spec.Regex || spec.Wildcard || spec.CaseSensitive || spec.IncludeExtra {
		return "", false
	}
	toks := tokenizeTerm(spec.Term)
	if len(toks) != 1 || toks[0] != strings.ToLower(spec.Term) {
		return "", false
	}
	return toks[0], true
}

// tokenizeTerm mirrors the store's token segmentation: lowercased
// alphanumeric runs.
func tokenizeTerm(term string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range strings.ToLower(term) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// scanDomain walks the ascending candidate sequences from the cursor in
// the requested direction, wrapping once.
func (v *View) scanDomain(domain []uint64, m *textMatcher, cursor uint64, backward bool) (uint64, bool) {
	match := func(seq uint64) bool {
		rec, ok := v.s.Get(seq)
		return ok && m.matchRecord(&rec)
	}

	if backward {
		// Before the cursor, descending; cursor 0 means "from the end".
		for i := len(domain) - 1; i >= 0; i-- {
			if cursor != 0 && domain[i] >= cursor {
				continue
			}
			if match(domain[i]) {
				return domain[i], true
			}
		}
		// Wrap: from the end down to the cursor.
		for i := len(domain) - 1; i >= 0; i-- {
			if cursor != 0 && domain[i] < cursor {
				break
			}
			if match(domain[i]) {
				return domain[i], true
			}
		}
		return 0, false
	}

	for _, seq := range domain {
		if seq <= cursor {
			continue
		}
		if match(seq) {
			return seq, true
		}
	}
	// Wrap: from the beginning up to the cursor.
	for _, seq := range domain {
		if seq > cursor {
			break
		}
		if match(seq) {
			return seq, true
		}
	}
	return 0, false
}
