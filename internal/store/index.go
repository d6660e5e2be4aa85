package store

import (
	"sort"
	"strings"
	"unicode"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// namespaceIndex maps logger namespaces to the sequences of records
// logged under them. Registering "a.b.c" also registers the ancestor
// paths "a" and "a.b", and a record under "a.b.c" is listed under all
// three, so prefix queries ("namespace and its descendants") are a
// single lookup. Lists stay ordered because appends arrive in sequence
// order under the store lock.
type namespaceIndex struct {
	exact  map[string][]uint64
	prefix map[string][]uint64
	known  map[string]bool
}

func newNamespaceIndex() *namespaceIndex {
	return &namespaceIndex{
		exact:  make(map[string][]uint64),
		prefix: make(map[string][]uint64),
		known:  make(map[string]bool),
	}
}

func (n *namespaceIndex) add(name string, seq uint64) {
	n.exact[name] = append(n.exact[name], seq)
	if name == "" {
		return
	}
	for end := len(name); end > 0; end = strings.LastIndexByte(name[:end], '.') {
		path := name[:end]
		n.prefix[path] = append(n.prefix[path], seq)
		n.known[path] = true
	}
}

// paths returns all registered namespaces in sorted order.
func (n *namespaceIndex) paths() []string {
	out := make([]string, 0, len(n.known))
	for path := range n.known {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// tokenIndex maps lowercased alphanumeric runs of record text (message
// and exception) to the sequences containing them. It accelerates
// case-insensitive token searches; substring and regex searches fall
// back to scanning.
type tokenIndex struct {
	postings map[string][]uint64
}

func newTokenIndex() *tokenIndex {
	return &tokenIndex{postings: make(map[string][]uint64)}
}

func (t *tokenIndex) add(rec *model.Record, seq uint64) {
	seen := make(map[string]bool)
	index := func(text string) {
		for _, tok := range tokenize(text) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			t.postings[tok] = append(t.postings[tok], seq)
		}
	}
	index(rec.Message)
	if rec.ExceptionText != nil {
		index(*rec.ExceptionText)
	}
}

// tokenize splits text into lowercased alphanumeric runs.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Namespaces returns every registered logger namespace, including
// intermediate paths, in sorted order. This feeds the consumer's
// namespace tree.
func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ns.paths()
}

// NamespaceSeqs returns the sequences of records whose logger name
// equals path or is a dot-delimited descendant of it, ascending. The
// empty path means "all records" and returns nil to signal that.
func (s *Store) NamespaceSeqs(path string) []uint64 {
	if path == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uint64(nil), s.ns.prefix[path]...)
}

// LevelSeqs returns the sequences of records at exactly the given
// level, ascending.
func (s *Store) LevelSeqs(level int) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uint64(nil), s.levels[level]...)
}

// LevelCounts returns the number of records per level.
func (s *Store) LevelCounts() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]int, len(s.levels))
	for level, seqs := range s.levels {
		out[level] = len(seqs)
	}
	return out
}

// TokenSeqs returns the ascending, deduplicated sequences of records
// containing at least one indexed token accepted by match.
func (s *Store) TokenSeqs(match func(token string) bool) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lists [][]uint64
	for tok, seqs := range s.tokens.postings {
		if match(tok) {
			lists = append(lists, seqs)
		}
	}
	return mergeSeqLists(lists)
}

// mergeSeqLists merges ascending sequence lists into one ascending,
// deduplicated list.
func mergeSeqLists(lists [][]uint64) []uint64 {
	switch len(lists) {
	case 0:
		return nil
	case 1:
		return append([]uint64(nil), lists[0]...)
	}
	var total int
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]uint64, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	out := merged[:0]
	var last uint64
	for _, seq := range merged {
		if seq != last {
			out = append(out, seq)
			last = seq
		}
	}
	return out
}
