package model

// SearchSpec describes a text search over records. The zero value means
// "no search".
type SearchSpec struct {
	// Term is the text to look for. Empty disables the search.
	Term string `json:"term"`

	// Regex interprets Term as a regular expression.
	Regex bool `json:"regex"`

	// Wildcard interprets Term as a glob-style pattern (* and ?).
	// Ignored when Regex is set.
	Wildcard bool `json:"wildcard"`

	// CaseSensitive disables the default case folding.
	CaseSensitive bool `json:"case_sensitive"`

	// IncludeExtra extends the search to the rendered form of the
	// record's extra fields. Message and exception text are always
	// searched.
	IncludeExtra bool `json:"include_extra"`

	// FilteredOnly restricts cursor searches ("search down" /
	// "search up") to records already matching the view's filter
	// instead of the whole store.
	FilteredOnly bool `json:"filtered_only"`
}

// Active reports whether the spec describes an actual search.
func (s SearchSpec) Active() bool { return s.Term != "" }

// Filter is a user-specified record predicate: a minimum severity, a
// set of allowed logger namespaces (each allowing its dot-delimited
// descendants), and an optional search term applied as part of the
// predicate. Evaluating a Filter against a store yields a View.
type Filter struct {
	// MinLevel excludes records with Level below it.
	MinLevel int `json:"min_level"`

	// Namespaces lists allowed logger namespaces. A record passes if
	// its logger name equals one of the entries or is a dot-delimited
	// descendant of one. Empty list allows all namespaces.
	Namespaces []string `json:"namespaces"`

	// Search, when active, restricts the view to records matching the
	// search term.
	Search SearchSpec `json:"search"`
}
