// Package model defines the data types shared between the hawktail core
// and its consumers: log records, extra-field values, filters and the
// level name table. Frontends and client SDKs import this package only;
// the ingestion and storage machinery lives under internal/.
package model

import "time"

// Record is one immutable log event. Once a record has been appended to
// a store its Sequence is assigned and the record never changes.
type Record struct {
	// Sequence is assigned at append time, strictly increasing and
	// gapless within one store. Zero means "not yet appended".
	Sequence uint64 `json:"sequence"`

	// Timestamp is the producer-reported event time. It is display
	// data only; ordering is defined by Sequence.
	Timestamp time.Time `json:"timestamp"`

	// Level is the numeric severity on the producer's scale.
	// Higher means more severe.
	Level int `json:"level"`

	// LevelName is the producer-reported level name, if any
	// ("INFO", "ERROR", ...). Purely presentational.
	LevelName string `json:"level_name,omitempty"`

	// LoggerName is the dot-delimited logger namespace ("app.db.pool").
	// Empty string is the root namespace.
	LoggerName string `json:"logger_name"`

	// Message is the rendered event text.
	Message string `json:"message"`

	// ExceptionText is the formatted traceback or exception, when the
	// producer sent one. Nil means absent; distinct from empty.
	ExceptionText *string `json:"exception_text"`

	// Extra carries structured fields beyond the standard set. Nil
	// means no extra fields were sent; a non-nil empty map means the
	// producer sent an empty mapping.
	Extra map[string]Value `json:"extra"`

	// SourceConnectionID identifies the connection session that
	// produced the record. Empty for synthesized records.
	SourceConnectionID string `json:"source_connection_id"`
}

// HasException reports whether the record carries exception text.
func (r *Record) HasException() bool {
	return r.ExceptionText != nil
}

// Exception returns the exception text, or "" when absent.
func (r *Record) Exception() string {
	if r.ExceptionText == nil {
		return ""
	}
	return *r.ExceptionText
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	out := *r
	if r.ExceptionText != nil {
		exc := *r.ExceptionText
		out.ExceptionText = &exc
	}
	if r.Extra != nil {
		out.Extra = make(map[string]Value, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Equal reports whether two records carry identical data, including the
// absent-vs-empty distinction on ExceptionText and Extra.
func (r *Record) Equal(other *Record) bool {
	if r.Sequence != other.Sequence ||
		!r.Timestamp.Equal(other.Timestamp) ||
		r.Level != other.Level ||
		r.LevelName != other.LevelName ||
		r.LoggerName != other.LoggerName ||
		r.Message != other.Message ||
		r.SourceConnectionID != other.SourceConnectionID {
		return false
	}
	if (r.ExceptionText == nil) != (other.ExceptionText == nil) {
		return false
	}
	if r.ExceptionText != nil && *r.ExceptionText != *other.ExceptionText {
		return false
	}
	if (r.Extra == nil) != (other.Extra == nil) {
		return false
	}
	if len(r.Extra) != len(other.Extra) {
		return false
	}
	for k, v := range r.Extra {
		ov, ok := other.Extra[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// IsDescendantOf reports whether the record's logger name equals path or
// is a dot-delimited descendant of it. The empty path matches everything.
func (r *Record) IsDescendantOf(path string) bool {
	if path == "" {
		return true
	}
	if r.LoggerName == path {
		return true
	}
	return len(r.LoggerName) > len(path) &&
		r.LoggerName[:len(path)] == path &&
		r.LoggerName[len(path)] == '.'
}
