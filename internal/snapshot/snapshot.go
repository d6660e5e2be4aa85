// Package snapshot serializes record stores to a portable JSON document
// so sessions can be saved and reloaded. The document carries a version
// header and the full ordered record sequence; indexes are rebuilt on
// restore by replaying every append.
package snapshot

import (
	"fmt"
	"time"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// FormatVersion is the snapshot document version this build writes.
// Loading accepts any version up to this one; unknown header fields
// from older writers are ignored, which keeps old files readable and
// leaves room for additive changes.
const FormatVersion = 1

// FormatError reports an unreadable or unsupported snapshot document.
// Loading fails as a whole; no live store is touched.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot format error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("snapshot format error: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(err error, format string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// document is the top-level snapshot shape. Sources carries the full
// per-source closed map so sessions that never produced a record still
// survive a round-trip; source_count and all_sources_closed are kept
// alongside it as a summary for older readers.
type document struct {
	Version          int             `json:"version"`
	SourceCount      int             `json:"source_count"`
	AllSourcesClosed bool            `json:"all_sources_closed"`
	Sources          map[string]bool `json:"sources"`
	Records          []recordJSON    `json:"records"`
}

// recordJSON is the on-disk record shape. Field names are explicit and
// stable; exception_text is null when absent, and extra distinguishes
// null (absent) from {} (present but empty).
type recordJSON struct {
	Sequence           uint64                 `json:"sequence"`
	Timestamp          string                 `json:"timestamp"`
	Level              int                    `json:"level"`
	LevelName          string                 `json:"level_name"`
	LoggerName         string                 `json:"logger_name"`
	Message            string                 `json:"message"`
	ExceptionText      *string                `json:"exception_text"`
	Extra              map[string]model.Value `json:"extra"`
	SourceConnectionID string                 `json:"source_connection_id"`
}

func toJSON(rec *model.Record) recordJSON {
	return recordJSON{
		Sequence:           rec.Sequence,
		Timestamp:          rec.Timestamp.Format(time.RFC3339Nano),
		Level:              rec.Level,
		LevelName:          rec.LevelName,
		LoggerName:         rec.LoggerName,
		Message:            rec.Message,
		ExceptionText:      rec.ExceptionText,
		Extra:              rec.Extra,
		SourceConnectionID: rec.SourceConnectionID,
	}
}

func (r *recordJSON) toRecord() (model.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return model.Record{}, formatErrorf(err, "record %d has a bad timestamp", r.Sequence)
	}
	return model.Record{
		Sequence:           r.Sequence,
		Timestamp:          ts,
		Level:              r.Level,
		LevelName:          r.LevelName,
		LoggerName:         r.LoggerName,
		Message:            r.Message,
		ExceptionText:      r.ExceptionText,
		Extra:              r.Extra,
		SourceConnectionID: r.SourceConnectionID,
	}, nil
}
