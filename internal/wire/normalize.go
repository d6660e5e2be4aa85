package wire

import (
	"fmt"
	"time"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// Payload field aliases. Different client libraries name the standard
// fields differently; decoding accepts all spellings and everything
// else lands in the extra mapping.
var standardFields = map[string]bool{
	"message": true, "msg": true,
	"level": true, "levelno": true, "levelname": true,
	"created": true, "time": true, "_created": true,
	"name": true, "logger_name": true,
	"exc_text": true, "exception_text": true,
}

// recordFromFields builds a Record from a decoded payload map,
// applying the documented defaults: level 0, empty message, no
// exception text, no extra mapping. The timestamp falls back to the
// current time when the payload reports none.
func recordFromFields(fields map[string]any) *model.Record {
	rec := &model.Record{}

	if v, ok := firstOf(fields, "message", "msg"); ok && v != nil {
		rec.Message = stringify(v)
	}

	rec.Level, rec.LevelName = normalizeLevel(fields)
	rec.Timestamp = normalizeTime(fields)

	if v, ok := firstOf(fields, "name", "logger_name"); ok && v != nil {
		rec.LoggerName = stringify(v)
	}

	if v, ok := firstOf(fields, "exc_text", "exception_text"); ok && v != nil {
		exc := stringify(v)
		rec.ExceptionText = &exc
	}

	for k, v := range fields {
		if standardFields[k] {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]model.Value)
		}
		rec.Extra[k] = model.FromAny(v)
	}

	return rec
}

// normalizeLevel resolves the numeric severity and display name from
// the level aliases: a numeric "level"/"levelno" wins; a string
// "levelname"/"level" is mapped through the default name table.
func normalizeLevel(fields map[string]any) (int, string) {
	level := model.NoLevel
	name := ""
	haveNumber := false

	if v, ok := firstOf(fields, "levelno", "level"); ok {
		if n, isNum := toInt(v); isNum {
			level = n
			haveNumber = true
		}
	}
	if v, ok := firstOf(fields, "levelname", "level"); ok {
		if s, isStr := v.(string); isStr && s != "" {
			name = s
			if !haveNumber {
				if n, ok := model.LevelByName(s); ok {
					level = n
				}
			}
		}
	}
	if name == "" && haveNumber {
		name = model.LevelName(level)
	}
	return level, name
}

// normalizeTime resolves the producer timestamp from "created"/"time"/
// "_created": epoch seconds (integer or fractional) or an RFC 3339
// string. Anything else falls back to now.
func normalizeTime(fields map[string]any) time.Time {
	v, ok := firstOf(fields, "created", "time", "_created")
	if !ok || v == nil {
		return time.Now()
	}
	switch t := v.(type) {
	case float64:
		return epochToTime(t)
	case float32:
		return epochToTime(float64(t))
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case uint64:
		return time.Unix(int64(t), 0)
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Now()
}

func epochToTime(seconds float64) time.Time {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func firstOf(fields map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		return int(t), true
	case float32:
		return int(t), true
	default:
		return 0, false
	}
}
