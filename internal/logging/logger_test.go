package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewReturnsUsableLogger(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		l := New(slog.LevelInfo, format)
		assert.NotNil(t, l, format)
	}
}

func TestFieldHelpers(t *testing.T) {
	attr := ConnID("abc")
	assert.Equal(t, FieldConnID, attr.Key)
	assert.Equal(t, "abc", attr.Value.String())

	attr = Err(assert.AnError)
	assert.Equal(t, FieldError, attr.Key)
}
