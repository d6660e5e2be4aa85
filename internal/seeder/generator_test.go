package seeder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/hawktail/internal/wire"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

func TestGeneratedPayloadsNormalize(t *testing.T) {
	gen := newGenerator(42)
	codec, _ := wire.CodecByName(wire.FormatJSON)

	sawCritical := false
	for i := 0; i < 500; i++ {
		payload, err := codec.Encode(gen.payload())
		require.NoError(t, err)

		rec, err := codec.Decode(payload)
		require.NoError(t, err)

		assert.NotEmpty(t, rec.Message)
		assert.NotEmpty(t, rec.LoggerName)
		assert.NotEqual(t, model.NoLevel, rec.Level)
		assert.Equal(t, model.LevelName(rec.Level), rec.LevelName)
		assert.False(t, rec.Timestamp.IsZero())

		if rec.Level == model.LevelCritical {
			sawCritical = true
			require.NotNil(t, rec.ExceptionText, "critical records carry a traceback")
		}
	}
	assert.True(t, sawCritical, "500 records should include a critical one")
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(Config{})
	assert.Error(t, err, "address required")

	_, err = NewRunner(Config{Addr: "x:1", Format: "xml"})
	assert.Error(t, err, "unknown format")

	r, err := NewRunner(Config{Addr: "x:1"})
	require.NoError(t, err)
	assert.Equal(t, wire.FormatJSON, r.cfg.Format)
	assert.Equal(t, 1, r.cfg.Connections)
	assert.Equal(t, 100, r.cfg.Count)
}
