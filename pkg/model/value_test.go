package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAnyKinds(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind ValueKind
	}{
		{"nil", nil, KindNil},
		{"bool", true, KindBool},
		{"int", 42, KindInt},
		{"int64", int64(-7), KindInt},
		{"float", 3.5, KindFloat},
		{"string", "hello", KindString},
		{"list", []any{1, "two"}, KindList},
		{"map", map[string]any{"a": 1}, KindMap},
		{"json number int", json.Number("17"), KindInt},
		{"json number float", json.Number("17.5"), KindFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, FromAny(tt.in).Kind())
		})
	}
}

func TestValueJSONRoundTripPreservesKinds(t *testing.T) {
	orig := Map(map[string]Value{
		"count":   Int(3),
		"ratio":   Float(1.0),
		"label":   String("x"),
		"flag":    Bool(false),
		"nothing": Nil(),
		"items":   List([]Value{Int(1), Float(2.5), String("three")}),
	})

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))

	assert.True(t, orig.Equal(back), "round-tripped value differs: %s vs %s", orig, back)

	// The whole float must come back as a float, not an int.
	m := back.MapVal()
	assert.Equal(t, KindFloat, m["ratio"].Kind())
	assert.Equal(t, KindInt, m["count"].Kind())
}

func TestValueString(t *testing.T) {
	v := Map(map[string]Value{
		"b": Int(2),
		"a": String("one"),
	})
	// Map keys render sorted so output is deterministic.
	assert.Equal(t, "{a=one, b=2}", v.String())
}

func TestValueEqualDistinguishesKinds(t *testing.T) {
	assert.False(t, Int(1).Equal(Float(1.0)))
	assert.False(t, String("1").Equal(Int(1)))
	assert.True(t, Float(1.0).Equal(Float(1.0)))
}
