package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/hawktail/internal/store"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

// Search fixture:
//
//	seq 1: "timeout on connect"
//	seq 2: "all good"
//	seq 3: "read timeout"
//	seq 4: "shutting down"
//	seq 5: "write Timeout"
func searchStore() *store.Store {
	s := store.New("t")
	for _, msg := range []string{
		"timeout on connect",
		"all good",
		"read timeout",
		"shutting down",
		"write Timeout",
	} {
		s.Append(rec(model.LevelInfo, "app", msg))
	}
	return s
}

func TestSearchDownAdvancesAndWraps(t *testing.T) {
	v, err := NewView(searchStore(), model.Filter{})
	require.NoError(t, err)
	defer v.Close()

	spec := model.SearchSpec{Term: "timeout"}
	want := []uint64{1, 3, 5, 1} // wraps back to the first hit
	for i, wantSeq := range want {
		got, ok, err := v.SearchDown(spec)
		require.NoError(t, err)
		require.True(t, ok, "hit %d", i)
		assert.Equal(t, wantSeq, got.Sequence, "hit %d", i)
	}
}

func TestSearchUpStartsAtEndAndWraps(t *testing.T) {
	v, err := NewView(searchStore(), model.Filter{})
	require.NoError(t, err)
	defer v.Close()

	spec := model.SearchSpec{Term: "timeout"}
	want := []uint64{5, 3, 1, 5} // wraps back to the last hit
	for i, wantSeq := range want {
		got, ok, err := v.SearchUp(spec)
		require.NoError(t, err)
		require.True(t, ok, "hit %d", i)
		assert.Equal(t, wantSeq, got.Sequence, "hit %d", i)
	}
}

func TestSearchNoHitResetsCursor(t *testing.T) {
	v, err := NewView(searchStore(), model.Filter{})
	require.NoError(t, err)
	defer v.Close()

	// Position the cursor mid-store first.
	_, ok, err := v.SearchDown(model.SearchSpec{Term: "timeout"})
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = v.SearchDown(model.SearchSpec{Term: "no such text"})
	require.NoError(t, err)
	assert.False(t, ok)

	// The failed search reset the cursor, so the next one starts over.
	got, ok, err := v.SearchDown(model.SearchSpec{Term: "timeout"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.Sequence)
}

func TestSearchFilteredOnly(t *testing.T) {
	s := store.New("t")
	s.Append(rec(model.LevelDebug, "app", "timeout ignored by filter"))
	s.Append(rec(model.LevelError, "app", "timeout kept"))
	s.Append(rec(model.LevelError, "app", "other"))

	v, err := NewView(s, model.Filter{MinLevel: model.LevelError})
	require.NoError(t, err)
	defer v.Close()

	got, ok, err := v.SearchDown(model.SearchSpec{Term: "timeout", FilteredOnly: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.Sequence)

	// Wrapping stays inside the filtered set.
	got, ok, err = v.SearchDown(model.SearchSpec{Term: "timeout", FilteredOnly: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.Sequence)
}

func TestSearchWholeStoreIgnoresFilter(t *testing.T) {
	s := store.New("t")
	s.Append(rec(model.LevelDebug, "app", "timeout below threshold"))
	s.Append(rec(model.LevelError, "app", "unrelated"))

	v, err := NewView(s, model.Filter{MinLevel: model.LevelError})
	require.NoError(t, err)
	defer v.Close()
	require.Equal(t, []uint64{2}, v.Sequences())

	got, ok, err := v.SearchDown(model.SearchSpec{Term: "timeout"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.Sequence)
}

func TestSearchEmptyTermIsNoop(t *testing.T) {
	v, err := NewView(searchStore(), model.Filter{})
	require.NoError(t, err)
	defer v.Close()

	_, ok, err := v.SearchDown(model.SearchSpec{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchBadRegex(t *testing.T) {
	v, err := NewView(searchStore(), model.Filter{})
	require.NoError(t, err)
	defer v.Close()

	_, _, err = v.SearchDown(model.SearchSpec{Term: "(", Regex: true})
	require.Error(t, err)
}

func TestSearchCaseSensitiveScansWithoutIndex(t *testing.T) {
	v, err := NewView(searchStore(), model.Filter{})
	require.NoError(t, err)
	defer v.Close()

	// Only seq 5 has the capitalized spelling; case-sensitive search
	// bypasses the lowercased token index.
	got, ok, err := v.SearchDown(model.SearchSpec{Term: "Timeout", CaseSensitive: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(5), got.Sequence)
}

func TestSingleTokenEligibility(t *testing.T) {
	tests := []struct {
		name string
		spec model.SearchSpec
		ok   bool
	}{
		{"plain token", model.SearchSpec{Term: "timeout"}, true},
		{"mixed case folds", model.SearchSpec{Term: "TimeOut"}, true},
		{"two words", model.SearchSpec{Term: "read timeout"}, false},
		{"punctuation", model.SearchSpec{Term: "a-b"}, false},
		{"case sensitive", model.SearchSpec{Term: "timeout", CaseSensitive: true}, false},
		{"regex", model.SearchSpec{Term: "timeout", Regex: true}, false},
		{"include extra", model.SearchSpec{Term: "timeout", IncludeExtra: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := singleToken(tt.spec)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
