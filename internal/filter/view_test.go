package filter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/hawktail/internal/store"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

func rec(level int, logger, message string) model.Record {
	return model.Record{
		Timestamp:  time.Now(),
		Level:      level,
		LoggerName: logger,
		Message:    message,
	}
}

// Builds the store used by most view tests:
//
//	seq 1: DEBUG   app.db       "connection opened"
//	seq 2: WARNING app.ui       "slow paint"
//	seq 3: ERROR   app.db.pool  "pool exhausted"
//	seq 4: WARNING app.db       "retrying query"
//	seq 5: INFO    svc.auth     "token issued"
func testStore() *store.Store {
	s := store.New("t")
	s.Append(rec(model.LevelDebug, "app.db", "connection opened"))
	s.Append(rec(model.LevelWarning, "app.ui", "slow paint"))
	s.Append(rec(model.LevelError, "app.db.pool", "pool exhausted"))
	s.Append(rec(model.LevelWarning, "app.db", "retrying query"))
	s.Append(rec(model.LevelInfo, "svc.auth", "token issued"))
	return s
}

func TestViewMinLevelAndNamespace(t *testing.T) {
	s := testStore()
	v, err := NewView(s, model.Filter{
		MinLevel:   model.LevelWarning,
		Namespaces: []string{"app.db"},
	})
	require.NoError(t, err)
	defer v.Close()

	// Only warnings and above under app.db (including descendants).
	assert.Equal(t, []uint64{3, 4}, v.Sequences())
}

func TestViewUpdatesIncrementally(t *testing.T) {
	s := testStore()
	v, err := NewView(s, model.Filter{MinLevel: model.LevelError})
	require.NoError(t, err)
	defer v.Close()
	assert.Equal(t, []uint64{3}, v.Sequences())

	s.Append(rec(model.LevelCritical, "app", "on fire"))
	s.Append(rec(model.LevelDebug, "app", "noise"))
	assert.Equal(t, []uint64{3, 6}, v.Sequences())
}

func TestIncrementalAgreesWithRescan(t *testing.T) {
	s := store.New("t")
	f := model.Filter{
		MinLevel:   model.LevelInfo,
		Namespaces: []string{"app"},
		Search:     model.SearchSpec{Term: "timeout"},
	}
	live, err := NewView(s, f)
	require.NoError(t, err)
	defer live.Close()

	loggers := []string{"app", "app.db", "svc", "app.ui.panel"}
	messages := []string{"timeout waiting", "ok", "TIMEOUT hard", "nothing"}
	levels := []int{model.LevelDebug, model.LevelInfo, model.LevelWarning}
	for i := 0; i < 60; i++ {
		s.Append(rec(levels[i%3], loggers[i%4], fmt.Sprintf("%s %d", messages[i%4], i)))
	}

	// A view created after the fact re-scans from scratch; both orders
	// of evaluation must yield the same result.
	fresh, err := NewView(s, f)
	require.NoError(t, err)
	defer fresh.Close()
	assert.Equal(t, fresh.Sequences(), live.Sequences())

	// And both agree with the pure predicate.
	var manual []uint64
	for seq := uint64(1); seq <= s.Len(); seq++ {
		r, _ := s.Get(seq)
		ok, err := Matches(&r, f)
		require.NoError(t, err)
		if ok {
			manual = append(manual, seq)
		}
	}
	assert.Equal(t, manual, live.Sequences())
}

func TestSetFilterRescans(t *testing.T) {
	s := testStore()
	v, err := NewView(s, model.Filter{MinLevel: model.LevelError})
	require.NoError(t, err)
	defer v.Close()
	assert.Equal(t, []uint64{3}, v.Sequences())

	// Relaxing the filter brings back records the old view rejected.
	require.NoError(t, v.SetFilter(model.Filter{MinLevel: model.LevelWarning}))
	assert.Equal(t, []uint64{2, 3, 4}, v.Sequences())
}

func TestSetFilterInvalidKeepsOldView(t *testing.T) {
	s := testStore()
	v, err := NewView(s, model.Filter{MinLevel: model.LevelWarning})
	require.NoError(t, err)
	defer v.Close()
	before := v.Sequences()

	err = v.SetFilter(model.Filter{
		Search: model.SearchSpec{Term: "([", Regex: true},
	})
	require.Error(t, err)
	var defErr *DefinitionError
	assert.True(t, errors.As(err, &defErr))
	assert.Equal(t, before, v.Sequences())
	assert.Equal(t, model.LevelWarning, v.Filter().MinLevel)
}

func TestNewViewInvalidFilter(t *testing.T) {
	s := testStore()
	_, err := NewView(s, model.Filter{
		Search: model.SearchSpec{Term: "(", Regex: true},
	})
	require.Error(t, err)
	var defErr *DefinitionError
	assert.True(t, errors.As(err, &defErr))
}

func TestMatchesSearchModes(t *testing.T) {
	exc := "Traceback: DB timeout"
	r := model.Record{
		Level:         model.LevelError,
		LoggerName:    "app.db",
		Message:       "Request Failed",
		ExceptionText: &exc,
		Extra:         map[string]model.Value{"request_id": model.String("abc-123")},
	}

	tests := []struct {
		name string
		spec model.SearchSpec
		want bool
	}{
		{"substring folds case", model.SearchSpec{Term: "request failed"}, true},
		{"case sensitive miss", model.SearchSpec{Term: "request failed", CaseSensitive: true}, false},
		{"matches exception text", model.SearchSpec{Term: "db timeout"}, true},
		{"extra ignored by default", model.SearchSpec{Term: "abc-123"}, false},
		{"extra searched on request", model.SearchSpec{Term: "abc-123", IncludeExtra: true}, true},
		{"regex", model.SearchSpec{Term: "fail(ed|ing)", Regex: true}, true},
		{"wildcard anchors whole text", model.SearchSpec{Term: "request*", Wildcard: true}, true},
		{"wildcard miss", model.SearchSpec{Term: "request", Wildcard: true}, false},
		{"empty term matches", model.SearchSpec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(&r, model.Filter{Search: tt.spec})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewCloseDetaches(t *testing.T) {
	s := testStore()
	v, err := NewView(s, model.Filter{})
	require.NoError(t, err)
	require.Equal(t, 5, v.Len())

	v.Close()
	s.Append(rec(model.LevelInfo, "app", "after close"))
	assert.Equal(t, 5, v.Len())
}
