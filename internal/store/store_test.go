package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestAppendAssignsGaplessSequences(t *testing.T) {
	s := New("t")
	for i := 0; i < 5; i++ {
		seq := s.Append(rec(model.LevelInfo, "app", fmt.Sprintf("m%d", i)))
		assert.Equal(t, uint64(i)+1, seq)
	}
	assert.Equal(t, uint64(5), s.Len())
	s.CheckIntegrity()
}

func TestConcurrentAppends(t *testing.T) {
	s := New("t")
	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Append(rec(model.LevelInfo, "app", fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, uint64(writers*perWriter), s.Len())
	s.CheckIntegrity()

	// Every sequence resolves to exactly the record stored at it.
	for seq := uint64(1); seq <= s.Len(); seq++ {
		r, ok := s.Get(seq)
		require.True(t, ok)
		assert.Equal(t, seq, r.Sequence)
	}
}

func TestReadRangeClipping(t *testing.T) {
	s := New("t")
	for i := 0; i < 10; i++ {
		s.Append(rec(model.LevelInfo, "app", fmt.Sprintf("m%d", i)))
	}

	tests := []struct {
		name       string
		start, end uint64
		wantFirst  uint64
		wantLen    int
	}{
		{"middle", 3, 6, 3, 3},
		{"start clipped", 0, 3, 1, 2},
		{"end clipped", 8, 100, 8, 3},
		{"empty", 5, 5, 0, 0},
		{"inverted", 6, 2, 0, 0},
		{"beyond end", 11, 20, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ReadRange(tt.start, tt.end)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, got[0].Sequence)
			}
		})
	}
}

func TestGetOutOfRange(t *testing.T) {
	s := New("t")
	s.Append(rec(model.LevelInfo, "app", "only"))

	_, ok := s.Get(0)
	assert.False(t, ok)
	_, ok = s.Get(2)
	assert.False(t, ok)
}

func TestLevelIndex(t *testing.T) {
	s := New("t")
	s.Append(rec(model.LevelDebug, "app", "a"))
	s.Append(rec(model.LevelError, "app", "b"))
	s.Append(rec(model.LevelDebug, "app", "c"))

	assert.Equal(t, []uint64{1, 3}, s.LevelSeqs(model.LevelDebug))
	assert.Equal(t, []uint64{2}, s.LevelSeqs(model.LevelError))
	assert.Empty(t, s.LevelSeqs(model.LevelCritical))
	assert.Equal(t, map[int]int{model.LevelDebug: 2, model.LevelError: 1}, s.LevelCounts())
}

func TestNamespaceIndex(t *testing.T) {
	s := New("t")
	s.Append(rec(model.LevelInfo, "app.db", "a"))
	s.Append(rec(model.LevelInfo, "app.ui", "b"))
	s.Append(rec(model.LevelInfo, "app.db.pool", "c"))
	s.Append(rec(model.LevelInfo, "", "root"))

	// Ancestor paths are registered even when no record names them.
	assert.Equal(t, []string{"app", "app.db", "app.db.pool", "app.ui"}, s.Namespaces())

	assert.Equal(t, []uint64{1, 3}, s.NamespaceSeqs("app.db"))
	assert.Equal(t, []uint64{3}, s.NamespaceSeqs("app.db.pool"))
	assert.Equal(t, []uint64{1, 2, 3}, s.NamespaceSeqs("app"))
	assert.Empty(t, s.NamespaceSeqs("app.dbx"))
	assert.Nil(t, s.NamespaceSeqs(""))
}

func TestTokenIndex(t *testing.T) {
	s := New("t")
	s.Append(rec(model.LevelInfo, "app", "Connection Timeout after 30s"))
	exc := "worker crashed: timeout"
	r := rec(model.LevelError, "app", "Worker died")
	r.ExceptionText = &exc
	s.Append(r)
	s.Append(rec(model.LevelInfo, "app", "all good"))

	eq := func(want string) func(string) bool {
		return func(tok string) bool { return tok == want }
	}
	assert.Equal(t, []uint64{1, 2}, s.TokenSeqs(eq("timeout")))
	assert.Equal(t, []uint64{2}, s.TokenSeqs(eq("crashed")))
	assert.Equal(t, []uint64{1}, s.TokenSeqs(eq("30s")))
	assert.Empty(t, s.TokenSeqs(eq("absent")))
}

func TestSourceTracking(t *testing.T) {
	s := New("t")
	assert.False(t, s.AllSourcesClosed(), "no sources yet")

	s.TrackSource("a")
	s.TrackSource("b")
	assert.Equal(t, 2, s.SourceCount())

	s.MarkSourceClosed("a")
	assert.False(t, s.AllSourcesClosed())
	s.MarkSourceClosed("b")
	assert.True(t, s.AllSourcesClosed())
}

func TestAppendAutoTracksSource(t *testing.T) {
	s := New("t")
	r := rec(model.LevelInfo, "app", "m")
	r.SourceConnectionID = "conn-a"
	s.Append(r)

	assert.Equal(t, map[string]bool{"conn-a": false}, s.Sources())
}

func TestSubscriptionCoalesces(t *testing.T) {
	s := New("t")
	sub := s.Subscribe()
	defer sub.Close()

	for i := 0; i < 4; i++ {
		s.Append(rec(model.LevelInfo, "app", fmt.Sprintf("m%d", i)))
	}

	select {
	case <-sub.Ready():
	case <-time.After(time.Second):
		t.Fatal("no ready signal")
	}

	ev, ok := sub.Take()
	require.True(t, ok)
	assert.Equal(t, Range{Start: 1, End: 5}, ev.Appended)
	assert.False(t, ev.AllSourcesClosed)

	// Nothing pending after the take.
	_, ok = sub.Take()
	assert.False(t, ok)

	// The appended range restarts after a take.
	s.Append(rec(model.LevelInfo, "app", "m4"))
	ev, ok = sub.Take()
	require.True(t, ok)
	assert.Equal(t, Range{Start: 5, End: 6}, ev.Appended)
}

func TestSubscriptionReportsAllSourcesClosed(t *testing.T) {
	s := New("t")
	s.TrackSource("a")
	sub := s.Subscribe()
	defer sub.Close()

	s.MarkSourceClosed("a")

	select {
	case <-sub.Ready():
	case <-time.After(time.Second):
		t.Fatal("no ready signal")
	}
	ev, ok := sub.Take()
	require.True(t, ok)
	assert.True(t, ev.AllSourcesClosed)
	assert.True(t, ev.Appended.Empty())

	// The closed flag is sticky on later events.
	s.Append(rec(model.LevelInfo, "app", "late"))
	ev, ok = sub.Take()
	require.True(t, ok)
	assert.True(t, ev.AllSourcesClosed)
}

func TestSubscriptionNeverBlocksAppends(t *testing.T) {
	s := New("t")
	sub := s.Subscribe()
	defer sub.Close()

	// Nobody drains sub; appends must still complete promptly.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Append(rec(model.LevelInfo, "app", "m"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("appends blocked by an undrained subscription")
	}
}
