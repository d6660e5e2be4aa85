// Package seeder generates fake log payloads and streams them to a
// running server, for load tests and demos.
package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

var namespaceParts = [][]string{
	{"api", "web", "worker", "db", "cache", "auth"},
	{"request", "session", "pool", "query", "token", "job"},
	{"read", "write", "retry", "refresh"},
}

// generator produces fake log payloads in client wire shape: the field
// names a real logging client would send, before normalization.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *generator) namespace() string {
	depth := 1 + g.rng.Intn(len(namespaceParts))
	name := namespaceParts[0][g.rng.Intn(len(namespaceParts[0]))]
	for i := 1; i < depth; i++ {
		name += "." + namespaceParts[i][g.rng.Intn(len(namespaceParts[i]))]
	}
	return name
}

func (g *generator) level() int {
	// Skewed towards the informative levels, like real traffic.
	switch n := g.rng.Intn(100); {
	case n < 35:
		return model.LevelDebug
	case n < 75:
		return model.LevelInfo
	case n < 88:
		return model.LevelWarning
	case n < 97:
		return model.LevelError
	default:
		return model.LevelCritical
	}
}

// payload builds one wire payload map.
func (g *generator) payload() map[string]any {
	level := g.level()
	p := map[string]any{
		"name":      g.namespace(),
		"levelno":   level,
		"levelname": model.LevelName(level),
		"msg":       gofakeit.HackerPhrase(),
		"created":   float64(time.Now().UnixNano()) / 1e9,
	}
	if g.rng.Intn(3) == 0 {
		p["user"] = gofakeit.Username()
		p["request_id"] = gofakeit.UUID()
	}
	if g.rng.Intn(4) == 0 {
		p["duration_ms"] = g.rng.Intn(5000)
	}
	if level >= model.LevelCritical {
		p["exc_text"] = fmt.Sprintf("Traceback (most recent call last):\n  %s: %s",
			gofakeit.ErrorDatabase(), gofakeit.HackerPhrase())
	}
	return p
}
