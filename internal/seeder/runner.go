package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/telhawk-systems/hawktail/internal/wire"
)

// Config controls a seeding run.
type Config struct {
	// Addr is the server address, host:port.
	Addr string
	// Count is the number of records to send per connection.
	Count int
	// Interval is the pause between records; zero sends as fast as
	// possible.
	Interval time.Duration
	// Connections is the number of concurrent client connections.
	Connections int
	// Format names the payload serialization (json or cbor). Non-JSON
	// formats are announced with a control frame before the first
	// record.
	Format string
	// Seed fixes the random source for reproducible runs; zero seeds
	// from the clock.
	Seed int64

	Logger *slog.Logger
}

// Runner streams generated records to a server.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("seeder: address is required")
	}
	if cfg.Count <= 0 {
		cfg.Count = 100
	}
	if cfg.Connections <= 0 {
		cfg.Connections = 1
	}
	if cfg.Format == "" {
		cfg.Format = wire.FormatJSON
	}
	if _, ok := wire.CodecByName(cfg.Format); !ok {
		return nil, fmt.Errorf("seeder: unknown format %q", cfg.Format)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}, nil
}

// Run opens the configured number of connections and streams Count
// records on each, honoring ctx cancellation between records. It
// returns the first connection error, after all connections finish.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("seeding",
		slog.String("addr", r.cfg.Addr),
		slog.Int("connections", r.cfg.Connections),
		slog.Int("count", r.cfg.Count),
		slog.String("format", r.cfg.Format))

	var wg sync.WaitGroup
	errs := make([]error, r.cfg.Connections)
	for i := 0; i < r.cfg.Connections; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.stream(ctx, i)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) stream(ctx context.Context, n int) error {
	gen := newGenerator(r.cfg.Seed + int64(n))
	codec, _ := wire.CodecByName(r.cfg.Format)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", r.cfg.Addr, err)
	}
	defer conn.Close()

	if r.cfg.Format != wire.FormatJSON {
		if err := wire.WriteControl(conn, "format", r.cfg.Format); err != nil {
			return err
		}
	}

	for sent := 0; sent < r.cfg.Count; sent++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wire.WriteEvent(conn, codec, gen.payload()); err != nil {
			return fmt.Errorf("send record %d: %w", sent+1, err)
		}
		if r.cfg.Interval > 0 {
			select {
			case <-time.After(r.cfg.Interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	r.logger.Info("connection done", slog.Int("connection", n+1), slog.Int("sent", r.cfg.Count))
	return nil
}
