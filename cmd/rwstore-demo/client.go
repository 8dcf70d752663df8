package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

// Report counts what the clients did.
type Report struct {
	Reads    int64
	Writes   int64
	Failures int64
	Elapsed  time.Duration
}

type client struct {
	store      *store.Store
	keys       []string
	rng        *rand.Rand
	logger     *slog.Logger
	operations int
	writeRatio float64
	think      time.Duration

	reads, writes, failures *atomic.Int64
}

// seedStore creates every scenario record.
func seedStore(s *store.Store, sc Scenario) error {
	for _, rec := range sc.Records {
		if err := s.Create(rec.Key, []byte(rec.Content)); err != nil {
			return fmt.Errorf("seed %q: %w", rec.Key, err)
		}
	}

	return nil
}

// runClients starts sc.Clients clients against s and waits for all of them.
// Each client picks a random record per operation and either reads it or
// appends its first character.
func runClients(ctx context.Context, s *store.Store, sc Scenario, logger *slog.Logger) (Report, error) {
	think, err := sc.think()
	if err != nil {
		return Report{}, err
	}

	keys := s.ListKeys()
	if len(keys) == 0 {
		return Report{}, fmt.Errorf("%w: store is empty", errInvalidScenario)
	}

	var (
		reads, writes, failures atomic.Int64
		wg                      sync.WaitGroup
		startedAt               = time.Now()
	)

	for id := range sc.Clients {
		c := &client{
			store:      s,
			keys:       keys,
			rng:        newClientRand(sc.Seed, id),
			logger:     logger.With("client", id),
			operations: sc.Operations,
			writeRatio: sc.WriteRatio,
			think:      think,
			reads:      &reads,
			writes:     &writes,
			failures:   &failures,
		}

		wg.Go(func() {
			c.run(ctx)
		})
	}

	wg.Wait()

	return Report{
		Reads:    reads.Load(),
		Writes:   writes.Load(),
		Failures: failures.Load(),
		Elapsed:  time.Since(startedAt),
	}, ctx.Err()
}

func newClientRand(seed uint64, id int) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // workload selection
	}

	return rand.New(rand.NewPCG(seed, uint64(id))) //nolint:gosec // reproducible workload
}

func (c *client) run(ctx context.Context) {
	for range c.operations {
		if ctx.Err() != nil {
			return
		}

		key := c.keys[c.rng.IntN(len(c.keys))]

		var err error
		if c.rng.Float64() < c.writeRatio {
			err = c.write(ctx, key)
		} else {
			err = c.read(ctx, key)
		}

		if err != nil {
			c.failures.Add(1)
			c.logger.Warn("operation failed", "key", key, "error", err)
		}
	}
}

func (c *client) read(ctx context.Context, key string) error {
	h, err := c.store.OpenContext(ctx, key, store.ModeReadable)
	if err != nil {
		return err
	}

	content := h.Read()
	c.logger.Info("read", "key", key, "content", string(content), "status", c.store.Status(key).String())
	c.pause(ctx)

	if err := c.store.Close(h); err != nil {
		return err
	}

	c.reads.Add(1)

	return nil
}

func (c *client) write(ctx context.Context, key string) error {
	h, err := c.store.OpenContext(ctx, key, store.ModeReadWriteable)
	if err != nil {
		return err
	}

	content := h.Read()
	if len(content) > 0 {
		content = append(content, content[0])
	}

	writeErr := h.Write(content)
	if writeErr == nil {
		c.logger.Info("write", "key", key, "content", string(content))
	}

	c.pause(ctx)

	if err := errors.Join(writeErr, c.store.Close(h)); err != nil {
		return err
	}

	c.writes.Add(1)

	return nil
}

func (c *client) pause(ctx context.Context) {
	if c.think <= 0 {
		return
	}

	timer := time.NewTimer(c.think)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// printSummary writes one line per record followed by the run totals.
func printSummary(w io.Writer, s *store.Store, report Report) error {
	for _, key := range s.ListKeys() {
		h, err := s.Open(key, store.ModeReadable)
		if err != nil {
			return err
		}

		content := h.Read()

		if err := s.Close(h); err != nil {
			return err
		}

		fmt.Fprintf(w, "%-12s %-14s %8s  %s\n",
			key, s.Status(key), humanize.Bytes(uint64(len(content))), string(content))
	}

	fmt.Fprintf(w, "reads=%d writes=%d failures=%d elapsed=%s\n",
		report.Reads, report.Writes, report.Failures, report.Elapsed.Round(time.Millisecond))

	return nil
}
