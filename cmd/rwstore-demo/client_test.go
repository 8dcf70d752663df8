package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

func newSeededStore(t *testing.T, sc Scenario) *store.Store {
	t.Helper()

	cfg, err := sc.StoreConfig()
	require.NoError(t, err)

	cfg.Registerer = prometheus.NewRegistry()

	s, err := store.New(cfg)
	require.NoError(t, err)
	require.NoError(t, seedStore(s, sc))

	return s
}

// totalContent sums the content length of every record.
func totalContent(t *testing.T, s *store.Store) int {
	t.Helper()

	var total int

	for _, key := range s.ListKeys() {
		h, err := s.Open(key, store.ModeReadable)
		require.NoError(t, err)

		content := h.Read()
		require.NotEmpty(t, content)
		require.Equal(t, strings.Repeat(string(content[0]), len(content)), string(content),
			"a record only ever grows by its first character")

		total += len(content)

		require.NoError(t, s.Close(h))
	}

	return total
}

func TestRunClientsLosesNoWrites(t *testing.T) {
	t.Parallel()

	sc := DefaultScenario()
	sc.Clients = 20
	sc.Operations = 50
	sc.Seed = 42

	s := newSeededStore(t, sc)
	before := totalContent(t, s)

	report, err := runClients(context.Background(), s, sc, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	require.Zero(t, report.Failures)
	require.EqualValues(t, sc.Clients*sc.Operations, report.Reads+report.Writes)
	require.EqualValues(t, before+int(report.Writes), totalContent(t, s))
	require.InDelta(t, float64(report.Writes), testutil.ToFloat64(s.Metrics().Commits), 0)

	for _, key := range s.ListKeys() {
		require.Equal(t, store.ModeClosed, s.Status(key))
	}
}

func TestRunClientsReadOnly(t *testing.T) {
	t.Parallel()

	sc := DefaultScenario()
	sc.WriteRatio = 0
	sc.Seed = 7

	s := newSeededStore(t, sc)

	report, err := runClients(context.Background(), s, sc, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	require.Zero(t, report.Writes)
	require.EqualValues(t, sc.Clients*sc.Operations, report.Reads)
	require.Equal(t, len(sc.Records), totalContent(t, s))
}

func TestRunClientsCanceled(t *testing.T) {
	t.Parallel()

	sc := DefaultScenario()

	s := newSeededStore(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := runClients(ctx, s, sc, slog.New(slog.DiscardHandler))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Reads+report.Writes)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	sc := DefaultScenario()
	s := newSeededStore(t, sc)

	var out bytes.Buffer
	require.NoError(t, printSummary(&out, s, Report{Reads: 3, Writes: 2}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(sc.Records)+1)
	require.True(t, strings.HasPrefix(lines[0], "1.txt"))
	require.Contains(t, lines[0], "CLOSED")
	require.Contains(t, lines[len(lines)-1], "reads=3 writes=2 failures=0")
}
