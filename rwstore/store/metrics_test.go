package store

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetrics_Counts checks admissions, commits, cancellations and rejected closes.
func TestMetrics_Counts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	s := newTestStore(t, &Config{Registerer: reg})

	require.NoError(t, s.Create("a", []byte("A")))
	require.NoError(t, s.Create("b", []byte("B")))

	reader := mustOpen(t, s, "a", ModeReadable)
	require.NoError(t, s.Close(reader))

	writer := mustOpen(t, s, "a", ModeReadWriteable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.OpenContext(ctx, "a", ModeReadable)
	require.ErrorIs(t, err, ErrOpenCanceled)

	require.NoError(t, s.Close(writer))
	require.ErrorIs(t, s.Close(newHandle(s, "b", ModeReadWriteable, nil)), ErrInvalidHandle)

	m := s.Metrics()
	assert.InDelta(t, 2, testutil.ToFloat64(m.Records), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Admissions.WithLabelValues("READABLE")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Admissions.WithLabelValues("READWRITEABLE")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CanceledOpens.WithLabelValues("READABLE")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Commits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RejectedCloses), 0)

	count, err := testutil.GatherAndCount(reg, "rwstore_admission_wait_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one histogram series per admitted mode")
}

// TestNewMetrics_SharedRegistry checks that two stores can share one registry.
func TestNewMetrics_SharedRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	first := newTestStore(t, &Config{Registerer: reg})
	second := newTestStore(t, &Config{Registerer: reg})

	require.NoError(t, first.Create("k", nil))
	require.NoError(t, second.Create("k", nil))

	assert.Same(t, first.Metrics().Commits, second.Metrics().Commits)
	assert.InDelta(t, 2, testutil.ToFloat64(second.Metrics().Records), 0)
}

// TestNewMetrics_Unregistered checks metrics work without a registry.
func TestNewMetrics_Unregistered(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(nil)
	require.NoError(t, err)

	m.Commits.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(m.Commits), 0)
}
