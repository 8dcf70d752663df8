package store

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultMaxReaders is the per-record reader capacity used when none is configured.
	// Larger capacities (e.g. 10000) are fine; the value only bounds concurrent readers of one record.
	DefaultMaxReaders = 10
	// MaxShardCount caps the number of map shards.
	MaxShardCount = 1024
)

// Config holds store tuning knobs. A nil *Config is valid and yields defaults.
type Config struct {
	// MaxReaders bounds concurrent readers per record.
	// If <= 0, DefaultMaxReaders is used.
	MaxReaders int
	// ShardCount sets the number of key-map shards.
	// If <= 0, defaults to runtime.NumCPU().
	// If > MaxShardCount, capped at MaxShardCount.
	ShardCount int
	// OpenTimeout bounds how long Open waits for admission.
	// Zero means wait indefinitely.
	OpenTimeout time.Duration
	// MaxContentBytes caps record content size for Create and Handle.Write.
	// Zero means unlimited.
	MaxContentBytes uint64
	// Logger receives store diagnostics. Nil discards them.
	Logger *slog.Logger
	// Registerer receives the store metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// GetMaxReaders returns the effective per-record reader capacity.
func (cfg *Config) GetMaxReaders() int {
	if cfg == nil || cfg.MaxReaders <= 0 {
		return DefaultMaxReaders
	}

	return cfg.MaxReaders
}

// GetShardCount returns the effective shard count.
func (cfg *Config) GetShardCount() int {
	var shards int
	if cfg != nil {
		shards = cfg.ShardCount
	}

	if shards <= 0 {
		shards = max(1, runtime.NumCPU())
	}

	return min(shards, MaxShardCount)
}

// getOpenTimeout returns the configured open timeout, or zero.
func (cfg *Config) getOpenTimeout() time.Duration {
	if cfg == nil || cfg.OpenTimeout < 0 {
		return 0
	}

	return cfg.OpenTimeout
}

// getMaxContentBytes returns the configured content cap, or zero.
func (cfg *Config) getMaxContentBytes() uint64 {
	if cfg == nil {
		return 0
	}

	return cfg.MaxContentBytes
}

// getLogger returns the configured logger or a discarding one.
func (cfg *Config) getLogger() *slog.Logger {
	if cfg == nil || cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return cfg.Logger
}

// getRegisterer returns the configured metrics registerer, possibly nil.
func (cfg *Config) getRegisterer() prometheus.Registerer {
	if cfg == nil {
		return nil
	}

	return cfg.Registerer
}
