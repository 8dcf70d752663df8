package rwstore

import (
	"fmt"

	"github.com/grafana/sobek"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

// Options controls how the shared store is created on the first call to openStore().
type Options struct {
	// MaxReaders bounds concurrent readers per record.
	// If <= 0, store.DefaultMaxReaders is used.
	MaxReaders int `js:"maxReaders"`

	// ShardCount sets the number of key-map shards.
	// If <= 0, defaults to runtime.NumCPU() (automatic).
	// If > store.MaxShardCount, capped at store.MaxShardCount.
	ShardCount int `js:"shardCount"`

	// OpenTimeout bounds how long open() waits for admission.
	// Accepts milliseconds (number) or a duration string like "5s".
	// Unset or zero waits indefinitely.
	OpenTimeout any `js:"openTimeout"`

	// MaxContentSize caps record content.
	// Accepts bytes (number) or a size string like "64kb".
	// Unset or zero means unlimited.
	MaxContentSize any `js:"maxContentSize"`
}

// NewOptionsFrom converts a Sobek (JS) value into an Options instance, applying defaults
// and validating user input. It's intentionally strict to fail fast on invalid configs.
func NewOptionsFrom(vu modules.VU, options sobek.Value) (Options, error) {
	var opts Options

	if common.IsNullish(options) {
		return opts, nil
	}

	if err := vu.Runtime().ExportTo(options, &opts); err != nil {
		return opts, fmt.Errorf("%w: %w", store.ErrOptionsInvalid, err)
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

// Validate checks option values that cannot be normalized into defaults.
func (o Options) Validate() error {
	if o.OpenTimeout != nil {
		if _, err := parseDurationValue(o.OpenTimeout); err != nil {
			return fmt.Errorf("%w: openTimeout: %w", store.ErrOptionsInvalid, err)
		}
	}

	if o.MaxContentSize != nil {
		if _, err := parseSizeValue(o.MaxContentSize); err != nil {
			return fmt.Errorf("%w: maxContentSize: %w", store.ErrOptionsInvalid, err)
		}
	}

	return nil
}

// Equal checks if two Options describe the same store configuration.
// Automatic values (zero or negative) are considered equal to each other.
func (o Options) Equal(other Options) bool {
	return o.toStoreConfig().GetMaxReaders() == other.toStoreConfig().GetMaxReaders() &&
		o.toStoreConfig().GetShardCount() == other.toStoreConfig().GetShardCount() &&
		durationValuesEqual(o.OpenTimeout, other.OpenTimeout) &&
		sizeValuesEqual(o.MaxContentSize, other.MaxContentSize)
}

// ToStoreConfig converts Options into a store-level Config.
func (o Options) ToStoreConfig() (*store.Config, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	return o.toStoreConfig(), nil
}

// toStoreConfig converts already validated Options into a store.Config.
// Unparseable durations and sizes fall back to zero.
func (o Options) toStoreConfig() *store.Config {
	cfg := &store.Config{
		MaxReaders: o.MaxReaders,
		ShardCount: o.ShardCount,
	}

	if o.OpenTimeout != nil {
		cfg.OpenTimeout, _ = parseDurationValue(o.OpenTimeout)
	}

	if o.MaxContentSize != nil {
		cfg.MaxContentBytes, _ = parseSizeValue(o.MaxContentSize)
	}

	return cfg
}
