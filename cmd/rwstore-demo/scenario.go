package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

var errInvalidScenario = errors.New("invalid scenario")

// Record seeds one record before the clients start.
type Record struct {
	Key     string `yaml:"key"`
	Content string `yaml:"content"`
}

// Scenario describes a demo run: the seeded records and the client workload.
type Scenario struct {
	Records []Record `yaml:"records"`

	// Clients is the number of concurrent clients.
	Clients int `yaml:"clients"`
	// Operations is the number of operations each client performs.
	Operations int `yaml:"operations"`
	// WriteRatio is the probability that an operation is a write.
	WriteRatio float64 `yaml:"writeRatio"`
	// Seed makes client choices reproducible when non-zero.
	Seed uint64 `yaml:"seed"`

	MaxReaders int `yaml:"maxReaders"`
	ShardCount int `yaml:"shardCount"`
	// OpenTimeout is a duration string like "2s"; empty waits forever.
	OpenTimeout string `yaml:"openTimeout"`
	// MaxContentSize is a size string like "64kb"; empty means unlimited.
	MaxContentSize string `yaml:"maxContentSize"`
	// Think is the pause a client takes while holding a handle.
	Think string `yaml:"think"`
}

// DefaultScenario returns five single-letter records hammered by ten clients.
func DefaultScenario() Scenario {
	return Scenario{
		Records: []Record{
			{Key: "1.txt", Content: "A"},
			{Key: "2.txt", Content: "B"},
			{Key: "3.txt", Content: "C"},
			{Key: "4.txt", Content: "D"},
			{Key: "5.txt", Content: "E"},
		},
		Clients:    10,
		Operations: 10,
		WriteRatio: 0.5,
		MaxReaders: store.DefaultMaxReaders,
	}
}

// LoadScenario reads a YAML scenario on top of the defaults using strict parsing.
// An empty path returns the defaults.
func LoadScenario(path string) (Scenario, error) {
	scenario := DefaultScenario()

	if path == "" {
		return scenario, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return scenario, fmt.Errorf("failed to open scenario: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&scenario); err != nil {
		return scenario, fmt.Errorf("YAML syntax error in scenario: %w", err)
	}

	return scenario, nil
}

// Validate rejects scenarios that cannot run.
func (sc Scenario) Validate() error {
	if len(sc.Records) == 0 {
		return fmt.Errorf("%w: no records", errInvalidScenario)
	}

	seen := make(map[string]struct{}, len(sc.Records))
	for _, rec := range sc.Records {
		if rec.Key == "" {
			return fmt.Errorf("%w: record with empty key", errInvalidScenario)
		}

		if _, dup := seen[rec.Key]; dup {
			return fmt.Errorf("%w: record %q listed twice", errInvalidScenario, rec.Key)
		}

		seen[rec.Key] = struct{}{}
	}

	if sc.Clients <= 0 {
		return fmt.Errorf("%w: clients must be positive, got %d", errInvalidScenario, sc.Clients)
	}

	if sc.Operations < 0 {
		return fmt.Errorf("%w: operations must not be negative, got %d", errInvalidScenario, sc.Operations)
	}

	if sc.WriteRatio < 0 || sc.WriteRatio > 1 {
		return fmt.Errorf("%w: writeRatio must be within [0, 1], got %g", errInvalidScenario, sc.WriteRatio)
	}

	if _, err := sc.think(); err != nil {
		return err
	}

	if _, err := sc.StoreConfig(); err != nil {
		return err
	}

	return nil
}

// StoreConfig converts the scenario's store settings into a store.Config.
func (sc Scenario) StoreConfig() (*store.Config, error) {
	cfg := &store.Config{
		MaxReaders: sc.MaxReaders,
		ShardCount: sc.ShardCount,
	}

	if sc.OpenTimeout != "" {
		timeout, err := time.ParseDuration(sc.OpenTimeout)
		if err != nil || timeout < 0 {
			return nil, fmt.Errorf("%w: openTimeout %q", errInvalidScenario, sc.OpenTimeout)
		}

		cfg.OpenTimeout = timeout
	}

	if sc.MaxContentSize != "" {
		size, err := humanize.ParseBytes(sc.MaxContentSize)
		if err != nil {
			return nil, fmt.Errorf("%w: maxContentSize %q: %w", errInvalidScenario, sc.MaxContentSize, err)
		}

		cfg.MaxContentBytes = size
	}

	return cfg, nil
}

func (sc Scenario) think() (time.Duration, error) {
	if sc.Think == "" {
		return 0, nil
	}

	think, err := time.ParseDuration(sc.Think)
	if err != nil || think < 0 {
		return 0, fmt.Errorf("%w: think %q", errInvalidScenario, sc.Think)
	}

	return think, nil
}
