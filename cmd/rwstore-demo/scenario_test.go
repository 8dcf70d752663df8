package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestDefaultScenario(t *testing.T) {
	t.Parallel()

	sc := DefaultScenario()

	require.NoError(t, sc.Validate())
	require.Len(t, sc.Records, 5)
	require.Equal(t, Record{Key: "1.txt", Content: "A"}, sc.Records[0])
	require.Equal(t, Record{Key: "5.txt", Content: "E"}, sc.Records[4])
	require.Equal(t, 10, sc.Clients)
	require.Equal(t, 10, sc.Operations)
	require.InDelta(t, 0.5, sc.WriteRatio, 0)
	require.Equal(t, store.DefaultMaxReaders, sc.MaxReaders)
}

func TestLoadScenarioOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, `
records:
  - key: a
    content: x
clients: 3
writeRatio: 1
openTimeout: 250ms
maxContentSize: 1KiB
`)

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.NoError(t, sc.Validate())

	require.Equal(t, []Record{{Key: "a", Content: "x"}}, sc.Records)
	require.Equal(t, 3, sc.Clients)
	require.Equal(t, 10, sc.Operations, "unset fields keep their defaults")

	cfg, err := sc.StoreConfig()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.OpenTimeout)
	require.Equal(t, uint64(1024), cfg.MaxContentBytes)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := writeScenario(t, "clientz: 3\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{name: "no records", mutate: func(sc *Scenario) { sc.Records = nil }},
		{name: "empty key", mutate: func(sc *Scenario) { sc.Records[0].Key = "" }},
		{name: "duplicate key", mutate: func(sc *Scenario) { sc.Records[1].Key = sc.Records[0].Key }},
		{name: "no clients", mutate: func(sc *Scenario) { sc.Clients = 0 }},
		{name: "negative operations", mutate: func(sc *Scenario) { sc.Operations = -1 }},
		{name: "write ratio above one", mutate: func(sc *Scenario) { sc.WriteRatio = 1.5 }},
		{name: "bad timeout", mutate: func(sc *Scenario) { sc.OpenTimeout = "soon" }},
		{name: "bad size", mutate: func(sc *Scenario) { sc.MaxContentSize = "lots" }},
		{name: "bad think", mutate: func(sc *Scenario) { sc.Think = "-1s" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sc := DefaultScenario()
			tc.mutate(&sc)

			require.ErrorIs(t, sc.Validate(), errInvalidScenario)
		})
	}
}
