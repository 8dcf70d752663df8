package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandle_SnapshotIsPrivate checks that handles copy content in and out.
func TestHandle_SnapshotIsPrivate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, nil)
	require.NoError(t, s.Create("k", []byte("abc")))

	h := mustOpen(t, s, "k", ModeReadWriteable)

	read := h.Read()
	read[0] = 'X'
	assert.Equal(t, []byte("abc"), h.Read(), "mutating a Read result must not change the snapshot")

	input := []byte("def")
	require.NoError(t, h.Write(input))
	input[0] = 'X'
	assert.Equal(t, []byte("def"), h.Read(), "mutating a written slice must not change the snapshot")

	require.NoError(t, s.Close(h))
}

// TestHandle_Accessors checks identity and mode accessors.
func TestHandle_Accessors(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, nil)
	require.NoError(t, s.Create("k", nil))

	first := mustOpen(t, s, "k", ModeReadable)
	second := mustOpen(t, s, "k", ModeReadable)

	assert.Equal(t, "k", first.Key())
	assert.Equal(t, ModeReadable, first.Mode())
	assert.NotEqual(t, first.ID(), second.ID(), "handles must have distinct ids")
	assert.Contains(t, first.String(), first.ID().String())
	assert.False(t, first.Released())

	require.NoError(t, s.Close(first))
	require.NoError(t, s.Close(second))
	assert.True(t, first.Released())
}

// TestHandle_WriteMultipleTimes keeps only the last write.
func TestHandle_WriteMultipleTimes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, nil)
	require.NoError(t, s.Create("k", []byte("A")))

	h := mustOpen(t, s, "k", ModeReadWriteable)
	require.NoError(t, h.Write([]byte("B")))
	require.NoError(t, h.Write([]byte("C")))
	require.NoError(t, s.Close(h))

	reader := mustOpen(t, s, "k", ModeReadable)
	assert.Equal(t, []byte("C"), reader.Read())
	require.NoError(t, s.Close(reader))
}

// TestHandle_WriterClosingUnchangedContent commits the original content untouched.
func TestHandle_WriterClosingUnchangedContent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, nil)
	require.NoError(t, s.Create("k", []byte("same")))

	h := mustOpen(t, s, "k", ModeReadWriteable)
	require.NoError(t, s.Close(h))

	reader := mustOpen(t, s, "k", ModeReadable)
	assert.Equal(t, []byte("same"), reader.Read())
	require.NoError(t, s.Close(reader))
}
