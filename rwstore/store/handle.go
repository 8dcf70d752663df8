package store

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handle is the capability returned by a successful Store.Open.
//
// It carries a private snapshot of the record content and the mode it was admitted
// under. Read and Write only touch that snapshot and never block. A Handle is meant
// for the goroutine that opened it and must be passed to Store.Close exactly once.
type Handle struct {
	// owner is the store that issued the handle.
	owner *Store
	// content is the local snapshot.
	content []byte
	// key names the record.
	key string
	// maxContentBytes caps Write; zero means unlimited.
	maxContentBytes uint64
	// mode is fixed at creation.
	mode Mode
	// id identifies the handle in diagnostics.
	id uuid.UUID
	// released flips once, in Store.Close.
	released atomic.Bool
}

// newHandle creates a handle over a private copy of content.
func newHandle(owner *Store, key string, mode Mode, content []byte) *Handle {
	return &Handle{
		owner:           owner,
		content:         bytes.Clone(content),
		key:             key,
		maxContentBytes: owner.maxContentBytes,
		mode:            mode,
		id:              uuid.New(),
	}
}

// ID returns the unique identifier of the handle.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Key returns the key of the record the handle was opened on.
func (h *Handle) Key() string {
	return h.key
}

// Mode returns the mode the handle was admitted under.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Released reports whether the handle has been closed.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Read returns a copy of the local snapshot.
// Reading a released handle is a programming error and panics.
func (h *Handle) Read() []byte {
	if h.released.Load() {
		panic(fmt.Sprintf("store: read of released handle %s on %q", h.id, h.key))
	}

	return bytes.Clone(h.content)
}

// Write replaces the local snapshot. The record is not touched until Store.Close.
func (h *Handle) Write(content []byte) error {
	if h.released.Load() {
		return fmt.Errorf("%w: handle %s on %q already released", ErrInvalidHandle, h.id, h.key)
	}

	if h.mode != ModeReadWriteable {
		return fmt.Errorf("%w: %q opened as %s", ErrNotWritable, h.key, h.mode)
	}

	if err := checkContentSize(content, h.maxContentBytes); err != nil {
		return fmt.Errorf("write %q: %w", h.key, err)
	}

	h.content = bytes.Clone(content)

	return nil
}

// String implements fmt.Stringer.
func (h *Handle) String() string {
	return fmt.Sprintf("handle %s %s %q", h.id, h.mode, h.key)
}

// checkContentSize rejects content larger than limit; a zero limit disables the check.
func checkContentSize(content []byte, limit uint64) error {
	if limit == 0 || uint64(len(content)) <= limit {
		return nil
	}

	return fmt.Errorf("%w: %d bytes > %d", ErrContentTooLarge, len(content), limit)
}
