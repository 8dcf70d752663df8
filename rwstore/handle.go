package rwstore

import (
	"github.com/grafana/sobek"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

// Handle is the JS view of an admission returned by open().
//
// read() and write() run synchronously on the VU: they touch only the handle's
// private buffer and never wait on another VU.
type Handle struct {
	handle *store.Handle
	vu     modules.VU
	// closing is set by close() on the VU goroutine, before the release runs elsewhere.
	closing bool
}

// NewHandle wraps h for the given VU.
func NewHandle(vu modules.VU, h *store.Handle) *Handle {
	return &Handle{
		handle: h,
		vu:     vu,
	}
}

// Key returns the record key.
func (h *Handle) Key() string {
	return h.handle.Key()
}

// Mode returns "READABLE" or "READWRITEABLE".
func (h *Handle) Mode() string {
	return h.handle.Mode().String()
}

// Id returns the unique handle identifier. k6 maps it to id().
//
//nolint:revive,stylecheck // ID would surface in JS as iD().
func (h *Handle) Id() string {
	return h.handle.ID().String()
}

// Released reports whether close() has been called for this handle.
func (h *Handle) Released() bool {
	return h.closing || h.handle.Released()
}

// Read returns the handle's view of the content.
// It throws InvalidHandleError once the handle is closed.
func (h *Handle) Read() string {
	if h.Released() {
		common.Throw(h.vu.Runtime(), NewError(InvalidHandleError, h.handle.String()+" already released"))
		return ""
	}

	return string(h.handle.Read())
}

// Write replaces the handle's content. The record changes only when the handle is closed.
// It throws NotWritableError on a readable handle.
func (h *Handle) Write(value sobek.Value) {
	if h.Released() {
		common.Throw(h.vu.Runtime(), NewError(InvalidHandleError, h.handle.String()+" already released"))
		return
	}

	var content []byte
	if !sobek.IsUndefined(value) && !sobek.IsNull(value) {
		content = []byte(value.String())
	}

	if err := h.handle.Write(content); err != nil {
		common.Throw(h.vu.Runtime(), classifyError(err))
	}
}

// exportHandle extracts the facade from a JS value produced by open().
func exportHandle(value sobek.Value) (*Handle, bool) {
	if value == nil || sobek.IsUndefined(value) || sobek.IsNull(value) {
		return nil, false
	}

	h, ok := value.Export().(*Handle)
	if !ok || h == nil || h.handle == nil {
		return nil, false
	}

	return h, true
}
