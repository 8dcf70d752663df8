package rwstore

import (
	"context"
	"fmt"

	"github.com/grafana/sobek"
	"go.k6.io/k6/js/modules"
	"go.k6.io/k6/js/promises"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

// RWStore is the store facade exposed to k6 scripts.
//
// create(), open() and close() return Promises. The blocking store call runs on
// a separate goroutine and the Promise is settled back on the VU event loop, so a
// VU waiting for admission does not stall its event loop. status(), exists(),
// listKeys(), randomKey() and size() never block on admission and return plain values.
type RWStore struct {
	// store is the shared backing store.
	store *store.Store

	// vu is the owning k6 VU that provides the Sobek runtime and event loop.
	vu modules.VU
}

// NewRWStore constructs a facade bound to the given VU and backing store.
func NewRWStore(vu modules.VU, s *store.Store) *RWStore {
	return &RWStore{
		vu:    vu,
		store: s,
	}
}

// Create returns a Promise that resolves to the key once the record exists.
//
// Rejection cases:
//   - the key is undefined or null (InvalidKeyError);
//   - the key already exists (DuplicateKeyError);
//   - content exceeds maxContentSize (ContentTooLargeError).
func (rw *RWStore) Create(key sobek.Value, content sobek.Value) *sobek.Promise {
	keyString, ok := requiredString(key)
	if !ok {
		return rw.rejected(invalidKeyError("create"))
	}

	var payload []byte
	if !sobek.IsUndefined(content) && !sobek.IsNull(content) {
		payload = []byte(content.String())
	}

	return rw.runAsyncWithStore(
		func(s *store.Store) (any, error) {
			return keyString, s.Create(keyString, payload)
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Open returns a Promise that resolves to a handle once the caller is admitted to
// the record under mode ("readable" or "readwriteable").
//
// The wait is bound to the VU context: when k6 stops or aborts the VU, a pending
// open() gives up.
//
// Rejection cases:
//   - the key is undefined or null (InvalidKeyError);
//   - the mode is not admissible (InvalidModeError);
//   - the key does not exist (NotFoundError);
//   - the open timeout elapsed, or the VU context ended, before admission (OpenTimeoutError).
func (rw *RWStore) Open(key sobek.Value, mode sobek.Value) *sobek.Promise {
	keyString, ok := requiredString(key)
	if !ok {
		return rw.rejected(invalidKeyError("open"))
	}

	parsedMode, err := store.ParseMode(mode.String())
	if err != nil {
		return rw.rejected(err)
	}

	// Read on the VU goroutine; the wait itself runs elsewhere.
	ctx := rw.vu.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return rw.runAsyncWithStore(
		func(s *store.Store) (any, error) {
			return s.OpenContext(ctx, keyString, parsedMode)
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			//nolint:forcetypeassert // Open returns *store.Handle on success.
			return rt.ToValue(NewHandle(rw.vu, result.(*store.Handle)))
		},
	)
}

// Close returns a Promise that resolves once the handle's admission is released.
// A writer handle's content is committed first.
//
// Rejection cases:
//   - the argument is not a handle from open(), or was already closed (InvalidHandleError).
func (rw *RWStore) Close(handle sobek.Value) *sobek.Promise {
	h, ok := exportHandle(handle)
	if !ok {
		return rw.rejected(fmt.Errorf("%w: close expects a handle returned by open()", store.ErrInvalidHandle))
	}

	// A second close still reaches the store, which rejects it.
	h.closing = true

	return rw.runAsyncWithStore(
		func(s *store.Store) (any, error) {
			return nil, s.Close(h.handle)
		},

		func(_ *sobek.Runtime, _ any) sobek.Value {
			return sobek.Undefined()
		},
	)
}

// Status returns the occupancy of key: "CLOSED", "READABLE", "READWRITEABLE",
// or "UNKNOWN" when the key does not exist.
func (rw *RWStore) Status(key sobek.Value) string {
	keyString, ok := requiredString(key)
	if rw.store == nil || !ok {
		return store.ModeUnknown.String()
	}

	return rw.store.Status(keyString).String()
}

// Exists reports whether key has been created.
func (rw *RWStore) Exists(key sobek.Value) bool {
	keyString, ok := requiredString(key)
	if rw.store == nil || !ok {
		return false
	}

	return rw.store.Exists(keyString)
}

// ListKeys returns every key in ascending order.
// An optional prefix restricts the listing.
func (rw *RWStore) ListKeys(prefix sobek.Value) []string {
	if rw.store == nil {
		return []string{}
	}

	return rw.store.ListKeysWithPrefix(optionalString(prefix), 0)
}

// RandomKey returns a random key, optionally restricted to a prefix, or "" when none exists.
func (rw *RWStore) RandomKey(prefix sobek.Value) string {
	if rw.store == nil {
		return ""
	}

	return rw.store.RandomKey(optionalString(prefix))
}

// Size returns the number of records.
func (rw *RWStore) Size() int {
	if rw.store == nil {
		return 0
	}

	return rw.store.Size()
}

// storeNotOpenError returns the error used when the facade has no backing store.
func (rw *RWStore) storeNotOpenError() error {
	return NewError(StoreNotOpenError, "store is not open; call openStore() first")
}

// rejected returns a Promise that is already rejected with err.
func (rw *RWStore) rejected(err error) *sobek.Promise {
	promise, _, reject := promises.New(rw.vu)
	reject(classifyError(err))

	return promise
}

// runAsyncWithStore runs operation on a worker goroutine and settles the returned
// Promise on the VU event loop.
func (rw *RWStore) runAsyncWithStore(
	operation func(s *store.Store) (any, error),
	toJS func(rt *sobek.Runtime, result any) sobek.Value,
) *sobek.Promise {
	// Sobek promises are not goroutine-safe: resolve/reject must run on the event loop.
	rt := rw.vu.Runtime()
	promise, resolve, reject := rt.NewPromise()

	callback := rw.vu.RegisterCallback()

	go func() {
		if rw.store == nil {
			callback(func() error {
				return reject(rw.storeNotOpenError())
			})

			return
		}

		result, err := operation(rw.store)
		if err != nil {
			callback(func() error {
				return reject(classifyError(err))
			})

			return
		}

		callback(func() error {
			return resolve(toJS(rt, result))
		})
	}()

	return promise
}

// invalidKeyError is the rejection for an undefined or null key.
func invalidKeyError(op string) error {
	return NewError(InvalidKeyError, op+" expects a key string, got undefined or null")
}

// requiredString returns the string form of v; ok is false for undefined/null.
func requiredString(v sobek.Value) (string, bool) {
	if v == nil || sobek.IsUndefined(v) || sobek.IsNull(v) {
		return "", false
	}

	return v.String(), true
}

// optionalString returns the string form of v, or "" for undefined/null.
func optionalString(v sobek.Value) string {
	if v == nil || sobek.IsUndefined(v) || sobek.IsNull(v) {
		return ""
	}

	return v.String()
}
