package rwstore

import (
	"fmt"
	"sync"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

// testOpenStoreBarrier is a test hook invoked the moment a goroutine enters the
// store-creation path. It lets tests synchronize concurrent calls to OpenStore
// without impacting production behavior (nil in non-test builds).
//
//nolint:gochecknoglobals // this is a test hook.
var (
	testOpenStoreBarrier   func()
	testOpenStoreBarrierMu sync.RWMutex
)

// getOrCreateStore creates the shared store if it doesn't exist,
// or returns the existing store if the options are equivalent.
func (rm *RootModule) getOrCreateStore(options Options) (*store.Store, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.store != nil {
		if rm.opts.Equal(options) {
			return rm.store, nil
		}

		// Reject re-configuration: every VU must see the same admission rules.
		return nil, fmt.Errorf(
			"%w: maxReaders=%d shardCount=%d openTimeout=%v maxContentSize=%v",
			store.ErrOptionsConflict,
			rm.opts.MaxReaders, rm.opts.ShardCount, rm.opts.OpenTimeout, rm.opts.MaxContentSize,
		)
	}

	testOpenStoreBarrierMu.RLock()

	barrier := testOpenStoreBarrier

	testOpenStoreBarrierMu.RUnlock()

	if barrier != nil {
		barrier()
	}

	cfg, err := options.ToStoreConfig()
	if err != nil {
		return nil, err
	}

	created, err := store.New(cfg)
	if err != nil {
		return nil, err
	}

	rm.store = created
	rm.opts = options

	return rm.store, nil
}

// setTestOpenStoreBarrier installs (or clears, with nil) the creation test hook.
func setTestOpenStoreBarrier(barrier func()) {
	testOpenStoreBarrierMu.Lock()
	defer testOpenStoreBarrierMu.Unlock()

	testOpenStoreBarrier = barrier
}
