package rwstore

import (
	"sync"

	"github.com/grafana/sobek"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-rwstore/rwstore/store"
)

type (
	// RootModule is a module singleton created once per test process.
	// It owns the shared Store used by all VUs.
	RootModule struct {
		// store is the shared store instance, created on first openStore().
		store *store.Store

		// opts holds the options used when the store was created.
		opts Options

		// mu protects store creation and configuration.
		mu sync.Mutex
	}

	// ModuleInstance is created per VU.
	// It holds the per-VU JS bindings and a pointer
	// to the RootModule to access the shared store.
	ModuleInstance struct {
		vu modules.VU
		rm *RootModule
		// rw is the per-VU facade over the shared store, set by openStore().
		rw *RWStore
	}
)

// Compile-time interface assertions.
var (
	_ modules.Instance = new(ModuleInstance)
	_ modules.Module   = new(RootModule)
)

// New returns a pointer to a new RootModule instance.
func New() *RootModule {
	return &RootModule{}
}

// NewModuleInstance implements modules.Module.
// It creates a per-VU instance wired to the RootModule (which owns the shared store).
func (rm *RootModule) NewModuleInstance(vu modules.VU) modules.Instance {
	return &ModuleInstance{
		vu: vu,
		rm: rm,
	}
}

// Exports implements modules.Instance and exposes
// the JavaScript API surface for this module.
func (mi *ModuleInstance) Exports() modules.Exports {
	return modules.Exports{
		Named: map[string]any{
			"openStore": mi.OpenStore,
		},
	}
}

// OpenStore parses user options, creates the shared store (once),
// and returns the per-VU store object bound to it.
//
// The first successful call decides the configuration; later calls must pass
// equivalent options or they throw OptionsConflictError.
func (mi *ModuleInstance) OpenStore(opts sobek.Value) *sobek.Object {
	options, err := NewOptionsFrom(mi.vu, opts)
	if err != nil {
		common.Throw(mi.vu.Runtime(), classifyError(err))
		return nil
	}

	shared, err := mi.rm.getOrCreateStore(options)
	if err != nil {
		common.Throw(mi.vu.Runtime(), classifyError(err))
		return nil
	}

	mi.rw = NewRWStore(mi.vu, shared)

	return mi.vu.Runtime().ToValue(mi.rw).ToObject(mi.vu.Runtime())
}
