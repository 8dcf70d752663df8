package rwstore

import (
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-rwstore/rwstore"
)

// init registers the rwstore module with the k6 runtime.
func init() {
	modules.Register("k6/x/rwstore", rwstore.New())
}
