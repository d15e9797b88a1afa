//go:build windows

package backend

import "github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"

// OpenShared is not supported on Windows; use the wasm backend instead.
func OpenShared(string) (ffi.Library, error) {
	return nil, ErrNotBuilt
}
