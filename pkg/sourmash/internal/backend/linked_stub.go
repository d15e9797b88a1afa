//go:build !cgo || !sourmash_cgo

package backend

import "github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"

// OpenLinked reports ErrNotBuilt: the binary was built without cgo or without
// the sourmash_cgo tag.
func OpenLinked() (ffi.Library, error) {
	return nil, ErrNotBuilt
}
