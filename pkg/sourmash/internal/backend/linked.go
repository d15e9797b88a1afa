//go:build cgo && sourmash_cgo

package backend

/*
#cgo CFLAGS: -I${SRCDIR}/../../../../include
#cgo LDFLAGS: -lsourmash -ldl

#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>
#include "sourmash.h"

typedef uint64_t (*sm_word_fn)(uint64_t, uint64_t, uint64_t, uint64_t, uint64_t, uint64_t);

static void* sm_lookup(const char* name) {
	return dlsym(RTLD_DEFAULT, name);
}

// Callees taking fewer than six words ignore the extra argument registers.
static uint64_t sm_call(void* fn, uint64_t a0, uint64_t a1, uint64_t a2,
                        uint64_t a3, uint64_t a4, uint64_t a5) {
	return ((sm_word_fn)fn)(a0, a1, a2, a3, a4, a5);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

// Linked is libsourmash linked into the binary at build time.
type Linked struct{}

// OpenLinked returns the library linked into this binary.
func OpenLinked() (ffi.Library, error) {
	return Linked{}, nil
}

// Scope reports ScopeThread: libsourmash keeps its last error thread-local.
func (Linked) Scope() ffi.ErrorScope { return ffi.ScopeThread }

func (Linked) Init() error {
	C.sourmash_init()
	return nil
}

func (Linked) ErrClear() { C.sourmash_err_clear() }

func (Linked) ErrLastCode() ffi.Code {
	return ffi.Code(C.sourmash_err_get_last_code())
}

func (Linked) ErrLastMessage() string {
	return C.GoString(C.sourmash_err_get_last_message())
}

func (Linked) ErrPanicInfo() string {
	return C.GoString(C.sourmash_err_get_panic_info())
}

// Lookup resolves name among the symbols linked into the process. Calls take
// at most six word arguments.
func (Linked) Lookup(name string) (ffi.Func, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	sym := C.sm_lookup(cname)
	if sym == nil {
		return nil, fmt.Errorf("%w: %s", ffi.ErrSymbolNotFound, name)
	}
	return func(args ...uint64) uint64 {
		if len(args) > maxLinkedArgs {
			panic(fmt.Sprintf("sourmash: %s called with %d arguments, at most %d supported", name, len(args), maxLinkedArgs))
		}
		var w [maxLinkedArgs]C.uint64_t
		for i, a := range args {
			w[i] = C.uint64_t(a)
		}
		return uint64(C.sm_call(sym, w[0], w[1], w[2], w[3], w[4], w[5]))
	}, nil
}

// CopyIn copies data into C memory with a trailing NUL.
func (Linked) CopyIn(data []byte) (uint64, func(), error) {
	buf := C.malloc(C.size_t(len(data) + 1))
	if buf == nil {
		return 0, nil, fmt.Errorf("failed to allocate %d bytes", len(data)+1)
	}
	dst := unsafe.Slice((*byte)(buf), len(data)+1)
	copy(dst, data)
	dst[len(data)] = 0
	return uint64(uintptr(buf)), func() { C.free(buf) }, nil
}

func (Linked) Read(ptr uint64, n int) ([]byte, error) {
	if ptr == 0 {
		return nil, fmt.Errorf("read of %d bytes from null pointer", n)
	}
	if n <= 0 {
		return nil, nil
	}
	return C.GoBytes(nativePointer(uintptr(ptr)), C.int(n)), nil
}

// Close is a no-op; a linked library cannot be unloaded.
func (Linked) Close() error { return nil }

var _ ffi.Library = Linked{}
