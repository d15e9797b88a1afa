//go:build !windows

package backend

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

// Shared is a libsourmash shared object loaded with dlopen.
type Shared struct {
	path   string
	handle uintptr

	initFn   uintptr
	errClear uintptr
	errCode  uintptr
	errMsg   uintptr
	errPanic uintptr
}

// OpenShared loads the library at path and resolves the error-channel entry
// points. The panic-info getter is optional.
func OpenShared(path string) (ffi.Library, error) {
	s, err := dlopen(path)
	if err != nil {
		return nil, err
	}
	if err := s.bindErrorChannel(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func dlopen(path string) (*Shared, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load shared library: %w", err)
	}
	if handle == 0 {
		return nil, fmt.Errorf("shared library handle is nil after loading: %s", path)
	}
	return &Shared{path: path, handle: handle}, nil
}

func (s *Shared) bindErrorChannel() error {
	required := []struct {
		name string
		addr *uintptr
	}{
		{ffi.SymInit, &s.initFn},
		{ffi.SymErrClear, &s.errClear},
		{ffi.SymErrLastCode, &s.errCode},
		{ffi.SymErrLastMsg, &s.errMsg},
	}
	for _, r := range required {
		addr, err := purego.Dlsym(s.handle, r.name)
		if err != nil || addr == 0 {
			return fmt.Errorf("%w: %s in %s", ffi.ErrSymbolNotFound, r.name, s.path)
		}
		*r.addr = addr
	}
	if addr, err := purego.Dlsym(s.handle, ffi.SymErrPanicInfo); err == nil {
		s.errPanic = addr
	}
	return nil
}

// Path returns the file the library was loaded from.
func (s *Shared) Path() string { return s.path }

// Scope reports ScopeThread: libsourmash keeps its last error thread-local.
func (s *Shared) Scope() ffi.ErrorScope { return ffi.ScopeThread }

func (s *Shared) Init() error {
	purego.SyscallN(s.initFn)
	return nil
}

func (s *Shared) ErrClear() { purego.SyscallN(s.errClear) }

func (s *Shared) ErrLastCode() ffi.Code {
	r, _, _ := purego.SyscallN(s.errCode)
	return ffi.Code(int32(r))
}

func (s *Shared) ErrLastMessage() string {
	r, _, _ := purego.SyscallN(s.errMsg)
	return goString(r)
}

func (s *Shared) ErrPanicInfo() string {
	if s.errPanic == 0 {
		return ""
	}
	r, _, _ := purego.SyscallN(s.errPanic)
	return goString(r)
}

// Lookup resolves name with dlsym. The returned function passes each word as
// an integer register argument.
func (s *Shared) Lookup(name string) (ffi.Func, error) {
	addr, err := purego.Dlsym(s.handle, name)
	if err != nil || addr == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ffi.ErrSymbolNotFound, name, s.path)
	}
	return func(args ...uint64) uint64 {
		words := make([]uintptr, len(args))
		for i, a := range args {
			words[i] = uintptr(a)
		}
		r, _, _ := purego.SyscallN(addr, words...)
		return uint64(r)
	}, nil
}

// CopyIn pins a NUL-terminated copy of data so native code can read it as
// either a buffer or a C string.
func (s *Shared) CopyIn(data []byte) (uint64, func(), error) {
	buf := make([]byte, len(data)+1)
	copy(buf, data)

	var pinner runtime.Pinner
	pinner.Pin(&buf[0])
	return uint64(uintptr(unsafe.Pointer(&buf[0]))), pinner.Unpin, nil
}

func (s *Shared) Read(ptr uint64, n int) ([]byte, error) {
	if ptr == 0 {
		return nil, fmt.Errorf("read of %d bytes from null pointer", n)
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(nativePointer(uintptr(ptr))), n))
	return out, nil
}

// Close unloads the library.
func (s *Shared) Close() error {
	if s.handle == 0 {
		return nil
	}
	if err := purego.Dlclose(s.handle); err != nil {
		return fmt.Errorf("failed to close library: %w", err)
	}
	s.handle = 0
	return nil
}

// goString copies a NUL-terminated string owned by native code.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	base := nativePointer(p)
	n := 0
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(base), n))
}

var _ ffi.Library = (*Shared)(nil)
