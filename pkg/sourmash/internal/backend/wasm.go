package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

// Guest exports used to move bytes into module memory.
const (
	wasmAllocate   = "allocate"
	wasmDeallocate = "deallocate"
)

// Wasm is a WebAssembly build of libsourmash hosted in wazero.
//
// Strings returned by the error getters are packed as ptr<<32 | len into
// linear memory. A trap during any call is recorded as a native panic until
// the next ErrClear.
type Wasm struct {
	ctx     context.Context
	runtime wazero.Runtime
	mod     api.Module

	initFn   api.Function
	errClear api.Function
	errCode  api.Function
	errMsg   api.Function
	errPanic api.Function
	alloc    api.Function
	dealloc  api.Function

	mu   sync.Mutex
	trap error
}

// OpenWasm compiles and instantiates the module in a new runtime with WASI
// preview1 available. ctx is used for every later call into the module.
func OpenWasm(ctx context.Context, wasmBytes []byte) (*Wasm, error) {
	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	mod, err := rt.Instantiate(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	w, err := newWasm(ctx, mod)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	w.runtime = rt
	return w, nil
}

func newWasm(ctx context.Context, mod api.Module) (*Wasm, error) {
	w := &Wasm{ctx: ctx, mod: mod}
	required := []struct {
		name string
		fn   *api.Function
	}{
		{ffi.SymInit, &w.initFn},
		{ffi.SymErrClear, &w.errClear},
		{ffi.SymErrLastCode, &w.errCode},
		{ffi.SymErrLastMsg, &w.errMsg},
	}
	for _, r := range required {
		fn := mod.ExportedFunction(r.name)
		if fn == nil {
			return nil, fmt.Errorf("%w: export %q", ffi.ErrSymbolNotFound, r.name)
		}
		*r.fn = fn
	}
	w.errPanic = mod.ExportedFunction(ffi.SymErrPanicInfo)
	w.alloc = mod.ExportedFunction(wasmAllocate)
	w.dealloc = mod.ExportedFunction(wasmDeallocate)
	return w, nil
}

// Scope reports ScopeProcess: a module instance is a single error slot and
// must not be entered concurrently.
func (w *Wasm) Scope() ffi.ErrorScope { return ffi.ScopeProcess }

// Init calls the guest's init export. A trap is returned as a native panic;
// errors the guest reports through its slot are left for ErrLastCode.
func (w *Wasm) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callLocked(w.initFn)
	if w.trap == nil {
		return nil
	}
	msg, _, _ := strings.Cut(w.trap.Error(), "\n")
	return &ffi.Error{
		Code:      ffi.CodePanic,
		Kind:      ffi.KindPanic,
		Message:   msg,
		PanicInfo: w.trap.Error(),
	}
}

func (w *Wasm) ErrClear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trap = nil
	w.callLocked(w.errClear)
}

func (w *Wasm) ErrLastCode() ffi.Code {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.trap != nil {
		return ffi.CodePanic
	}
	return ffi.Code(int32(w.callLocked(w.errCode)))
}

func (w *Wasm) ErrLastMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.trap != nil {
		msg, _, _ := strings.Cut(w.trap.Error(), "\n")
		return msg
	}
	return readPacked(w.mod.Memory(), w.callLocked(w.errMsg))
}

func (w *Wasm) ErrPanicInfo() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.trap != nil {
		return w.trap.Error()
	}
	if w.errPanic == nil {
		return ""
	}
	return readPacked(w.mod.Memory(), w.callLocked(w.errPanic))
}

// Lookup resolves an exported guest function.
func (w *Wasm) Lookup(name string) (ffi.Func, error) {
	fn := w.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: export %q", ffi.ErrSymbolNotFound, name)
	}
	return func(args ...uint64) uint64 {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.callLocked(fn, args...)
	}, nil
}

func (w *Wasm) callLocked(fn api.Function, args ...uint64) uint64 {
	results, err := fn.Call(w.ctx, args...)
	if err != nil {
		w.trap = err
		return 0
	}
	if len(results) == 0 {
		return 0
	}
	return results[0]
}

// CopyIn allocates guest memory through the module's allocate export and
// writes a NUL-terminated copy of data into it.
func (w *Wasm) CopyIn(data []byte) (uint64, func(), error) {
	if w.alloc == nil {
		return 0, nil, fmt.Errorf("%w: guest does not export %q", ffi.ErrSymbolNotFound, wasmAllocate)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	size := uint64(len(data) + 1)
	results, err := w.alloc.Call(w.ctx, size)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to allocate in guest: %w", err)
	}
	if len(results) == 0 {
		return 0, nil, fmt.Errorf("allocate returned no results")
	}
	ptr := uint32(results[0])

	buf := make([]byte, size)
	copy(buf, data)
	mem := w.mod.Memory()
	if mem == nil || !mem.Write(ptr, buf) {
		return 0, nil, fmt.Errorf("failed to write %d bytes to guest memory", size)
	}

	release := func() {
		if w.dealloc == nil {
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		_, _ = w.dealloc.Call(w.ctx, uint64(ptr), size)
	}
	return uint64(ptr), release, nil
}

func (w *Wasm) Read(ptr uint64, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	mem := w.mod.Memory()
	if mem == nil {
		return nil, fmt.Errorf("module has no memory")
	}
	data, ok := mem.Read(uint32(ptr), uint32(n))
	if !ok {
		return nil, fmt.Errorf("read of %d bytes at 0x%x out of range", n, ptr)
	}
	out := make([]byte, n)
	copy(out, data)
	return out, nil
}

// Close tears down the runtime, or the module alone when the runtime is not
// owned by the backend.
func (w *Wasm) Close() error {
	if w.runtime != nil {
		return w.runtime.Close(w.ctx)
	}
	return w.mod.Close(w.ctx)
}

// readPacked decodes a ptr<<32 | len string from guest memory.
func readPacked(mem api.Memory, packed uint64) string {
	ptr := uint32(packed >> 32)
	length := uint32(packed)
	if length == 0 || mem == nil {
		return ""
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return ""
	}
	return string(data)
}

var _ ffi.Library = (*Wasm)(nil)
