// Package fakelib provides an in-memory stand-in for the native sourmash
// library. It implements ffi.Library with a process-wide error slot, an object
// table for fake native allocations and call counters, so the dispatcher and
// wrapper types can be exercised without a native build.
package fakelib

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

const pageSize = 0x1000

// Library is a fake native library.
type Library struct {
	scope  ffi.ErrorScope
	onInit func(*Library) error

	initCalls  atomic.Int64
	clearCalls atomic.Int64

	mu        sync.Mutex
	code      ffi.Code
	message   string
	panicInfo string
	funcs     map[string]ffi.Func
	objects   map[uint64]any
	memory    map[uint64][]byte
	next      uint64
	closed    bool
}

// Option configures a fake Library.
type Option func(*Library)

// WithScope sets the scope the fake reports. The fake's error slot is always
// process-wide; reporting ScopeThread is only useful for single-goroutine tests.
func WithScope(scope ffi.ErrorScope) Option {
	return func(l *Library) { l.scope = scope }
}

// WithInitHook runs fn inside the native init entry point. fn may report a
// failure through the error slot or by returning an error.
func WithInitHook(fn func(*Library) error) Option {
	return func(l *Library) { l.onInit = fn }
}

// New returns an empty fake library reporting ScopeProcess.
func New(opts ...Option) *Library {
	l := &Library{
		scope:   ffi.ScopeProcess,
		funcs:   make(map[string]ffi.Func),
		objects: make(map[uint64]any),
		memory:  make(map[uint64][]byte),
		next:    pageSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register exports fn under name.
func (l *Library) Register(name string, fn ffi.Func) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs[name] = fn
}

// SetError records a failure in the error slot, as native code does.
func (l *Library) SetError(code ffi.Code, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = code
	l.message = message
}

// SetPanic records a native panic with its trace.
func (l *Library) SetPanic(message, info string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = ffi.CodePanic
	l.message = message
	l.panicInfo = info
}

// InitCalls returns how many times the init entry point ran.
func (l *Library) InitCalls() int { return int(l.initCalls.Load()) }

// ClearCalls returns how many times the error slot was cleared.
func (l *Library) ClearCalls() int { return int(l.clearCalls.Load()) }

// Closed reports whether Close was called.
func (l *Library) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// NewObject stores v in the object table and returns its fake address.
func (l *Library) NewObject(v any) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	ptr := l.alloc()
	l.objects[ptr] = v
	return ptr
}

// Object returns the value stored at ptr.
func (l *Library) Object(ptr uint64) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.objects[ptr]
	return v, ok
}

// FreeObject removes ptr from the object table. Freeing an unknown address
// sets CodeInternal, which is how a double free surfaces.
func (l *Library) FreeObject(ptr uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.objects[ptr]; !ok {
		l.code = ffi.CodeInternal
		l.message = fmt.Sprintf("free of unknown object 0x%x", ptr)
		return
	}
	delete(l.objects, ptr)
}

// LiveObjects returns the number of objects not yet freed.
func (l *Library) LiveObjects() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objects)
}

// Store places a copy of data in fake native memory.
func (l *Library) Store(data []byte) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	ptr := l.alloc()
	l.memory[ptr] = append([]byte(nil), data...)
	return ptr
}

// Load returns the bytes stored at ptr.
func (l *Library) Load(ptr uint64) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.memory[ptr]
	return b, ok
}

// FreeMemory releases a Store'd region.
func (l *Library) FreeMemory(ptr uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.memory, ptr)
}

// LiveMemory returns the number of regions not yet freed.
func (l *Library) LiveMemory() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.memory)
}

func (l *Library) alloc() uint64 {
	ptr := l.next
	l.next += pageSize
	return ptr
}

// Scope implements ffi.Library.
func (l *Library) Scope() ffi.ErrorScope { return l.scope }

// Init implements ffi.Library.
func (l *Library) Init() error {
	l.initCalls.Add(1)
	if l.onInit != nil {
		return l.onInit(l)
	}
	return nil
}

// ErrClear implements ffi.Library.
func (l *Library) ErrClear() {
	l.clearCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = ffi.NoError
	l.message = ""
	l.panicInfo = ""
}

// ErrLastCode implements ffi.Library.
func (l *Library) ErrLastCode() ffi.Code {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code
}

// ErrLastMessage implements ffi.Library.
func (l *Library) ErrLastMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.message
}

// ErrPanicInfo implements ffi.Library.
func (l *Library) ErrPanicInfo() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.panicInfo
}

// Lookup implements ffi.Library.
func (l *Library) Lookup(name string) (ffi.Func, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, ok := l.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ffi.ErrSymbolNotFound, name)
	}
	return fn, nil
}

// CopyIn implements ffi.Memory.
func (l *Library) CopyIn(data []byte) (uint64, func(), error) {
	ptr := l.Store(data)
	return ptr, func() { l.FreeMemory(ptr) }, nil
}

// Read implements ffi.Memory.
func (l *Library) Read(ptr uint64, n int) ([]byte, error) {
	b, ok := l.Load(ptr)
	if !ok {
		return nil, fmt.Errorf("fakelib: no memory at 0x%x", ptr)
	}
	if n > len(b) {
		return nil, fmt.Errorf("fakelib: read of %d bytes exceeds region of %d", n, len(b))
	}
	return append([]byte(nil), b[:n]...), nil
}

// Close implements ffi.Library.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

var _ ffi.Library = (*Library)(nil)
