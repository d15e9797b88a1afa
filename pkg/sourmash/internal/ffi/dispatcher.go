package ffi

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/logging"
)

// Dispatcher routes every native call through the init-once gate and the
// error-slot protocol of a Library.
type Dispatcher struct {
	lib    Library
	logger logging.Logger
	serial bool

	once    sync.Once
	initErr error
	mu      sync.Mutex

	// gate is held shared by every call and exclusively by Close.
	gate   sync.RWMutex
	closed bool

	symbols sync.Map // string -> Func
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger routes dispatcher diagnostics to logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSerialization forces Invoke to hold a process-wide lock regardless of
// the library's reported scope.
func WithSerialization() Option {
	return func(d *Dispatcher) { d.serial = true }
}

// NewDispatcher returns a Dispatcher driving lib. The library is not
// initialized until the first call.
func NewDispatcher(lib Library, opts ...Option) *Dispatcher {
	d := &Dispatcher{lib: lib, logger: logging.New(nil)}
	for _, opt := range opts {
		opt(d)
	}
	if lib.Scope() == ScopeProcess {
		d.serial = true
	}
	return d
}

// Library returns the backend the dispatcher drives.
func (d *Dispatcher) Library() Library { return d.lib }

// Serialized reports whether Invoke calls are mutually exclusive.
func (d *Dispatcher) Serialized() bool { return d.serial }

// Init runs the native initialization entry point if it has not run yet.
// Concurrent callers block until the first one finishes. A failed
// initialization is recorded and returned from every later call.
func (d *Dispatcher) Init() error {
	d.gate.RLock()
	defer d.gate.RUnlock()
	if d.closed {
		return ErrLibraryClosed
	}
	return d.initialize()
}

func (d *Dispatcher) initialize() error {
	d.once.Do(func() {
		if d.serial {
			d.mu.Lock()
			defer d.mu.Unlock()
		}
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		d.lib.ErrClear()
		if err := d.lib.Init(); err != nil {
			d.initErr = fmt.Errorf("initialize native library: %w", err)
		} else if code := d.lib.ErrLastCode(); code != NoError {
			d.initErr = fmt.Errorf("initialize native library: %w", d.translate(code))
		}
		if d.initErr != nil {
			d.logger.Error(context.Background(), "native library initialization failed",
				"error", d.initErr)
			return
		}
		d.logger.Debug(context.Background(), "native library initialized",
			"scope", d.lib.Scope().String(), "serialized", d.serial)
	})
	return d.initErr
}

// Close stops the dispatcher. Later calls fail with ErrLibraryClosed and
// in-flight calls finish first. It reports whether this call closed it.
func (d *Dispatcher) Close() bool {
	d.gate.Lock()
	defer d.gate.Unlock()
	if d.closed {
		return false
	}
	d.closed = true
	return true
}

// Closed reports whether Close has been called.
func (d *Dispatcher) Closed() bool {
	d.gate.RLock()
	defer d.gate.RUnlock()
	return d.closed
}

// Invoke performs call under the dispatch protocol: initialize once, clear the
// error slot, call, then check the slot. A pending error code always wins over
// the call's return value, which is discarded in favour of the zero value.
func Invoke[T any](d *Dispatcher, call func() T) (T, error) {
	var zero T

	d.gate.RLock()
	defer d.gate.RUnlock()
	if d.closed {
		return zero, ErrLibraryClosed
	}
	if err := d.initialize(); err != nil {
		return zero, err
	}

	if d.serial {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	d.lib.ErrClear()
	rv := call()
	code := d.lib.ErrLastCode()
	if code == NoError {
		return rv, nil
	}
	return zero, d.translate(code)
}

// translate must run on the thread that observed code.
func (d *Dispatcher) translate(code Code) error {
	err := &Error{
		Code:      code,
		Kind:      KindOf(code),
		Message:   d.lib.ErrLastMessage(),
		PanicInfo: d.lib.ErrPanicInfo(),
	}
	d.logger.Debug(context.Background(), "native call failed",
		"code", int32(code), "kind", err.Kind.String(), "message", err.Message)
	return err
}

// Call invokes fn with word arguments under the dispatch protocol.
func (d *Dispatcher) Call(fn Func, args ...uint64) (uint64, error) {
	return Invoke(d, func() uint64 { return fn(args...) })
}

// Symbol resolves a native entry point, caching the result.
func (d *Dispatcher) Symbol(name string) (Func, error) {
	if fn, ok := d.symbols.Load(name); ok {
		return fn.(Func), nil
	}
	fn, err := d.lib.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	actual, _ := d.symbols.LoadOrStore(name, fn)
	return actual.(Func), nil
}

// CallSymbol resolves name and calls it with args.
func (d *Dispatcher) CallSymbol(name string, args ...uint64) (uint64, error) {
	fn, err := d.Symbol(name)
	if err != nil {
		return 0, err
	}
	return d.Call(fn, args...)
}
