package sourmash

import (
	"context"
	"fmt"
	"os"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/backend"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/logging"
)

// Native is the ABI surface of a native library build. Open constructs one
// from Config; NewLibrary accepts any implementation.
type Native = ffi.Library

// Func is a resolved native entry point taking and returning raw words.
type Func = ffi.Func

// ErrorScope describes where a Native keeps its last error.
type ErrorScope = ffi.ErrorScope

// Error slot scopes.
const (
	ScopeThread  = ffi.ScopeThread
	ScopeProcess = ffi.ScopeProcess
)

// Library represents an opened native library and the dispatcher every call
// into it goes through.
type Library struct {
	cfg    Config
	native Native
	disp   *ffi.Dispatcher
}

// Open loads the native library selected by cfg. The library's init entry
// point runs lazily on the first native call.
func Open(cfg Config) (*Library, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	native, err := openNative(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	return NewLibrary(native, cfg), nil
}

func openNative(cfg Config) (Native, error) {
	switch cfg.Backend {
	case BackendShared:
		return backend.OpenShared(cfg.Path)
	case BackendLinked:
		return backend.OpenLinked()
	case BackendWasm:
		data, err := os.ReadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return backend.OpenWasm(context.Background(), data)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// NewLibrary wraps an already opened native library. Only cfg's Backend,
// Serialize and Logger fields are consulted.
func NewLibrary(native Native, cfg Config) *Library {
	opts := []ffi.Option{ffi.WithLogger(logging.New(cfg.Logger).With("backend", string(cfg.Backend)))}
	if cfg.Serialize {
		opts = append(opts, ffi.WithSerialization())
	}
	return &Library{
		cfg:    cfg,
		native: native,
		disp:   ffi.NewDispatcher(native, opts...),
	}
}

// Backend reports which backend the library was opened with.
func (l *Library) Backend() Backend { return l.cfg.Backend }

// Path reports the configured library location, if any.
func (l *Library) Path() string { return l.cfg.Path }

// Scope reports the native error slot's threading contract.
func (l *Library) Scope() ErrorScope { return l.native.Scope() }

// Serialized reports whether native calls are mutually exclusive.
func (l *Library) Serialized() bool { return l.disp.Serialized() }

// Init forces the native initialization entry point to run now instead of on
// the first call. An initialization failure is returned here and from every
// later native call.
func (l *Library) Init() error {
	if l == nil {
		return ErrLibraryClosed
	}
	return l.disp.Init()
}

// Dispatcher returns the call dispatcher. It is exported for wrapper
// subpackages.
func (l *Library) Dispatcher() (*ffi.Dispatcher, error) {
	if l == nil || l.disp.Closed() {
		return nil, ErrLibraryClosed
	}
	return l.disp, nil
}

// Close unloads the native library after in-flight calls finish. Calls made
// afterwards, including through objects still open, fail with
// ErrLibraryClosed; such objects are leaked rather than freed. A second Close
// returns ErrLibraryClosed.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	if !l.disp.Close() {
		return ErrLibraryClosed
	}
	if err := l.native.Close(); err != nil {
		return fmt.Errorf("close native library: %w", err)
	}
	return nil
}
