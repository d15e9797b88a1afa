package ffi

// Entry points every native library build exports.
const (
	SymInit         = "sourmash_init"
	SymErrClear     = "sourmash_err_clear"
	SymErrLastCode  = "sourmash_err_get_last_code"
	SymErrLastMsg   = "sourmash_err_get_last_message"
	SymErrPanicInfo = "sourmash_err_get_panic_info"
)

// ErrorScope describes where the native library keeps its last error.
type ErrorScope int

const (
	// ScopeThread means each OS thread has its own error slot.
	ScopeThread ErrorScope = iota
	// ScopeProcess means a single error slot is shared by every caller.
	ScopeProcess
)

func (s ErrorScope) String() string {
	switch s {
	case ScopeThread:
		return "thread"
	case ScopeProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Func is a resolved native entry point. Arguments and the result travel as
// raw 64-bit words: integers are zero-extended, booleans are 0 or 1 and
// pointers are their numeric address. Functions returning void yield an
// unspecified word.
type Func func(args ...uint64) uint64

// Memory moves bytes across the boundary for the duration of a call.
type Memory interface {
	// CopyIn makes data visible to native code and returns its address. The
	// address stays valid until release is called.
	CopyIn(data []byte) (ptr uint64, release func(), err error)
	// Read copies n bytes of native memory starting at ptr.
	Read(ptr uint64, n int) ([]byte, error)
}

// Library is the native ABI surface consumed by the Dispatcher. Backends
// implement it for a dlopen'ed shared object, a cgo-linked archive or a
// WebAssembly build of the library.
type Library interface {
	Memory

	// Scope reports the threading contract of the error slot.
	Scope() ErrorScope
	// Init runs the library's initialization entry point. Errors reported
	// through the error slot are picked up by the caller; Init returns only
	// failures the slot cannot carry, such as a WebAssembly trap.
	Init() error
	// ErrClear resets the error slot.
	ErrClear()
	// ErrLastCode returns the pending error code, or NoError.
	ErrLastCode() Code
	// ErrLastMessage returns the message attached to the pending error.
	ErrLastMessage() string
	// ErrPanicInfo returns the captured native panic trace, if any.
	ErrPanicInfo() string
	// Lookup resolves an exported entry point by name.
	Lookup(name string) (Func, error)
	// Close unloads the library. Handles created from it must be released
	// first.
	Close() error
}
