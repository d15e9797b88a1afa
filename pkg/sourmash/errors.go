package sourmash

import (
	"errors"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/backend"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

// Error is a failure reported by the native library.
type Error = ffi.Error

// ClosedHandleError reports use of a released native object.
type ClosedHandleError = ffi.ClosedHandleError

// Code is a native error code.
type Code = ffi.Code

// Kind classifies native error codes.
type Kind = ffi.Kind

// Error kinds.
const (
	KindUnknown         = ffi.KindUnknown
	KindPanic           = ffi.KindPanic
	KindInternal        = ffi.KindInternal
	KindInvalidArgument = ffi.KindInvalidArgument
	KindMismatchKSizes  = ffi.KindMismatchKSizes
	KindMismatchDNAProt = ffi.KindMismatchDNAProt
	KindMismatchMaxHash = ffi.KindMismatchMaxHash
	KindMismatchSeed    = ffi.KindMismatchSeed
	KindInvalidDNA      = ffi.KindInvalidDNA
	KindInvalidProt     = ffi.KindInvalidProt
	KindIO              = ffi.KindIO
	KindUTF8            = ffi.KindUTF8
	KindParseInt        = ffi.KindParseInt
)

// ErrLibraryClosed is returned by operations on a closed Library and by calls
// through objects created from it.
var ErrLibraryClosed = ffi.ErrLibraryClosed

// Errors re-exported from the binding layer.
var (
	ErrNotBuilt       = backend.ErrNotBuilt
	ErrClosedHandle   = ffi.ErrClosedHandle
	ErrNullPointer    = ffi.ErrNullPointer
	ErrSymbolNotFound = ffi.ErrSymbolNotFound

	ErrUnknown         = ffi.ErrUnknown
	ErrPanic           = ffi.ErrPanic
	ErrInternal        = ffi.ErrInternal
	ErrInvalidArgument = ffi.ErrInvalidArgument
	ErrMismatchKSizes  = ffi.ErrMismatchKSizes
	ErrMismatchDNAProt = ffi.ErrMismatchDNAProt
	ErrMismatchMaxHash = ffi.ErrMismatchMaxHash
	ErrMismatchSeed    = ffi.ErrMismatchSeed
	ErrInvalidDNA      = ffi.ErrInvalidDNA
	ErrInvalidProt     = ffi.ErrInvalidProt
	ErrIO              = ffi.ErrIO
	ErrUTF8            = ffi.ErrUTF8
	ErrParseInt        = ffi.ErrParseInt
)

// KindOf maps a native error code to its kind; unknown codes map to
// KindUnknown.
func KindOf(code Code) Kind { return ffi.KindOf(code) }

// Codes lists every known native error code in ascending order.
func Codes() []Code { return ffi.Codes() }

// AsError returns the native error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr, true
	}
	return nil, false
}
