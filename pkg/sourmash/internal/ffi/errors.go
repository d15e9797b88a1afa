package ffi

import (
	"errors"
	"fmt"
	"sort"
)

// Code is the numeric error code reported through the native error slot.
type Code int32

// Error codes defined by the native library.
const (
	NoError Code = 0

	CodePanic           Code = 1
	CodeInternal        Code = 2
	CodeInvalidArgument Code = 3
	CodeUnknown         Code = 4

	CodeMismatchKSizes  Code = 101
	CodeMismatchDNAProt Code = 102
	CodeMismatchMaxHash Code = 103
	CodeMismatchSeed    Code = 104

	CodeInvalidDNA  Code = 1101
	CodeInvalidProt Code = 1102

	CodeIO       Code = 100001
	CodeUTF8     Code = 100002
	CodeParseInt Code = 100003
)

// Kind classifies native errors. Codes the bindings do not recognize map to
// KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindPanic
	KindInternal
	KindInvalidArgument
	KindMismatchKSizes
	KindMismatchDNAProt
	KindMismatchMaxHash
	KindMismatchSeed
	KindInvalidDNA
	KindInvalidProt
	KindIO
	KindUTF8
	KindParseInt
)

// Sentinels matched by errors.Is against an *Error of the corresponding kind.
var (
	ErrUnknown         = errors.New("sourmash: unknown native error")
	ErrPanic           = errors.New("sourmash: native panic")
	ErrInternal        = errors.New("sourmash: internal error")
	ErrInvalidArgument = errors.New("sourmash: invalid argument")
	ErrMismatchKSizes  = errors.New("sourmash: different ksizes cannot be compared")
	ErrMismatchDNAProt = errors.New("sourmash: DNA and protein sketches cannot be compared")
	ErrMismatchMaxHash = errors.New("sourmash: mismatch in max_hash")
	ErrMismatchSeed    = errors.New("sourmash: mismatch in seed")
	ErrInvalidDNA      = errors.New("sourmash: invalid DNA character in input")
	ErrInvalidProt     = errors.New("sourmash: invalid protein character in input")
	ErrIO              = errors.New("sourmash: i/o error")
	ErrUTF8            = errors.New("sourmash: invalid utf-8")
	ErrParseInt        = errors.New("sourmash: invalid integer")
)

// Local errors; these never originate on the native side.
var (
	ErrClosedHandle   = errors.New("sourmash: object is closed")
	ErrNullPointer    = errors.New("sourmash: native constructor returned a null pointer")
	ErrSymbolNotFound = errors.New("sourmash: native symbol not found")
	ErrNilDispatcher  = errors.New("sourmash: nil dispatcher")
	ErrLibraryClosed  = errors.New("sourmash: library closed")
)

var kinds = [...]struct {
	name string
	err  error
}{
	KindUnknown:         {"Unknown", ErrUnknown},
	KindPanic:           {"Panic", ErrPanic},
	KindInternal:        {"Internal", ErrInternal},
	KindInvalidArgument: {"InvalidArgument", ErrInvalidArgument},
	KindMismatchKSizes:  {"MismatchKSizes", ErrMismatchKSizes},
	KindMismatchDNAProt: {"MismatchDNAProt", ErrMismatchDNAProt},
	KindMismatchMaxHash: {"MismatchMaxHash", ErrMismatchMaxHash},
	KindMismatchSeed:    {"MismatchSeed", ErrMismatchSeed},
	KindInvalidDNA:      {"InvalidDNA", ErrInvalidDNA},
	KindInvalidProt:     {"InvalidProt", ErrInvalidProt},
	KindIO:              {"Io", ErrIO},
	KindUTF8:            {"Utf8Error", ErrUTF8},
	KindParseInt:        {"ParseInt", ErrParseInt},
}

var kindsByCode = map[Code]Kind{
	CodePanic:           KindPanic,
	CodeInternal:        KindInternal,
	CodeInvalidArgument: KindInvalidArgument,
	CodeUnknown:         KindUnknown,
	CodeMismatchKSizes:  KindMismatchKSizes,
	CodeMismatchDNAProt: KindMismatchDNAProt,
	CodeMismatchMaxHash: KindMismatchMaxHash,
	CodeMismatchSeed:    KindMismatchSeed,
	CodeInvalidDNA:      KindInvalidDNA,
	CodeInvalidProt:     KindInvalidProt,
	CodeIO:              KindIO,
	CodeUTF8:            KindUTF8,
	CodeParseInt:        KindParseInt,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kinds) {
		return kinds[KindUnknown].name
	}
	return kinds[k].name
}

// Err returns the sentinel error for the kind.
func (k Kind) Err() error {
	if k < 0 || int(k) >= len(kinds) {
		return ErrUnknown
	}
	return kinds[k].err
}

// KindOf maps a native error code to its kind. It never fails: unmapped codes
// yield KindUnknown.
func KindOf(code Code) Kind {
	if k, ok := kindsByCode[code]; ok {
		return k
	}
	return KindUnknown
}

// Kind is shorthand for KindOf(c).
func (c Code) Kind() Kind { return KindOf(c) }

// Codes lists every code in the table in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(kindsByCode))
	for c := range kindsByCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Error is a failure reported by the native library through its error slot.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
	// PanicInfo carries the native panic location and trace when the failure
	// was a panic inside the library. It is diagnostic only.
	PanicInfo string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sourmash: %s (code %d)", e.Kind, e.Code)
	}
	return fmt.Sprintf("sourmash: %s (code %d): %s", e.Kind, e.Code, e.Message)
}

// Unwrap returns the sentinel for the error's kind so that
// errors.Is(err, ErrInvalidArgument) works.
func (e *Error) Unwrap() error {
	return e.Kind.Err()
}

// ClosedHandleError reports access to a released or never-set Handle.
type ClosedHandleError struct {
	// Type is the native type name of the handle, when known.
	Type string
}

func (e *ClosedHandleError) Error() string {
	if e.Type == "" {
		return ErrClosedHandle.Error()
	}
	return fmt.Sprintf("sourmash: %s object is closed", e.Type)
}

// Is reports whether target is ErrClosedHandle.
func (e *ClosedHandleError) Is(target error) bool {
	return target == ErrClosedHandle
}
