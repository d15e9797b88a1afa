package ffi

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/logging"
)

// Type describes a native object type.
type Type struct {
	// Name is used in diagnostics only.
	Name string
	// Dealloc frees an object of this type. Types without a native
	// destructor leave it nil.
	Dealloc Func
}

// Handle references a native object. An owned handle frees the object exactly
// once; a shared handle is a back-reference into memory owned elsewhere and
// never frees it. Releasing either kind detaches the handle.
//
// Handles are not safe for concurrent Release and use; callers sharing one
// across goroutines must synchronize themselves.
type Handle struct {
	ptr    atomic.Uint64
	shared bool
	typ    Type
	disp   *Dispatcher
}

// Wrap builds a Handle around ptr. A zero pointer means the native
// constructor failed and is rejected with ErrNullPointer.
//
// Owned handles arm a finalizer so the object is freed even if Release is never
// called; callers should still defer Release.
func Wrap(d *Dispatcher, ptr uint64, typ Type, shared bool) (*Handle, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNullPointer, typ.Name)
	}

	h := &Handle{shared: shared, typ: typ, disp: d}
	h.ptr.Store(ptr)
	if !shared {
		runtime.SetFinalizer(h, (*Handle).Release)
	}
	return h, nil
}

// Own wraps ptr as an owned handle.
func Own(d *Dispatcher, ptr uint64, typ Type) (*Handle, error) {
	return Wrap(d, ptr, typ, false)
}

// Borrow wraps ptr as a shared handle.
func Borrow(d *Dispatcher, ptr uint64, typ Type) (*Handle, error) {
	return Wrap(d, ptr, typ, true)
}

// Access returns the live pointer, or a *ClosedHandleError once the handle
// has been released. Nil and zero-value handles are closed.
func (h *Handle) Access() (uint64, error) {
	if h == nil {
		return 0, &ClosedHandleError{}
	}
	if ptr := h.ptr.Load(); ptr != 0 {
		return ptr, nil
	}
	return 0, &ClosedHandleError{Type: h.typ.Name}
}

// Shared reports whether the handle borrows its object.
func (h *Handle) Shared() bool { return h != nil && h.shared }

// Closed reports whether the handle no longer references an object.
func (h *Handle) Closed() bool { return h == nil || h.ptr.Load() == 0 }

// TypeName returns the native type name.
func (h *Handle) TypeName() string {
	if h == nil {
		return ""
	}
	return h.typ.Name
}

// Dispatcher returns the dispatcher the handle calls through.
func (h *Handle) Dispatcher() *Dispatcher {
	if h == nil {
		return nil
	}
	return h.disp
}

// Release detaches the handle and frees an owned object. Shared handles only
// drop their pointer. The pointer is cleared before the deallocator runs;
// deallocation failures are logged and otherwise dropped.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	ptr := h.ptr.Swap(0)
	if ptr == 0 || h.shared {
		return
	}
	runtime.SetFinalizer(h, nil)

	if h.typ.Dealloc == nil {
		return
	}
	_, err := h.disp.Call(h.typ.Dealloc, ptr)
	switch {
	case err == nil:
	case errors.Is(err, ErrLibraryClosed):
		h.disp.logger.Warn(context.Background(), "library closed before release, object leaked",
			"type", h.typ.Name, logging.Pointer("ptr", ptr))
	default:
		h.disp.logger.Warn(context.Background(), "native deallocation failed",
			"type", h.typ.Name, logging.Pointer("ptr", ptr), "error", err)
	}
}

// MethodCall passes the handle's live pointer to call under the dispatch
// protocol. The handle is kept reachable until the native call returns.
func MethodCall[T any](h *Handle, call func(ptr uint64) T) (T, error) {
	ptr, err := h.Access()
	if err != nil {
		var zero T
		return zero, err
	}
	rv, err := Invoke(h.disp, func() T { return call(ptr) })
	runtime.KeepAlive(h)
	return rv, err
}
