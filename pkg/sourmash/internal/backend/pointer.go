package backend

import "unsafe"

// nativePointer turns an address returned by native code into a pointer.
// The memory lives outside the Go heap, so the collector never moves it.
func nativePointer(p uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&p))
}
