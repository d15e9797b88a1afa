// Package ffi is the boundary between Go and the native sourmash library.
//
// Two pieces live here and every wrapper type in the module is built on them:
//
//   - Dispatcher is the single choke-point for native calls. It runs the
//     library's init entry point exactly once, clears the native error slot,
//     performs the call, and turns a non-zero error code into an *Error.
//
//   - Handle owns (or borrows) a native object pointer. It refuses access once
//     released and frees owned objects exactly once, either explicitly or from
//     a finalizer when the owning wrapper becomes unreachable.
//
// # Threading
//
// The native library keeps its last error in thread-local storage. Goroutines
// move between OS threads, so Invoke pins the calling goroutine to its thread
// for the whole clear/call/check sequence. Libraries whose error slot is
// process-wide report ScopeProcess and Invoke additionally serializes callers.
//
// Invoke must not be called from inside another Invoke's call function.
package ffi
