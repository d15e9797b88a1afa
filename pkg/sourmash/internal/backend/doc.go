// Package backend hosts the concrete implementations of the native library
// surface the dispatcher drives:
//
//   - OpenShared loads libsourmash at runtime with dlopen (purego, no cgo).
//   - OpenLinked uses a cgo build linked against libsourmash. It is only
//     compiled with the sourmash_cgo build tag; otherwise it returns
//     ErrNotBuilt.
//   - OpenWasm hosts a WebAssembly build of the library in wazero.
package backend
