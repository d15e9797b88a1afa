// Package minhash wraps the native KmerMinHash sketch.
//
// A MinHash owns its native object and must be closed when no longer needed;
// a finalizer frees objects that are dropped without Close, but the timing of
// that is up to the garbage collector. Every method returns an error wrapping
// sourmash.ErrClosedHandle once the sketch has been closed.
package minhash
