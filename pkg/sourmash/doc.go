// Package sourmash binds the native sourmash library.
//
// Open selects a backend (a dlopen'ed shared object, a cgo-linked build or a
// WebAssembly module), and every native call made through the returned Library
// is routed through one dispatcher that initializes the library once, clears
// the native error slot before each call and converts any reported failure into
// an *Error:
//
//	lib, err := sourmash.Open(sourmash.Config{Path: "/usr/local/lib/libsourmash.so"})
//	if err != nil {
//		return err
//	}
//	defer lib.Close()
//
//	mh, err := minhash.New(lib, minhash.Params{Num: 500, KSize: 31})
//	if err != nil {
//		return err
//	}
//	defer mh.Close()
//
// Native errors are matched by kind with errors.Is and inspected with
// errors.As:
//
//	if errors.Is(err, sourmash.ErrInvalidDNA) { ... }
//
//	var nerr *sourmash.Error
//	if errors.As(err, &nerr) {
//		log.Printf("code=%d panic=%q", nerr.Code, nerr.PanicInfo)
//	}
//
// Objects created through a Library must be closed before the Library itself.
package sourmash
