// Package logging provides a minimal logging facade for the sourmash bindings.
//
// This package defines a Logger interface that wraps a subset of the standard
// library's log/slog functionality. The dispatcher and handle layer report
// native initialization, translated native failures and deallocation problems
// through it.
//
// # Default Implementation
//
//	// Use default logger (slog.Default())
//	logger := logging.New(nil)
//
//	// Use custom slog.Logger
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	customLogger := logging.New(slog.New(handler))
//
// # Levels
//
//   - Debug: library initialization, every native error translated into a Go error
//   - Warn: failures reported while deallocating a native object; these are
//     never returned to callers because they happen during teardown
package logging
