package backend

import (
	"os"
	"runtime"
)

// EnvLibraryPath names the environment variable that overrides the location
// of the native library.
const EnvLibraryPath = "SOURMASH_LIB"

// DefaultSharedPath returns the library path used when none is configured:
// $SOURMASH_LIB if set, otherwise the platform's library file name, which the
// dynamic loader resolves through its usual search path.
func DefaultSharedPath() string {
	if p := os.Getenv(EnvLibraryPath); p != "" {
		return p
	}
	return sharedLibraryName(runtime.GOOS)
}

func sharedLibraryName(goos string) string {
	switch goos {
	case "darwin", "ios":
		return "libsourmash.dylib"
	case "windows":
		return "sourmash.dll"
	default:
		return "libsourmash.so"
	}
}
