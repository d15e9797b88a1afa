package sourmash_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/fakelib"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

func TestLibraryLifecycle(t *testing.T) {
	native := fakelib.New()
	lib := sourmash.NewLibrary(native, sourmash.Config{Backend: sourmash.BackendShared, Path: "/opt/libsourmash.so"})

	assert.Equal(t, sourmash.BackendShared, lib.Backend())
	assert.Equal(t, "/opt/libsourmash.so", lib.Path())
	assert.Equal(t, sourmash.ScopeProcess, lib.Scope())
	assert.True(t, lib.Serialized(), "process-scoped libraries are always serialized")

	require.NoError(t, lib.Init())
	require.NoError(t, lib.Init())
	assert.Equal(t, 1, native.InitCalls())

	d, err := lib.Dispatcher()
	require.NoError(t, err)
	require.NotNil(t, d)

	require.NoError(t, lib.Close())
	assert.True(t, native.Closed())
	assert.ErrorIs(t, lib.Close(), sourmash.ErrLibraryClosed)
	assert.ErrorIs(t, lib.Init(), sourmash.ErrLibraryClosed)

	_, err = lib.Dispatcher()
	assert.ErrorIs(t, err, sourmash.ErrLibraryClosed)
}

func TestLibraryCloseStopsDispatch(t *testing.T) {
	native := fakelib.New()
	var calls int
	native.Register("kmerminhash_size", func(...uint64) uint64 {
		calls++
		return 3
	})
	lib := sourmash.NewLibrary(native, sourmash.Config{})

	d, err := lib.Dispatcher()
	require.NoError(t, err)
	got, err := d.CallSymbol("kmerminhash_size", 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)

	require.NoError(t, lib.Close())

	_, err = d.CallSymbol("kmerminhash_size", 0x10)
	require.ErrorIs(t, err, sourmash.ErrLibraryClosed)
	assert.Equal(t, 1, calls, "no native call after Close")
}

func TestLibraryInitFailure(t *testing.T) {
	native := fakelib.New(fakelib.WithInitHook(func(l *fakelib.Library) error {
		l.SetError(ffi.CodeInternal, "allocator unavailable")
		return nil
	}))
	lib := sourmash.NewLibrary(native, sourmash.Config{})

	err := lib.Init()
	require.ErrorIs(t, err, sourmash.ErrInternal)
	nerr, ok := sourmash.AsError(err)
	require.True(t, ok)
	assert.Equal(t, sourmash.KindInternal, nerr.Kind)
	assert.Equal(t, "allocator unavailable", nerr.Message)

	d, err := lib.Dispatcher()
	require.NoError(t, err)
	_, err = d.Call(func(...uint64) uint64 { return 1 })
	require.ErrorIs(t, err, sourmash.ErrInternal)
	assert.Equal(t, 1, native.InitCalls())
}

func TestLibrarySerializeOption(t *testing.T) {
	native := fakelib.New(fakelib.WithScope(sourmash.ScopeThread))

	lib := sourmash.NewLibrary(native, sourmash.Config{})
	assert.False(t, lib.Serialized())

	lib = sourmash.NewLibrary(native, sourmash.Config{Serialize: true})
	assert.True(t, lib.Serialized())
}

func TestNilLibrary(t *testing.T) {
	var lib *sourmash.Library
	assert.NoError(t, lib.Close())
	_, err := lib.Dispatcher()
	assert.ErrorIs(t, err, sourmash.ErrLibraryClosed)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := sourmash.Open(sourmash.Config{Backend: "jni"})
	assert.ErrorContains(t, err, "config validation failed")
}

func TestOpenSharedMissingLibrary(t *testing.T) {
	_, err := sourmash.Open(sourmash.Config{Path: filepath.Join(t.TempDir(), "libsourmash.so")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open shared backend")
}

func TestOpenWasmMissingModule(t *testing.T) {
	_, err := sourmash.Open(sourmash.Config{Backend: sourmash.BackendWasm, Path: filepath.Join(t.TempDir(), "sourmash.wasm")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenWasmInvalidModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sourmash.wasm")
	require.NoError(t, os.WriteFile(path, []byte("not wasm"), 0o600))

	_, err := sourmash.Open(sourmash.Config{Backend: sourmash.BackendWasm, Path: path})
	assert.ErrorContains(t, err, "open wasm backend")
}
