package minhash

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

// Native entry points.
const (
	symNew            = "kmerminhash_new"
	symFree           = "kmerminhash_free"
	symAddHash        = "kmerminhash_add_hash"
	symAddSequence    = "kmerminhash_add_sequence"
	symMinsSize       = "kmerminhash_get_mins_size"
	symMins           = "kmerminhash_get_mins"
	symSliceFree      = "kmerminhash_slice_free"
	symCountCommon    = "kmerminhash_count_common"
	symMerge          = "kmerminhash_merge"
	symKSize          = "kmerminhash_ksize"
	symNum            = "kmerminhash_num"
	symIsProtein      = "kmerminhash_is_protein"
	symSeed           = "kmerminhash_seed"
	symMaxHash        = "kmerminhash_max_hash"
	symTrackAbundance = "kmerminhash_track_abundance"
)

// Symbols lists the native entry points the package calls.
func Symbols() []string {
	return []string{
		symNew, symFree, symAddHash, symAddSequence, symMinsSize, symMins,
		symSliceFree, symCountCommon, symMerge, symKSize, symNum,
		symIsProtein, symSeed, symMaxHash, symTrackAbundance,
	}
}

// TypeName identifies KmerMinHash handles in errors and logs.
const TypeName = "KmerMinHash"

// DefaultSeed is the hash seed used when Params.Seed is zero.
const DefaultSeed uint64 = 42

// Params describes a new sketch.
type Params struct {
	// Num is the maximum number of hashes kept; zero keeps every hash below
	// MaxHash.
	Num uint32
	// KSize is the k-mer length.
	KSize uint32
	// Protein selects amino acid k-mers.
	Protein bool
	// Seed is the murmur hash seed. Zero selects DefaultSeed.
	Seed uint64
	// MaxHash bounds accepted hash values; zero means unbounded.
	MaxHash uint64
	// TrackAbundance keeps per-hash counts.
	TrackAbundance bool
}

// MinHash is a native KmerMinHash sketch.
type MinHash struct {
	h *ffi.Handle
}

// New allocates a sketch in the native library.
func New(lib *sourmash.Library, p Params) (*MinHash, error) {
	d, err := lib.Dispatcher()
	if err != nil {
		return nil, err
	}
	typ, err := minHashType(d)
	if err != nil {
		return nil, err
	}
	if p.Seed == 0 {
		p.Seed = DefaultSeed
	}

	ptr, err := d.CallSymbol(symNew,
		uint64(p.Num), uint64(p.KSize), boolWord(p.Protein),
		p.Seed, p.MaxHash, boolWord(p.TrackAbundance))
	if err != nil {
		return nil, fmt.Errorf("create minhash: %w", err)
	}
	h, err := ffi.Own(d, ptr, typ)
	if err != nil {
		return nil, fmt.Errorf("create minhash: %w", err)
	}
	return &MinHash{h: h}, nil
}

// FromPointer wraps a KmerMinHash pointer returned by another native call. A
// shared sketch is never freed by the bindings; an owned one is freed by
// Close.
func FromPointer(lib *sourmash.Library, ptr uint64, shared bool) (*MinHash, error) {
	d, err := lib.Dispatcher()
	if err != nil {
		return nil, err
	}
	typ, err := minHashType(d)
	if err != nil {
		return nil, err
	}
	h, err := ffi.Wrap(d, ptr, typ, shared)
	if err != nil {
		return nil, err
	}
	return &MinHash{h: h}, nil
}

func minHashType(d *ffi.Dispatcher) (ffi.Type, error) {
	free, err := d.Symbol(symFree)
	if err != nil {
		return ffi.Type{}, err
	}
	return ffi.Type{Name: TypeName, Dealloc: free}, nil
}

// Close frees the native sketch. It is safe to call more than once.
func (m *MinHash) Close() error {
	if m != nil {
		m.h.Release()
	}
	return nil
}

// Closed reports whether the sketch has been closed.
func (m *MinHash) Closed() bool { return m == nil || m.h.Closed() }

// Shared reports whether the native object is borrowed.
func (m *MinHash) Shared() bool { return m != nil && m.h.Shared() }

// AddHash adds a precomputed hash value.
func (m *MinHash) AddHash(hash uint64) error {
	_, err := m.call(symAddHash, hash)
	return err
}

// AddSequence hashes every k-mer of seq into the sketch. Unless force is set,
// a character outside the sketch's alphabet fails with ErrInvalidDNA or
// ErrInvalidProt.
func (m *MinHash) AddSequence(seq string, force bool) error {
	h, err := m.handle()
	if err != nil {
		return err
	}
	d := h.Dispatcher()
	if d.Closed() {
		return ffi.ErrLibraryClosed
	}
	buf, release, err := d.Library().CopyIn([]byte(seq))
	if err != nil {
		return fmt.Errorf("add sequence: %w", err)
	}
	defer release()

	_, err = m.call(symAddSequence, buf, boolWord(force))
	return err
}

// Size returns the number of hashes held.
func (m *MinHash) Size() (int, error) {
	n, err := m.call(symMinsSize)
	return int(n), err
}

// Mins returns the retained hashes in ascending order.
func (m *MinHash) Mins() ([]uint64, error) {
	n, err := m.Size()
	if err != nil || n == 0 {
		return nil, err
	}
	ptr, err := m.call(symMins)
	if err != nil {
		return nil, err
	}

	d := m.h.Dispatcher()
	raw, readErr := d.Library().Read(ptr, n*8)
	if _, err := d.CallSymbol(symSliceFree, ptr, uint64(n)); err != nil {
		return nil, fmt.Errorf("free mins: %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read mins: %w", readErr)
	}

	mins := make([]uint64, n)
	for i := range mins {
		mins[i] = binary.NativeEndian.Uint64(raw[i*8:])
	}
	return mins, nil
}

// CountCommon returns how many hashes m shares with other. Sketches with
// different parameters fail with one of the mismatch errors.
func (m *MinHash) CountCommon(other *MinHash) (uint64, error) {
	return m.callWith(other, symCountCommon)
}

// Merge adds other's hashes to m.
func (m *MinHash) Merge(other *MinHash) error {
	_, err := m.callWith(other, symMerge)
	return err
}

// KSize returns the k-mer length.
func (m *MinHash) KSize() (uint32, error) {
	v, err := m.call(symKSize)
	return uint32(v), err
}

// Num returns the maximum number of hashes kept.
func (m *MinHash) Num() (uint32, error) {
	v, err := m.call(symNum)
	return uint32(v), err
}

// Seed returns the hash seed.
func (m *MinHash) Seed() (uint64, error) {
	return m.call(symSeed)
}

// MaxHash returns the upper bound on accepted hashes, zero if unbounded.
func (m *MinHash) MaxHash() (uint64, error) {
	return m.call(symMaxHash)
}

// IsProtein reports whether the sketch holds amino acid k-mers.
func (m *MinHash) IsProtein() (bool, error) {
	v, err := m.call(symIsProtein)
	return wordBool(v), err
}

// TrackAbundance reports whether per-hash counts are kept.
func (m *MinHash) TrackAbundance() (bool, error) {
	v, err := m.call(symTrackAbundance)
	return wordBool(v), err
}

// handle returns the live handle. Nil, zero-value and closed sketches fail
// with a *ffi.ClosedHandleError.
func (m *MinHash) handle() (*ffi.Handle, error) {
	if m == nil || m.h.Closed() {
		return nil, &ffi.ClosedHandleError{Type: TypeName}
	}
	return m.h, nil
}

// call invokes a method taking the sketch pointer as its first argument.
func (m *MinHash) call(name string, args ...uint64) (uint64, error) {
	h, err := m.handle()
	if err != nil {
		return 0, err
	}
	fn, err := h.Dispatcher().Symbol(name)
	if err != nil {
		return 0, err
	}
	return ffi.MethodCall(h, func(ptr uint64) uint64 {
		return fn(append([]uint64{ptr}, args...)...)
	})
}

// callWith invokes a binary method; both sketches must be open.
func (m *MinHash) callWith(other *MinHash, name string) (uint64, error) {
	oh, err := other.handle()
	if err != nil {
		return 0, err
	}
	optr, err := oh.Access()
	if err != nil {
		return 0, err
	}
	rv, err := m.call(name, optr)
	runtime.KeepAlive(other)
	return rv, err
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// wordBool reads a C bool result; only the low byte is defined.
func wordBool(w uint64) bool { return w&0xff != 0 }
