package minhash_test

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/fakelib"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/ffi"
)

// sketch is the fake native KmerMinHash.
type sketch struct {
	num, ksize     uint32
	protein, track bool
	seed, maxHash  uint64
	mins           []uint64
}

func (s *sketch) add(h uint64) {
	if s.maxHash != 0 && h > s.maxHash {
		return
	}
	i, found := slices.BinarySearch(s.mins, h)
	if found {
		return
	}
	s.mins = slices.Insert(s.mins, i, h)
	if s.num != 0 && len(s.mins) > int(s.num) {
		s.mins = s.mins[:s.num]
	}
}

func (s *sketch) compatible(o *sketch) (ffi.Code, string) {
	switch {
	case s.ksize != o.ksize:
		return ffi.CodeMismatchKSizes, "different ksizes cannot be compared"
	case s.protein != o.protein:
		return ffi.CodeMismatchDNAProt, "DNA/prot minhashes cannot be compared"
	case s.maxHash != o.maxHash:
		return ffi.CodeMismatchMaxHash, "mismatch in max_hash"
	case s.seed != o.seed:
		return ffi.CodeMismatchSeed, "mismatch in seed"
	}
	return ffi.NoError, ""
}

func hashKmer(kmer string, seed uint64) uint64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	_, _ = h.Write(b[:])
	_, _ = h.Write([]byte(kmer))
	return h.Sum64()
}

// fakeNative is a fake library exporting the KmerMinHash ABI.
type fakeNative struct {
	*fakelib.Library
	frees map[uint64]int
}

func newFakeNative() *fakeNative {
	f := &fakeNative{Library: fakelib.New(), frees: make(map[uint64]int)}
	f.register()
	return f
}

func (f *fakeNative) sketch(ptr uint64) *sketch {
	v, ok := f.Object(ptr)
	if !ok {
		f.SetPanic("called with a dangling pointer", fmt.Sprintf("use after free of 0x%x", ptr))
		return &sketch{}
	}
	return v.(*sketch)
}

func boolArg(w uint64) bool { return w != 0 }

func boolRet(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (f *fakeNative) register() {
	f.Register("kmerminhash_new", func(a ...uint64) uint64 {
		return f.NewObject(&sketch{
			num: uint32(a[0]), ksize: uint32(a[1]), protein: boolArg(a[2]),
			seed: a[3], maxHash: a[4], track: boolArg(a[5]),
		})
	})
	f.Register("kmerminhash_free", func(a ...uint64) uint64 {
		f.frees[a[0]]++
		f.FreeObject(a[0])
		return 0
	})
	f.Register("kmerminhash_add_hash", func(a ...uint64) uint64 {
		f.sketch(a[0]).add(a[1])
		return 0
	})
	f.Register("kmerminhash_add_sequence", func(a ...uint64) uint64 {
		s := f.sketch(a[0])
		raw, ok := f.Load(a[1])
		if !ok {
			f.SetError(ffi.CodeInternal, "sequence not in native memory")
			return 0
		}
		seq := strings.ToUpper(string(raw))
		valid := "ACGTN"
		if s.protein {
			valid = "ACDEFGHIKLMNPQRSTVWXY*"
		}
		for _, c := range seq {
			if !strings.ContainsRune(valid, c) && !boolArg(a[2]) {
				if s.protein {
					f.SetError(ffi.CodeInvalidProt, fmt.Sprintf("invalid protein character in input: %c", c))
				} else {
					f.SetError(ffi.CodeInvalidDNA, fmt.Sprintf("invalid DNA character in input k-mer: %c", c))
				}
				return 0
			}
		}
		k := int(s.ksize)
		for i := 0; i+k <= len(seq); i++ {
			s.add(hashKmer(seq[i:i+k], s.seed))
		}
		return 0
	})
	f.Register("kmerminhash_get_mins_size", func(a ...uint64) uint64 {
		return uint64(len(f.sketch(a[0]).mins))
	})
	f.Register("kmerminhash_get_mins", func(a ...uint64) uint64 {
		mins := f.sketch(a[0]).mins
		buf := make([]byte, 8*len(mins))
		for i, h := range mins {
			binary.NativeEndian.PutUint64(buf[i*8:], h)
		}
		return f.Store(buf)
	})
	f.Register("kmerminhash_slice_free", func(a ...uint64) uint64 {
		f.FreeMemory(a[0])
		return 0
	})
	f.Register("kmerminhash_count_common", func(a ...uint64) uint64 {
		s, o := f.sketch(a[0]), f.sketch(a[1])
		if code, msg := s.compatible(o); code != ffi.NoError {
			f.SetError(code, msg)
			return 0
		}
		var n uint64
		for _, h := range o.mins {
			if _, found := slices.BinarySearch(s.mins, h); found {
				n++
			}
		}
		return n
	})
	f.Register("kmerminhash_merge", func(a ...uint64) uint64 {
		s, o := f.sketch(a[0]), f.sketch(a[1])
		if code, msg := s.compatible(o); code != ffi.NoError {
			f.SetError(code, msg)
			return 0
		}
		for _, h := range o.mins {
			s.add(h)
		}
		return 0
	})
	f.Register("kmerminhash_ksize", func(a ...uint64) uint64 { return uint64(f.sketch(a[0]).ksize) })
	f.Register("kmerminhash_num", func(a ...uint64) uint64 { return uint64(f.sketch(a[0]).num) })
	f.Register("kmerminhash_seed", func(a ...uint64) uint64 { return f.sketch(a[0]).seed })
	f.Register("kmerminhash_max_hash", func(a ...uint64) uint64 { return f.sketch(a[0]).maxHash })
	f.Register("kmerminhash_is_protein", func(a ...uint64) uint64 {
		// Garbage above the low byte, as a C bool return may leave.
		return 0xabcd00 | boolRet(f.sketch(a[0]).protein)
	})
	f.Register("kmerminhash_track_abundance", func(a ...uint64) uint64 { return boolRet(f.sketch(a[0]).track) })
}

func openFake(t *testing.T) (*sourmash.Library, *fakeNative) {
	t.Helper()
	native := newFakeNative()
	lib := sourmash.NewLibrary(native, sourmash.Config{Logger: slog.New(slog.DiscardHandler)})
	t.Cleanup(func() { _ = lib.Close() })
	return lib, native
}
