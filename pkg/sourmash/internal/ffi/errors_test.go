package ffi

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		code Code
		want Kind
		err  error
	}{
		{CodePanic, KindPanic, ErrPanic},
		{CodeInternal, KindInternal, ErrInternal},
		{CodeInvalidArgument, KindInvalidArgument, ErrInvalidArgument},
		{CodeUnknown, KindUnknown, ErrUnknown},
		{CodeMismatchKSizes, KindMismatchKSizes, ErrMismatchKSizes},
		{CodeMismatchDNAProt, KindMismatchDNAProt, ErrMismatchDNAProt},
		{CodeMismatchMaxHash, KindMismatchMaxHash, ErrMismatchMaxHash},
		{CodeMismatchSeed, KindMismatchSeed, ErrMismatchSeed},
		{CodeInvalidDNA, KindInvalidDNA, ErrInvalidDNA},
		{CodeInvalidProt, KindInvalidProt, ErrInvalidProt},
		{CodeIO, KindIO, ErrIO},
		{CodeUTF8, KindUTF8, ErrUTF8},
		{CodeParseInt, KindParseInt, ErrParseInt},
		{Code(-1), KindUnknown, ErrUnknown},
		{Code(99), KindUnknown, ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.code))
			assert.Equal(t, tt.want, tt.code.Kind())
			assert.Same(t, tt.err, tt.want.Err())
		})
	}
}

func TestKindOutOfRange(t *testing.T) {
	assert.Equal(t, "Unknown", Kind(-3).String())
	assert.Equal(t, "Unknown", Kind(1000).String())
	assert.Same(t, ErrUnknown, Kind(1000).Err())
}

func TestCodesSorted(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, len(kindsByCode))
	assert.True(t, sort.SliceIsSorted(codes, func(i, j int) bool { return codes[i] < codes[j] }))
	assert.NotContains(t, codes, NoError)
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Code: CodeInvalidArgument, Kind: KindInvalidArgument, Message: "ksize must be positive"}
	assert.Equal(t, "sourmash: InvalidArgument (code 3): ksize must be positive", err.Error())

	bare := &Error{Code: 77, Kind: KindUnknown}
	assert.Equal(t, "sourmash: Unknown (code 77)", bare.Error())
	assert.True(t, errors.Is(bare, ErrUnknown))
}

func TestClosedHandleErrorWithoutType(t *testing.T) {
	err := &ClosedHandleError{}
	assert.Equal(t, ErrClosedHandle.Error(), err.Error())
	assert.True(t, errors.Is(err, ErrClosedHandle))
	assert.False(t, errors.Is(err, ErrNullPointer))
}

func TestErrorScopeString(t *testing.T) {
	assert.Equal(t, "thread", ScopeThread.String())
	assert.Equal(t, "process", ScopeProcess.String())
	assert.Equal(t, "unknown", ErrorScope(9).String())
}
