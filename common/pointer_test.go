package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPointerInsertsShardPrefix(t *testing.T) {
	p := NewPointer("abcdef0123456789")
	require.Equal(t, Pointer("ab/cdef0123456789"), p)
	require.Equal(t, "ab", p.ShardDir())
}

func TestNewPointerShortDigest(t *testing.T) {
	p := NewPointer("ab")
	require.Equal(t, Pointer("ab"), p)
	require.Empty(t, p.ShardDir())
}

func TestNullPointer(t *testing.T) {
	require.True(t, NullPointer.IsNull())
	require.False(t, NewPointer("abcdef").IsNull())
}
