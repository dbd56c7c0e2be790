package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultHasherDeterministic(t *testing.T) {
	a := DefaultHasher([]byte("hello"))
	b := DefaultHasher([]byte("hello"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, DefaultHasher([]byte("world")))
}

func TestDefaultHasherShardsItsPointer(t *testing.T) {
	p := DefaultHasher([]byte("hello"))
	require.NotEmpty(t, p.ShardDir())
	require.Len(t, p.ShardDir(), 2)
}

func TestBlake2b160Width(t *testing.T) {
	sum := Blake2b160([]byte("data"))
	require.Len(t, sum, 20)
}

func TestKeyedHasherDiffersByKey(t *testing.T) {
	h1 := NewKeyedHasher([]byte("key-a"))
	h2 := NewKeyedHasher([]byte("key-b"))
	require.NotEqual(t, h1([]byte("hello")), h2([]byte("hello")))
}

func TestKeyedHasherDeterministic(t *testing.T) {
	h := NewKeyedHasher([]byte("key"))
	require.Equal(t, h([]byte("hello")), h([]byte("hello")))
}

func TestKeyedHasherDiffersFromDefault(t *testing.T) {
	h := NewKeyedHasher([]byte("key"))
	require.NotEqual(t, DefaultHasher([]byte("hello")), h([]byte("hello")))
}
