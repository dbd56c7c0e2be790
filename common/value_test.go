package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultComparatorTypePrecedence(t *testing.T) {
	ordered := []Value{true, float64(1), "a", []Value{1.0}, map[string]Value{"k": 1.0}, nil}
	for i := 0; i < len(ordered)-1; i++ {
		require.Negative(t, DefaultComparator(ordered[i], ordered[i+1]), "expected %v < %v", ordered[i], ordered[i+1])
		require.Positive(t, DefaultComparator(ordered[i+1], ordered[i]))
	}
}

func TestDefaultComparatorStrings(t *testing.T) {
	require.Negative(t, DefaultComparator("a", "b"))
	require.Zero(t, DefaultComparator("abc", "abc"))
	require.Positive(t, DefaultComparator("b", "a"))
}

func TestDefaultComparatorArraysLexicographic(t *testing.T) {
	a := []Value{1.0, 2.0}
	b := []Value{1.0, 3.0}
	require.Negative(t, DefaultComparator(a, b))

	shorter := []Value{1.0}
	require.Negative(t, DefaultComparator(shorter, a))
}

func TestDefaultComparatorObjectsShorterKeySetFirst(t *testing.T) {
	small := map[string]Value{"a": 1.0}
	big := map[string]Value{"a": 1.0, "b": 2.0}
	require.Negative(t, DefaultComparator(small, big))
}

func TestDefaultComparatorObjectsKeyWiseThenValueWise(t *testing.T) {
	a := map[string]Value{"a": 1.0, "b": 2.0}
	b := map[string]Value{"a": 1.0, "c": 2.0}
	require.Negative(t, DefaultComparator(a, b))

	c := map[string]Value{"a": 1.0, "b": 3.0}
	require.Negative(t, DefaultComparator(a, c))
}

func TestValueEqual(t *testing.T) {
	require.True(t, ValueEqual(DefaultComparator, "x", "x"))
	require.False(t, ValueEqual(DefaultComparator, "x", "y"))
}
