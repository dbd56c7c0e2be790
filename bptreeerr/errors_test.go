package bptreeerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesKind(t *testing.T) {
	err := DuplicateKey("k")
	require.True(t, Is(err, KindDuplicateKey))
	require.False(t, Is(err, KindMissingKey))
}

func TestIsFalseForPlainError(t *testing.T) {
	require.False(t, Is(errors.New("boom"), KindIo))
}

func TestIoWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Io(cause)
	require.True(t, Is(err, KindIo))
	require.ErrorIs(t, err, cause)
}

func TestErrorMessageIncludesPayload(t *testing.T) {
	err := MissingKey("k1")
	require.Contains(t, err.Error(), "MissingKey")
	require.Contains(t, err.Error(), "k1")
}
