package common

import "golang.org/x/xerrors"

// ErrBreak is the distinguished sentinel a RangeEach callback returns to end
// iteration early without signalling an error to the caller.
var ErrBreak = xerrors.New("common: break")

// IsBreak reports whether err is the BREAK sentinel.
func IsBreak(err error) bool {
	return xerrors.Is(err, ErrBreak)
}
