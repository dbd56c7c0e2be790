package common

import "fmt"

// Assert panics with a formatted message when cond is false. Reserved for
// conditions that indicate corrupted in-memory state, never for validating
// caller-supplied input.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
