// Package bptreeerr defines the structured error kinds produced by the
// store, overlay and B+tree engine packages.
package bptreeerr

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind discriminates the error families described in the error handling
// design: DuplicateKey, MissingKey, NotFound, Corrupt, InProgress, Io,
// Config, Deleted.
type Kind int

const (
	_ Kind = iota
	KindDuplicateKey
	KindMissingKey
	KindNotFound
	KindCorrupt
	KindInProgress
	KindIo
	KindConfig
	KindDeleted
)

func (k Kind) String() string {
	switch k {
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindMissingKey:
		return "MissingKey"
	case KindNotFound:
		return "NotFound"
	case KindCorrupt:
		return "Corrupt"
	case KindInProgress:
		return "InProgress"
	case KindIo:
		return "Io"
	case KindConfig:
		return "Config"
	case KindDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// Error carries a Kind plus an optional payload (the offending key, pointer,
// or wrapped cause) and composes with golang.org/x/xerrors via Unwrap.
type Error struct {
	Kind    Kind
	Payload interface{}
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v: %v", e.Kind, e.Payload, e.Cause)
	}
	if e.Payload != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Payload)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err is a bptreeerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if xerrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// DuplicateKey builds the error returned by an insert against an existing key.
func DuplicateKey(key interface{}) error { return &Error{Kind: KindDuplicateKey, Payload: key} }

// MissingKey builds the error returned by an update of an absent key.
func MissingKey(key interface{}) error { return &Error{Kind: KindMissingKey, Payload: key} }

// NotFound builds the error returned when a pointer does not resolve to a node.
func NotFound(ptr interface{}) error { return &Error{Kind: KindNotFound, Payload: ptr} }

// Corrupt builds the error returned on hash verification mismatch.
func Corrupt(ptr interface{}) error { return &Error{Kind: KindCorrupt, Payload: ptr} }

// InProgress builds the error returned on an overlapping operation against a
// single tree handle.
func InProgress() error { return &Error{Kind: KindInProgress} }

// Io wraps a filesystem failure.
func Io(cause error) error { return &Error{Kind: KindIo, Cause: cause} }

// Config builds the error returned for an invalid configuration option.
func Config(reason string) error { return &Error{Kind: KindConfig, Payload: reason} }

// Deleted builds the error returned when resolving a pointer already
// discarded within the current session.
func Deleted(ptr interface{}) error { return &Error{Kind: KindDeleted, Payload: ptr} }
