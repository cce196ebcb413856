// Package errs holds the error taxonomy shared by the stores, repositories and
// HTTP layer.
package errs

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	// Unauthenticated means the operation needs an active identity and there is none.
	Unauthenticated = errors.ConstError("unauthenticated")
	// Unauthorized means an identity is present but lacks the role or ownership.
	Unauthorized = errors.Unauthorized
	// NotFound means the referenced document is absent.
	NotFound = errors.NotFound
	// NotValid marks rejected input or an illegal state change.
	NotValid = errors.NotValid
	// Conflict means a concurrent writer already changed the document.
	Conflict = errors.ConstError("conflict")
	// Backend marks any lower level fault from the document store or identity provider.
	Backend = errors.ConstError("backend failure")
)

func Unauthenticatedf(format string, args ...any) error {
	return errors.WithType(fmt.Errorf(format, args...), Unauthenticated)
}

func Unauthorizedf(format string, args ...any) error {
	return errors.WithType(fmt.Errorf(format, args...), Unauthorized)
}

func NotFoundf(format string, args ...any) error {
	return errors.WithType(fmt.Errorf(format, args...), NotFound)
}

func NotValidf(format string, args ...any) error {
	return errors.WithType(fmt.Errorf(format, args...), NotValid)
}

func Conflictf(format string, args ...any) error {
	return errors.WithType(fmt.Errorf(format, args...), Conflict)
}

// FromBackend classifies err as a Backend failure unless it already carries one
// of the taxonomy types. The original message is kept as is.
func FromBackend(err error) error {
	if err == nil || Classified(err) {
		return err
	}
	return errors.WithType(err, Backend)
}

// Classified reports whether err already belongs to the taxonomy.
func Classified(err error) bool {
	for _, t := range []errors.ConstError{Unauthenticated, Unauthorized, NotFound, NotValid, Conflict, Backend} {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// Is is errors.Is, re-exported so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
