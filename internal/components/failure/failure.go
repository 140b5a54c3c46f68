// Package failure classifies the errors the pipeline expects to run into, so
// callers can decide between "log and skip" and "abort the run" without
// matching on error strings.
package failure

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Kind int

const (
	// KindUnknown is anything that was not classified, it is always logged as
	// broken so it stands out from the expected kinds.
	KindUnknown Kind = iota
	// KindNavigation is a remote/UI failure while driving the reporting form.
	KindNavigation
	// KindDownload is a failed document transfer.
	KindDownload
	// KindIntegrity is a document that is still broken after the retry cap.
	KindIntegrity
	// KindParse is a document (or its filename) that could not be understood.
	KindParse
	// KindNoData is an extracted table that is empty or has the wrong shape.
	KindNoData
	// KindSchemaViolation is a write referencing a row that does not exist or
	// breaking a uniqueness constraint.
	KindSchemaViolation
	// KindStore is an unrecoverable failure of the store itself.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindNavigation:
		return "navigation"
	case KindDownload:
		return "download"
	case KindIntegrity:
		return "integrity"
	case KindParse:
		return "parse"
	case KindNoData:
		return "no-data"
	case KindSchemaViolation:
		return "schema-violation"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Fatal reports whether an error of this kind should abort the whole run.
func (k Kind) Fatal() bool {
	return k == KindStore
}

// Expected reports whether an error of this kind is part of the normal
// partial-failure behavior (logged as a warning and skipped).
func (k Kind) Expected() bool {
	return k != KindUnknown && k != KindStore
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches a kind to err. Wrapping nil returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// New is shorthand for Wrap(kind, fmt.Errorf(format, args...)).
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

// Is reports whether err was classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromStore classifies an error returned by the database: constraint failures
// only affect the offending write, everything else is a store failure.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	if isConstraint(err) {
		return Wrap(KindSchemaViolation, err)
	}
	return Wrap(KindStore, err)
}

func isConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// extended codes (ex. SQLITE_CONSTRAINT_FOREIGNKEY) keep the primary
		// code in the low byte
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	// remote (libsql) errors only carry the message
	msg := err.Error()
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY")
}
