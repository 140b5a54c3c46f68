package fcra

import (
	"context"
	"fmt"

	"fcrawatch/pkg/htmlutil"
)

// Field is one of the dependent select fields of the reporting form, they
// are always filled in this order.
type Field int

const (
	FieldYear Field = iota
	FieldQuarter
	FieldJurisdiction
	FieldSubJurisdiction
)

func (f Field) String() string {
	switch f {
	case FieldYear:
		return "year"
	case FieldQuarter:
		return "quarter"
	case FieldJurisdiction:
		return "jurisdiction"
	case FieldSubJurisdiction:
		return "sub-jurisdiction"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Session is a live connection to the reporting form. Each call is one
// interaction, callers are expected to wait for the form to settle between
// calls. A Session is not safe for concurrent use.
type Session interface {
	// Navigate (re)loads the blank form, discarding any selections.
	Navigate(ctx context.Context) error
	// Options lists the options a field currently offers, placeholders
	// included.
	Options(ctx context.Context, field Field) ([]htmlutil.Option, error)
	Select(ctx context.Context, field Field, value string) error
	Submit(ctx context.Context) error
	// Table returns the data rows of the result table (without its header
	// row) as cleaned cell text.
	Table(ctx context.Context) ([][]string, error)
}
