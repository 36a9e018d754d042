package common

import (
	"errors"
	"fmt"
)

var (
	ErrFieldNotFound   = errors.New("field not found")
	ErrNumericParse    = errors.New("numeric parse error")
	ErrMalformedLayout = errors.New("malformed layout")
	ErrNotSupported    = errors.New("not supported")
	ErrUnreconciled    = errors.New("balance does not reconcile")
)

var kinds = []error{ErrFieldNotFound, ErrNumericParse, ErrMalformedLayout, ErrNotSupported, ErrUnreconciled}

var kindNames = map[error]string{
	ErrFieldNotFound:   "FieldNotFound",
	ErrNumericParse:    "NumericParseError",
	ErrMalformedLayout: "MalformedLayout",
	ErrNotSupported:    "NotSupported",
	ErrUnreconciled:    "Unreconciled",
}

// RowError reports the row that aborted a session.
type RowError struct {
	Index int
	Page  int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (page %d): %v", e.Index, e.Page, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy sentinel wrapped by the row error, or nil.
func (e *RowError) Kind() error {
	return KindOf(e.Err)
}

// KindOf returns the first taxonomy sentinel err wraps, or nil.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName is the stable name of err's kind, used in API responses and logs.
func KindName(err error) string {
	if kind := KindOf(err); kind != nil {
		return kindNames[kind]
	}
	return ""
}
