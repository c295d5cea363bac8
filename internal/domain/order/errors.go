package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrUnauthorized is returned when the caller's store token does not
	// resolve to a store. Nothing has been written when it is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalid is matched by every error caused by a malformed or
	// inconsistent request.
	ErrInvalid = errors.New("invalid request")
)

// Kind classifies errors returned by Service.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// KindOf classifies err. Errors that are neither unauthorized nor invalid
// are internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	default:
		return KindInternal
	}
}

// ValidationError describes a rule a request violates.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// ProductNotFoundError indicates an order line references a product missing
// from the catalog.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrInvalid }

// IngestError is returned by Service.Ingest for every failure other than
// ErrUnauthorized. Submission holds the JSON of the rejected submission for
// manual reconciliation.
type IngestError struct {
	Err        error
	Submission []byte
}

func (e *IngestError) Error() string {
	return "ingest order: " + e.Err.Error()
}

func (e *IngestError) Unwrap() error { return e.Err }
