package core

import "fmt"

// ErrorKind classifies a domain failure. Every kind means the request was
// invalid or a precondition did not hold; nothing here is transient.
type ErrorKind string

const (
	KindInvalidTransition      ErrorKind = "invalid_transition"
	KindInsufficientStock      ErrorKind = "insufficient_stock"
	KindCapacityExceeded       ErrorKind = "capacity_exceeded"
	KindMissingStockParameters ErrorKind = "missing_stock_parameters"
	KindNotFound               ErrorKind = "not_found"
)

// DomainError carries a machine-readable kind alongside a human-readable
// message. Callers match with errors.Is against the exported sentinels.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any DomainError of the same kind, so
// errors.Is(err, ErrInsufficientStock) works regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	ErrInvalidTransition      = &DomainError{Kind: KindInvalidTransition}
	ErrInsufficientStock      = &DomainError{Kind: KindInsufficientStock}
	ErrCapacityExceeded       = &DomainError{Kind: KindCapacityExceeded}
	ErrMissingStockParameters = &DomainError{Kind: KindMissingStockParameters}
	ErrNotFound               = &DomainError{Kind: KindNotFound}
)

func domainErrorf(kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) *DomainError {
	return domainErrorf(KindNotFound, format, args...)
}
