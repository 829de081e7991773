// Package apperrors holds the error taxonomy shared by the monitor pipeline.
// Callers classify failures with errors.As.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError rejects a config (or an action on it) before anything is persisted.
// Index is the position of the offending entry in a batch, or -1 when not batch-related.
type ValidationError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed at index %d: %s", e.Index, e.Reason)
}

// FetchError wraps a candle or contract retrieval failure. Retried on the next tick.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// OrderError means the exchange refused an order placement.
type OrderError struct {
	Symbol string
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("place order %s: %v", e.Symbol, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// NotifyError wraps a webhook failure. It is logged, never retried.
type NotifyError struct {
	Err error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify: %v", e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// Kind returns the taxonomy label for err, used when persisting exceptions.
func Kind(err error) string {
	var (
		validationErr *ValidationError
		fetchErr      *FetchError
		orderErr      *OrderError
		notifyErr     *NotifyError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &orderErr):
		return "order"
	case errors.As(err, &notifyErr):
		return "notify"
	default:
		return "internal"
	}
}
