package sim

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected command. No kind is fatal to the kitchen.
type ErrorKind string

const (
	// KindResourceExhausted means a shared pool (boiler, cutlery) has no room; retry later.
	KindResourceExhausted ErrorKind = "resource_exhausted"
	// KindPreconditionFailed means the caller asked for something the current state does not allow.
	KindPreconditionFailed ErrorKind = "precondition_failed"
	// KindInvalidReference means an unknown worker, batch, product or instruction.
	KindInvalidReference ErrorKind = "invalid_reference"
)

// Sentinel errors for errors.Is matching on the kind alone.
var (
	ErrResourceExhausted  = errors.New(string(KindResourceExhausted))
	ErrPreconditionFailed = errors.New(string(KindPreconditionFailed))
	ErrInvalidReference   = errors.New(string(KindInvalidReference))
)

// Reason narrows down why a command was rejected.
type Reason string

const (
	ReasonNoStock       Reason = "no_stock"
	ReasonNoBoilerSlot  Reason = "no_boiler_slot"
	ReasonNoCutlery     Reason = "no_cutlery"
	ReasonNothingToDo   Reason = "nothing_to_do"
	ReasonWorkerBusy    Reason = "worker_busy"
	ReasonEmptyStage    Reason = "empty_stage"
	ReasonNoCustomer    Reason = "no_customer"
	ReasonUnknownWorker Reason = "unknown_worker"
	ReasonUnknownBatch  Reason = "unknown_batch"
	ReasonUnknownDish   Reason = "unknown_product"
	ReasonBadDoneness   Reason = "unknown_doneness"
	ReasonBadCommand    Reason = "unknown_instruction"
)

// Error is the typed result of a rejected command. Commands that return an
// Error have performed no mutation.
type Error struct {
	Kind   ErrorKind
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.Detail)
}

// Is lets errors.Is(err, ErrResourceExhausted) and friends match by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrResourceExhausted:
		return e.Kind == KindResourceExhausted
	case ErrPreconditionFailed:
		return e.Kind == KindPreconditionFailed
	case ErrInvalidReference:
		return e.Kind == KindInvalidReference
	}
	return false
}

func exhausted(r Reason, format string, args ...any) *Error {
	return &Error{Kind: KindResourceExhausted, Reason: r, Detail: fmt.Sprintf(format, args...)}
}

func precondition(r Reason, format string, args ...any) *Error {
	return &Error{Kind: KindPreconditionFailed, Reason: r, Detail: fmt.Sprintf(format, args...)}
}

func invalidRef(r Reason, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidReference, Reason: r, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of err, or "" when err is not a kitchen *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the Reason of err, or "" when err is not a kitchen *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
