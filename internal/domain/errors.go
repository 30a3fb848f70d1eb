package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSeatCapacity is wrapped when a seat is added to a full selection.
	ErrSeatCapacity = errors.New("seat selection is full")
	// ErrInvalidPromoCode is wrapped when a non-empty promo code is not in the table.
	ErrInvalidPromoCode = errors.New("invalid promo code")
	// ErrSeatCountMismatch is wrapped when seats and passengers disagree in number.
	ErrSeatCountMismatch = errors.New("seat count does not match passenger count")
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// StaleAvailabilityError reports a seat that was free at selection time but
// is booked by the time the booking is created.
type StaleAvailabilityError struct {
	SeatNumber int
	Msg        string
	Err        error
}

func (e StaleAvailabilityError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "seat is no longer available"
	}
	if e.SeatNumber > 0 {
		return fmt.Sprintf("seat %d: %s", e.SeatNumber, msg)
	}
	return msg
}

func (e StaleAvailabilityError) Unwrap() error { return e.Err }

// SessionIntegrityError aborts a resumed session before any booking call.
type SessionIntegrityError struct {
	Reason string
	Err    error
}

func (e SessionIntegrityError) Error() string {
	if e.Reason == "" {
		return "booking session cannot be recovered"
	}
	return "booking session cannot be recovered: " + e.Reason
}

func (e SessionIntegrityError) Unwrap() error { return e.Err }

// PartialMaterializationError means some passengers were booked and some were not.
type PartialMaterializationError struct {
	Confirmed int
	Failed    int
}

func (e PartialMaterializationError) Error() string {
	return fmt.Sprintf("%d booking(s) confirmed, %d failed; contact support for the remaining seats", e.Confirmed, e.Failed)
}

// TotalMaterializationFailure means payment was captured but no booking exists.
type TotalMaterializationFailure struct {
	PaymentSessionID string
	Failed           int
}

func (e TotalMaterializationFailure) Error() string {
	if e.PaymentSessionID == "" {
		return fmt.Sprintf("payment received but none of %d booking(s) could be created; contact support", e.Failed)
	}
	return fmt.Sprintf("payment %s received but none of %d booking(s) could be created; contact support", e.PaymentSessionID, e.Failed)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsStaleAvailability(err error) bool {
	var target StaleAvailabilityError
	return errors.As(err, &target)
}

func IsSessionIntegrity(err error) bool {
	var target SessionIntegrityError
	return errors.As(err, &target)
}

func IsPartialMaterialization(err error) bool {
	var target PartialMaterializationError
	return errors.As(err, &target)
}

func IsTotalMaterializationFailure(err error) bool {
	var target TotalMaterializationFailure
	return errors.As(err, &target)
}
