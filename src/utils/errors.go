package utils

import (
	"fmt"
	"strings"
)

// ErrNotFound hides resources the caller is not allowed to see as well as
// genuinely missing rows; handlers map it to 404 in both cases.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

type ForbiddenError struct {
	Resource string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("you do not have permission to modify this %s", e.Resource)
}

// ValidationError accumulates every rule the request violated so the client
// sees all problems in one response instead of fixing them one at a time.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Add(message string) {
	e.Messages = append(e.Messages, message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Messages) > 0
}

// SeatConflictError reports seats already locked by a different finalized
// reservation. SeatIDs is machine-readable so the client can release the
// losing holds and retry with other seats.
type SeatConflictError struct {
	Message string
	SeatIDs []uint
}

func (e *SeatConflictError) Error() string {
	return e.Message
}

type IneligibleEventError struct {
	Message string
}

func (e *IneligibleEventError) Error() string {
	return e.Message
}

type AlreadyFinalizedError struct {
	Message string
}

func (e *AlreadyFinalizedError) Error() string {
	return e.Message
}

// PaymentFailedError wraps any confirm-payment failure that triggered a
// compensating refund, so handlers can distinguish "payment will be
// reversed" from plain request errors.
type PaymentFailedError struct {
	Inner error
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("%s You will be refunded soon.", e.Inner.Error())
}

func (e *PaymentFailedError) Unwrap() error {
	return e.Inner
}
