package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSeatGroupAcceptsContiguousEvenBlock(t *testing.T) {
	messages := ValidateSeatGroup([]uint{5, 6, 7, 8})
	assert.Empty(t, messages)
}

func TestValidateSeatGroupAcceptsUnsortedInput(t *testing.T) {
	messages := ValidateSeatGroup([]uint{8, 5, 7, 6})
	assert.Empty(t, messages)
}

func TestValidateSeatGroupAcceptsPair(t *testing.T) {
	messages := ValidateSeatGroup([]uint{12, 13})
	assert.Empty(t, messages)
}

func TestValidateSeatGroupRejectsOddCount(t *testing.T) {
	messages := ValidateSeatGroup([]uint{5, 6, 7})
	assert.Contains(t, messages, "You can only buy tickets in quantity that is even")
}

func TestValidateSeatGroupRejectsGap(t *testing.T) {
	messages := ValidateSeatGroup([]uint{5, 6, 9, 10})
	assert.Contains(t, messages, "All seats should be around each other")
}

func TestValidateSeatGroupAccumulatesViolations(t *testing.T) {
	messages := ValidateSeatGroup([]uint{1, 2, 9})
	assert.Len(t, messages, 2)
}

func TestValidateSeatGroupEmptyBatch(t *testing.T) {
	messages := ValidateSeatGroup([]uint{})
	assert.Empty(t, messages)
}

func TestValidationErrorAccumulates(t *testing.T) {
	verr := &ValidationError{}
	assert.False(t, verr.HasErrors())
	verr.Add("first")
	verr.Add("second")
	assert.True(t, verr.HasErrors())
	assert.Equal(t, "first; second", verr.Error())
}

func TestPaymentFailedErrorMentionsRefund(t *testing.T) {
	inner := &AlreadyFinalizedError{Message: "Reservation is finalized already"}
	err := &PaymentFailedError{Inner: inner}
	assert.Equal(t, "Reservation is finalized already You will be refunded soon.", err.Error())

	var finalized *AlreadyFinalizedError
	assert.True(t, errors.As(err, &finalized))
}

func TestSeatConflictErrorCarriesSeatIDs(t *testing.T) {
	err := &SeatConflictError{Message: "Seat is already reserved.", SeatIDs: []uint{4, 5}}
	assert.Equal(t, "Seat is already reserved.", err.Error())
	assert.Equal(t, []uint{4, 5}, err.SeatIDs)
}
