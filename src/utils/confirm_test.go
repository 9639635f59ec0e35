package utils

import (
	"errors"
	"log"
	"testing"

	"ticketworld/src/config"
	"ticketworld/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("[db] could not open stub connection: %s\n", err.Error())
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqldb,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("[db] could not open gorm over the stub connection: %s\n", err.Error())
	}
	db.NewDB(gormDB)
	previousEnv := config.API_ENV
	config.API_ENV = "local"
	t.Cleanup(func() {
		db.NewDB(nil)
		config.API_ENV = previousEnv
	})
	return mock
}

func expectReservationLocked(mock sqlmock.Sqlmock, status string, paymentId any) {
	mock.ExpectQuery(`SELECT \* FROM "reservations" WHERE .* FOR UPDATE`).
		WithArgs(uint(1), 1).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "event_id", "status", "payment_id"}).
			AddRow(1, 7, 2, status, paymentId))
}

func expectEligibleEvent(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WithArgs(uint(2), 1).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "status"}).
			AddRow(2, 9, "created"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "event_seats"`).
		WithArgs(uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reservation_event_seats"`).
		WithArgs(uint(2), "reserved").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
}

func expectRefundTaskCreated(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "refund_tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()
}

// A reservation that is reserved already cannot be confirmed twice; the
// second payment is scheduled for refund.
func TestConfirmPaymentDoubleConfirmAlreadyFinalized(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	expectReservationLocked(mock, "reserved", "pay_1")
	expectEligibleEvent(mock)
	mock.ExpectRollback()
	expectRefundTaskCreated(mock)

	paymentId := "pay_2"
	reservation, err := ConfirmPayment(7, 1, &paymentId)
	assert.Nil(t, reservation)

	var failed *PaymentFailedError
	assert.ErrorAs(t, err, &failed)
	var finalized *AlreadyFinalizedError
	assert.ErrorAs(t, err, &finalized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The losing confirmation locks the contested seat rows, re-validates, and
// comes back with the conflicting seat enumerated plus a refund scheduled.
func TestConfirmPaymentLoserGetsSeatConflict(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	expectReservationLocked(mock, "created", nil)
	expectEligibleEvent(mock)
	mock.ExpectQuery(`SELECT "event_seat_id" FROM "reservation_event_seats"`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"event_seat_id"}).AddRow(7).AddRow(8))
	mock.ExpectQuery(`SELECT \* FROM "event_seats" WHERE .* FOR UPDATE`).
		WithArgs(uint(7), uint(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number"}).AddRow(7, 7).AddRow(8, 8))
	mock.ExpectQuery(`SELECT DISTINCT .*event_seat_id.* FROM "reservation_event_seats"`).
		WithArgs(uint(1), "reserved", uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"event_seat_id"}).AddRow(7))
	mock.ExpectRollback()
	expectRefundTaskCreated(mock)

	paymentId := "pay_3"
	reservation, err := ConfirmPayment(7, 1, &paymentId)
	assert.Nil(t, reservation)

	var failed *PaymentFailedError
	assert.ErrorAs(t, err, &failed)
	var conflict *SeatConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint{7}, conflict.SeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// When the conditional update matches no row the reservation was finalized
// between the validity check and the write; the caller gets the terminal
// answer and the payment is scheduled for refund.
func TestConfirmPaymentConditionalUpdateLosesRace(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	expectReservationLocked(mock, "created", nil)
	expectEligibleEvent(mock)
	mock.ExpectQuery(`SELECT "event_seat_id" FROM "reservation_event_seats"`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"event_seat_id"}).AddRow(7))
	mock.ExpectQuery(`SELECT \* FROM "event_seats" WHERE .* FOR UPDATE`).
		WithArgs(uint(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number"}).AddRow(7, 7))
	mock.ExpectQuery(`SELECT DISTINCT .*event_seat_id.* FROM "reservation_event_seats"`).
		WithArgs(uint(1), "reserved", uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"event_seat_id"}))
	mock.ExpectExec(`UPDATE "reservations" SET`).
		WithArgs("pay_9", "reserved", sqlmock.AnyArg(), uint(1), "created").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	expectRefundTaskCreated(mock)

	paymentId := "pay_9"
	reservation, err := ConfirmPayment(7, 1, &paymentId)
	assert.Nil(t, reservation)

	var finalized *AlreadyFinalizedError
	assert.ErrorAs(t, err, &finalized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentRequiresPaymentID(t *testing.T) {
	reservation, err := ConfirmPayment(7, 1, nil)
	assert.Nil(t, reservation)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Error(), "payment_id")
}

// Existence hiding: a confirm against someone else's reservation reads as
// not found and never schedules a refund.
func TestConfirmPaymentHidesForeignReservation(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	expectReservationLocked(mock, "created", nil)
	mock.ExpectRollback()

	paymentId := "pay_4"
	reservation, err := ConfirmPayment(99, 1, &paymentId)
	assert.Nil(t, reservation)

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
