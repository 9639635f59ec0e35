package workers

import (
	"database/sql/driver"
	"log"
	"regexp"
	"testing"
	"time"

	"ticketworld/src/db"

	"github.com/DATA-DOG/go-sqlmock"
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
	t.Cleanup(func() { db.NewDB(nil) })
	return mock
}

// closeToTime matches a time argument within two seconds of the expected
// instant.
type closeToTime struct {
	expected time.Time
}

func (c closeToTime) Match(v driver.Value) bool {
	actual, ok := v.(time.Time)
	if !ok {
		return false
	}
	diff := actual.Sub(c.expected)
	if diff < 0 {
		diff = -diff
	}
	return diff < 2*time.Second
}

func TestInvalidateExpiredReservationsSweepsOnlyCreated(t *testing.T) {
	mock := newMockDB(t)
	cutoff := closeToTime{expected: time.Now().Add(-900 * time.Second)}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "created", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	swept, err := InvalidateExpiredReservations(900 * time.Second)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateExpiredReservationsNothingToSweep(t *testing.T) {
	mock := newMockDB(t)
	cutoff := closeToTime{expected: time.Now().Add(-900 * time.Second)}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "created", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	swept, err := InvalidateExpiredReservations(900 * time.Second)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateExpiredReservationsCustomWindow(t *testing.T) {
	mock := newMockDB(t)
	cutoff := closeToTime{expected: time.Now().Add(-time.Minute)}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "created", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	swept, err := InvalidateExpiredReservations(time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartScheduledEvents(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "events" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "created", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	started, err := StartScheduledEvents()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), started)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStopRunningEvents(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "events" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "running", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	stopped, err := StopRunningEvents()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stopped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
