package workers

import (
	"regexp"
	"testing"
	"time"

	"ticketworld/src/config"
	"ticketworld/src/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func pinLocalEnv(t *testing.T) {
	previous := config.API_ENV
	config.API_ENV = "local"
	t.Cleanup(func() { config.API_ENV = previous })
}

func TestRecoverPendingRefundsSkipsFreshTasks(t *testing.T) {
	mock := newMockDB(t)
	staleBefore := closeToTime{expected: time.Now().Add(-config.SWEEP_INTERVAL)}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "refund_tasks"`)).
		WithArgs("pending", staleBefore).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "status", "attempts"}))

	assert.NoError(t, RecoverPendingRefunds())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecoverPendingRefundsReenqueuesStaleTasks(t *testing.T) {
	pinLocalEnv(t)
	mock := newMockDB(t)
	staleBefore := closeToTime{expected: time.Now().Add(-config.SWEEP_INTERVAL)}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "refund_tasks"`)).
		WithArgs("pending", staleBefore).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "payment_id", "reservation_id", "status", "attempts"}).
			AddRow(uuid.NewString(), "pay_1", 1, "pending", 5))

	assert.NoError(t, RecoverPendingRefunds())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryRefundRecordsAttemptAndReenqueues(t *testing.T) {
	pinLocalEnv(t)
	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "refund_tasks" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	task := models.RefundTask{ID: uuid.New(), PaymentID: "pay_1", Attempts: 0}
	retryRefund(&task)
	assert.Equal(t, uint(1), task.Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Immediate retries stop at the cap, but the task stays pending so the
// recovery sweep keeps it alive.
func TestRetryRefundLeavesExhaustedTaskPending(t *testing.T) {
	pinLocalEnv(t)
	mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "refund_tasks" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	task := models.RefundTask{ID: uuid.New(), PaymentID: "pay_1", Attempts: maxRefundAttempts - 1}
	retryRefund(&task)
	assert.Equal(t, uint(maxRefundAttempts), task.Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
