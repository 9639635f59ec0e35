package models

import (
	"encoding/json"
	"log"

	"ticketworld/src/config"
	"ticketworld/src/db"
	"ticketworld/src/lib"
	"ticketworld/src/lib/aws"
	"ticketworld/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RefundsQueue = "refunds"

// RefundTask persists a scheduled refund so a restart cannot lose it.
// Delivery is at-least-once; the worker dedupes by payment id.
type RefundTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	PaymentID     string             `gorm:"index" json:"-"`
	ReservationID uint               `json:"-"`
	Reason        string             `json:"-"`
	Status        types.RefundStatus `gorm:"default:'pending'" json:"-"`
	Attempts      uint               `json:"-"`

	types.Timestamps
}

// Enqueue dispatches the task to the refund queue. Local environments use
// Kafka; everywhere else goes through SQS.
func (t *RefundTask) Enqueue() error {
	payload := map[string]any{
		"task_id":        t.ID.String(),
		"payment_id":     t.PaymentID,
		"reservation_id": t.ReservationID,
		"reason":         t.Reason,
	}
	if types.Env(config.API_ENV) == types.Local {
		return lib.KafkaProduceMessage("refund-scheduler", RefundsQueue, payload)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return aws.SQSSendMessage(RefundsQueue, string(body))
}

// CreateAndEnqueueRefundTask persists a refund task and pushes it onto the
// queue. Persistence comes first so a restart between the two steps can
// replay the dispatch. Runs on its own connection: callers invoke it after
// rolling back the transaction whose failure triggered the refund.
func CreateAndEnqueueRefundTask(paymentId string, reservationId uint, reason string) (*RefundTask, error) {
	con := db.GetDb()
	task := RefundTask{
		PaymentID:     paymentId,
		ReservationID: reservationId,
		Reason:        reason,
		Status:        types.REFUND_PENDING,
	}
	err := con.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&task).Error
	})
	if err != nil {
		return nil, err
	}
	if err := task.Enqueue(); err != nil {
		log.Printf("Error enqueueing refund task [%s]: %s\n", task.ID, err.Error())
		// Left pending; the recovery sweep re-enqueues it.
	}
	return &task, nil
}
