package workers

import (
	"context"
	"log"
	"time"

	"ticketworld/src/config"
	"ticketworld/src/db"
	"ticketworld/src/lib"
	"ticketworld/src/lib/aws"
	"ticketworld/src/models"
	"ticketworld/src/types"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

const maxRefundAttempts = 5

// ProcessRefundMessage executes one refund task off the queue. Delivery is
// at-least-once, so a redis lock keyed by payment id guards against a
// second in-flight delivery; the terminal task status guards against
// replays after completion.
func ProcessRefundMessage(payload string) {
	taskId := gjson.Get(payload, "task_id").String()
	paymentId := gjson.Get(payload, "payment_id").String()
	if taskId == "" || paymentId == "" {
		log.Printf("[refunds]: discarding malformed message: %s\n", payload)
		return
	}
	rd := lib.GetRedisClient()
	lockKey := "refund:" + paymentId
	acquired, err := rd.SetNX(context.Background(), lockKey, taskId, 5*time.Minute).Result()
	if err != nil {
		log.Printf("[refunds]: redis error for payment [%s]: %s\n", paymentId, err.Error())
		return
	}
	if !acquired {
		log.Printf("[refunds]: refund for payment [%s] already in flight\n", paymentId)
		return
	}
	defer rd.Del(context.Background(), lockKey)

	con := db.GetDb()
	var task models.RefundTask
	if err := con.
		Where("id = ?", taskId).
		First(&task).
		Error; err != nil {
		log.Printf("[refunds]: unknown task [%s]: %s\n", taskId, err.Error())
		return
	}
	if task.Status == types.REFUND_DONE {
		return
	}
	if _, err := lib.CreateRefund(task.PaymentID); err != nil {
		log.Printf("[refunds]: refund failed for payment [%s]: %s\n", task.PaymentID, err.Error())
		retryRefund(&task)
		return
	}
	err = con.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.RefundTask{}).
			Where("id = ?", task.ID).
			Updates(map[string]any{
				"status":   types.REFUND_DONE,
				"attempts": gorm.Expr("attempts + 1"),
			}).
			Error
	})
	if err != nil {
		log.Printf("[refunds]: error finalizing task [%s]: %s\n", task.ID, err.Error())
		return
	}
	log.Printf("[refunds]: refunded payment [%s] for reservation [%d]\n", task.PaymentID, task.ReservationID)
}

func retryRefund(task *models.RefundTask) {
	con := db.GetDb()
	if err := con.
		Model(&models.RefundTask{}).
		Where("id = ?", task.ID).
		Update("attempts", gorm.Expr("attempts + 1")).
		Error; err != nil {
		log.Printf("[refunds]: error recording attempt for task [%s]: %s\n", task.ID, err.Error())
	}
	task.Attempts++
	if task.Attempts >= maxRefundAttempts {
		// The recovery sweep picks it up again once it has gone stale.
		log.Printf("[refunds]: task [%s] exhausted immediate retries; left pending for recovery\n", task.ID)
		return
	}
	if err := task.Enqueue(); err != nil {
		log.Printf("[refunds]: error re-enqueueing task [%s]: %s\n", task.ID, err.Error())
	}
}

// RegisterRefundConsumer attaches ProcessRefundMessage to the refund queue.
// Local environments consume from Kafka; everywhere else long-polls SQS.
func RegisterRefundConsumer() {
	if types.Env(config.API_ENV) == types.Local {
		lib.KafkaConsumeTopic("refund-workers", models.RefundsQueue, ProcessRefundMessage)
		return
	}
	consumer := aws.NewSQSConsumer(models.RefundsQueue, ProcessRefundMessage)
	consumer.Listen()
}

// RecoverPendingRefunds re-enqueues refund tasks that never reached the
// done state: crash leftovers and tasks whose immediate retries ran out.
// Runs at boot and then periodically, so a pending refund is retried until
// it succeeds. The staleness window keeps it from double-dispatching tasks
// that are still in flight.
func RecoverPendingRefunds() error {
	con := db.GetDb()
	var tasks []models.RefundTask
	if err := con.
		Where(&models.RefundTask{Status: types.REFUND_PENDING}).
		Where("updated_at < ?", time.Now().Add(-config.SWEEP_INTERVAL)).
		Find(&tasks).
		Error; err != nil {
		return err
	}
	for _, task := range tasks {
		if err := task.Enqueue(); err != nil {
			log.Printf("[refunds]: error recovering task [%s]: %s\n", task.ID, err.Error())
		}
	}
	if len(tasks) > 0 {
		log.Printf("[refunds]: re-enqueued %d pending refund tasks\n", len(tasks))
	}
	return nil
}
