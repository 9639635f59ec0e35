package workers

import (
	"log"
	"time"

	"ticketworld/src/config"
	"ticketworld/src/db"
	"ticketworld/src/lib"
	"ticketworld/src/models"
	"ticketworld/src/types"

	"gorm.io/gorm"
)

// InvalidateExpiredReservations sweeps unpaid reservations older than the
// validity window into the invalidated state. The update is conditioned on
// status so a reservation confirmed between the read and the write is left
// alone.
func InvalidateExpiredReservations(validFor time.Duration) (int64, error) {
	con := db.GetDb()
	cutoff := time.Now().Add(-validFor)
	var swept int64
	err := con.Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&models.Reservation{}).
			Where("status = ?", types.RESERVATION_CREATED).
			Where("created_at < ?", cutoff).
			Update("status", types.RESERVATION_INVALIDATED)
		if result.Error != nil {
			return result.Error
		}
		swept = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		log.Printf("[sweeper]: invalidated %d expired reservations\n", swept)
	}
	return swept, nil
}

// StartScheduledEvents flips created events whose start date has passed to
// running.
func StartScheduledEvents() (int64, error) {
	con := db.GetDb()
	var started int64
	err := con.Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&models.Event{}).
			Where("status = ?", types.EVENT_CREATED).
			Where("start_date <= ?", time.Now()).
			Update("status", types.EVENT_RUNNING)
		if result.Error != nil {
			return result.Error
		}
		started = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if started > 0 {
		log.Printf("[sweeper]: started %d events\n", started)
	}
	return started, nil
}

// StopRunningEvents completes running events past their end date.
func StopRunningEvents() (int64, error) {
	con := db.GetDb()
	var stopped int64
	err := con.Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&models.Event{}).
			Where("status = ?", types.EVENT_RUNNING).
			Where("end_date <= ?", time.Now()).
			Update("status", types.EVENT_COMPLETED)
		if result.Error != nil {
			return result.Error
		}
		stopped = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if stopped > 0 {
		log.Printf("[sweeper]: completed %d events\n", stopped)
	}
	return stopped, nil
}

// RegisterSweeps schedules the three sweepers on the shared scheduler.
func RegisterSweeps() error {
	if _, err := lib.CreateCronJob(func() {
		if _, err := InvalidateExpiredReservations(config.RESERVATION_VALID_FOR); err != nil {
			log.Printf("[sweeper]: error invalidating reservations: %s\n", err.Error())
		}
	}, config.SWEEP_INTERVAL); err != nil {
		return err
	}
	if _, err := lib.CreateCronJob(func() {
		if _, err := StartScheduledEvents(); err != nil {
			log.Printf("[sweeper]: error starting events: %s\n", err.Error())
		}
	}, config.SWEEP_INTERVAL); err != nil {
		return err
	}
	if _, err := lib.CreateCronJob(func() {
		if _, err := StopRunningEvents(); err != nil {
			log.Printf("[sweeper]: error stopping events: %s\n", err.Error())
		}
	}, config.SWEEP_INTERVAL); err != nil {
		return err
	}
	return nil
}
