package boot

import (
	"log"

	"ticketworld/src/config"
	"ticketworld/src/db"
	"ticketworld/src/lib"
	"ticketworld/src/models"
	"ticketworld/src/types"
	"ticketworld/src/workers"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Venue{},
		&models.EventTag{},
		&models.Event{},
		&models.EventSeatType{},
		&models.EventSeat{},
		&models.Reservation{},
		&models.ReservationEventSeat{},
		&models.RefundTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler registers the sweepers and starts the shared scheduler.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if err := workers.RegisterSweeps(); err != nil {
		log.Printf("Error registering sweeps: %s\n", err.Error())
		return
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// InitWorkers wires the refund pipeline: queue topology, the consumer,
// recovery of tasks stranded by a previous crash, and a periodic recovery
// sweep so undelivered refunds keep being retried for the life of the
// process.
func InitWorkers() {
	if types.Env(config.API_ENV) == types.Local {
		go lib.KafkaCreateTopics(models.RefundsQueue)
	}
	workers.RegisterRefundConsumer()
	go func() {
		if err := workers.RecoverPendingRefunds(); err != nil {
			log.Printf("Error recovering pending refunds: %s\n", err.Error())
		}
	}()
	if _, err := lib.CreateCronJob(func() {
		if err := workers.RecoverPendingRefunds(); err != nil {
			log.Printf("Error recovering pending refunds: %s\n", err.Error())
		}
	}, config.SWEEP_INTERVAL); err != nil {
		log.Printf("Error scheduling refund recovery: %s\n", err.Error())
	}
}
