package utils

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"ticketworld/src/config"
	"ticketworld/src/db"
	"ticketworld/src/models"
	"ticketworld/src/types"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}

func CreateEvent(userId uint, params *types.CreateEventRequestBody) (*models.Event, error) {
	startDate, err := time.Parse(config.TIME_PARSE_FORMAT, params.StartDate)
	if err != nil {
		return nil, &ValidationError{Messages: []string{"start_date is not a valid date"}}
	}
	endDate, err := time.Parse(config.TIME_PARSE_FORMAT, params.EndDate)
	if err != nil {
		return nil, &ValidationError{Messages: []string{"end_date is not a valid date"}}
	}
	db := db.GetDb()
	var event models.Event
	err = db.Transaction(func(tx *gorm.DB) error {
		var venue models.Venue
		if err := tx.
			Where(&models.Venue{ID: params.VenueID}).
			First(&venue).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "venue"}
			}
			return err
		}
		var overlapping int64
		if err := tx.
			Model(&models.Event{}).
			Where("venue_id = ?", params.VenueID).
			Where("start_date < ? AND end_date > ?", endDate, startDate).
			Count(&overlapping).
			Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return &ValidationError{Messages: []string{"venue is already booked for the selected time range"}}
		}
		event = models.Event{
			Name:        params.Name,
			Slug:        slug.Make(params.Name),
			Description: params.Description,
			Status:      types.EVENT_CREATED,
			StartDate:   startDate,
			EndDate:     endDate,
			UserID:      userId,
			VenueID:     params.VenueID,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		for _, seatType := range models.DefaultSeatTypes {
			seatType.EventID = event.ID
			if err := tx.Create(&seatType).Error; err != nil {
				return err
			}
		}
		if len(params.Tags) > 0 {
			var tags []*models.EventTag
			if err := tx.
				Where("id IN ?", params.Tags).
				Find(&tags).
				Error; err != nil {
				return err
			}
			if err := tx.Model(&event).Association("Tags").Append(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateSeatType adds a seat type to an event the caller owns and seeds
// SeatCount physical seats. Seat numbers continue the event-wide ordinal
// sequence so contiguity checks work across seat types.
func CreateSeatType(userId uint, params *types.CreateSeatTypeRequestBody) (*models.EventSeatType, error) {
	db := db.GetDb()
	var seatType models.EventSeatType
	err := db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.
			Where(&models.Event{ID: params.EventID}).
			First(&event).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "event"}
			}
			return err
		}
		if event.UserID != userId {
			return &ForbiddenError{Resource: "event"}
		}
		seatType = models.EventSeatType{
			Name:    params.Name,
			Info:    params.Info,
			Price:   params.Price,
			EventID: params.EventID,
		}
		if err := tx.Create(&seatType).Error; err != nil {
			return err
		}
		if params.SeatCount > 0 {
			next, err := models.NextSeatNumber(tx, params.EventID)
			if err != nil {
				return err
			}
			for i := uint(0); i < params.SeatCount; i++ {
				seat := models.EventSeat{
					SeatNumber:      next + i,
					EventSeatTypeID: seatType.ID,
				}
				if err := tx.Create(&seat).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &seatType, nil
}

// CreateReservation opens a reservation against an eligible event. The
// houseful check here is advisory only; the authoritative check happens
// again under lock at payment confirmation.
func CreateReservation(userId uint, eventId uint) (*models.Reservation, error) {
	db := db.GetDb()
	var reservation models.Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.
			Where(&models.Event{ID: eventId}).
			First(&event).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "event"}
			}
			return err
		}
		if ok, message := event.IsEligibleForReservation(tx); !ok {
			return &IneligibleEventError{Message: message}
		}
		reservation = models.Reservation{
			UserID:       userId,
			EventID:      eventId,
			Status:       types.RESERVATION_CREATED,
			TicketNumber: uuid.New(),
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ValidateSeatGroup applies the batch shape rules to a set of seat
// numbers: even cardinality and a contiguous block (sorted ascending, no
// gap greater than 1 between neighbours). Violations accumulate.
func ValidateSeatGroup(seatNumbers []uint) []string {
	messages := []string{}
	if len(seatNumbers)%2 != 0 {
		messages = append(messages, "You can only buy tickets in quantity that is even")
	}
	if len(seatNumbers) > 1 {
		sorted := make([]uint, len(seatNumbers))
		copy(sorted, seatNumbers)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		previous := sorted[0]
		for _, each := range sorted[1:] {
			if each-previous > 1 {
				messages = append(messages, "All seats should be around each other")
				break
			}
			previous = each
		}
	}
	return messages
}

// AddSeatHolds batch-creates hold entries for one reservation. Every rule
// is evaluated and the violations are returned together; nothing is
// persisted unless the whole batch is clean. Seats held by other
// non-finalized reservations are deliberately NOT rejected here: holding
// is optimistic and the first reservation to pay wins.
func AddSeatHolds(userId uint, params *types.CreateSeatHoldsRequestBody) ([]models.ReservationEventSeat, error) {
	verr := &ValidationError{}
	seen := map[uint]bool{}
	for _, id := range params.SeatIDs {
		if seen[id] {
			verr.Add(fmt.Sprintf("seat %d appears more than once in the request", id))
		}
		seen[id] = true
	}
	db := db.GetDb()
	var holds []models.ReservationEventSeat
	var conflictSeats []uint
	err := db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Where(&models.Reservation{ID: params.ReservationID}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "reservation"}
			}
			return err
		}
		if reservation.UserID != userId {
			return &NotFoundError{Resource: "reservation"}
		}
		if reservation.Status != types.RESERVATION_CREATED {
			verr.Add("Reservation is not open for seat selection")
		}
		var event models.Event
		if err := tx.
			Where(&models.Event{ID: reservation.EventID}).
			First(&event).
			Error; err != nil {
			return err
		}
		if ok, message := event.IsEligibleForReservation(tx); !ok {
			verr.Add(message)
		}
		var seats []models.EventSeat
		if err := tx.
			Preload("EventSeatType").
			Where("id IN ?", params.SeatIDs).
			Find(&seats).
			Error; err != nil {
			return err
		}
		if len(seats) != len(seen) {
			return &NotFoundError{Resource: "event seat"}
		}
		seatNumbers := make([]uint, 0, len(seats))
		for _, seat := range seats {
			seatNumbers = append(seatNumbers, seat.SeatNumber)
			if seat.EventSeatType.EventID != reservation.EventID {
				verr.Add(fmt.Sprintf("event of both reservation and seat %d didn't match", seat.ID))
			}
		}
		for _, message := range ValidateSeatGroup(seatNumbers) {
			verr.Add(message)
		}
		var reserved []uint
		if err := tx.
			Model(&models.ReservationEventSeat{}).
			Joins("JOIN reservations ON reservations.id = reservation_event_seats.reservation_id").
			Where("reservation_event_seats.event_seat_id IN ?", params.SeatIDs).
			Where("reservations.status = ?", types.RESERVATION_RESERVED).
			Distinct().
			Pluck("reservation_event_seats.event_seat_id", &reserved).
			Error; err != nil {
			return err
		}
		if len(reserved) > 0 {
			conflictSeats = reserved
			verr.Add("Seat is already reserved.")
		}
		var duplicates []uint
		if err := tx.
			Model(&models.ReservationEventSeat{}).
			Where(&models.ReservationEventSeat{ReservationID: params.ReservationID}).
			Where("event_seat_id IN ?", params.SeatIDs).
			Pluck("event_seat_id", &duplicates).
			Error; err != nil {
			return err
		}
		for _, id := range duplicates {
			verr.Add(fmt.Sprintf("seat %d is already held by this reservation", id))
		}
		if verr.HasErrors() {
			if len(conflictSeats) > 0 {
				return &SeatConflictError{Message: verr.Error(), SeatIDs: conflictSeats}
			}
			return verr
		}
		for _, seat := range seats {
			hold := models.ReservationEventSeat{
				ReservationID: params.ReservationID,
				EventSeatID:   seat.ID,
			}
			if err := tx.Create(&hold).Error; err != nil {
				if isUniqueViolation(err) {
					// A concurrent request slipped past the duplicate
					// check; the unique index is the backstop.
					return &ValidationError{Messages: []string{
						fmt.Sprintf("seat %d is already held by this reservation", seat.ID),
					}}
				}
				return err
			}
			holds = append(holds, hold)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return holds, nil
}

// ReleaseHolds deletes every hold of a non-finalized reservation.
func ReleaseHolds(userId uint, reservationId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "reservation"}
			}
			return err
		}
		if reservation.UserID != userId {
			return &NotFoundError{Resource: "reservation"}
		}
		if reservation.Status == types.RESERVATION_RESERVED {
			return &ForbiddenError{Resource: "reservation"}
		}
		// Hard delete: a lingering soft-deleted row would block re-holding
		// the same seat through the unique index.
		return tx.
			Unscoped().
			Where(&models.ReservationEventSeat{ReservationID: reservationId}).
			Delete(&models.ReservationEventSeat{}).
			Error
	})
}

// DestroyHold removes one hold entry; allowed only while the owning
// reservation is still open.
func DestroyHold(userId uint, holdId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var hold models.ReservationEventSeat
		if err := tx.
			Preload("Reservation").
			Where(&models.ReservationEventSeat{ID: holdId}).
			First(&hold).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "seat hold"}
			}
			return err
		}
		if hold.Reservation.UserID != userId {
			return &NotFoundError{Resource: "seat hold"}
		}
		if hold.Reservation.Status != types.RESERVATION_CREATED {
			return &ForbiddenError{Resource: "seat hold"}
		}
		return tx.Unscoped().Delete(&models.ReservationEventSeat{}, hold.ID).Error
	})
}

// ConfirmPayment is the transactional boundary that promotes a paid
// reservation to reserved. It re-validates event eligibility and
// reservation validity under a row lock on the reservation, then applies a
// conditional update so a concurrently finalized row is never clobbered.
// Any refund-triggering failure schedules an asynchronous refund before
// returning; the reservation itself is left untouched in that case.
func ConfirmPayment(userId uint, reservationId uint, paymentId *string) (*models.Reservation, error) {
	if paymentId == nil || *paymentId == "" {
		return nil, &ValidationError{Messages: []string{"payment_id: This field is required"}}
	}
	db := db.GetDb()
	var reservation models.Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: clause.CurrentTable},
			}).
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "reservation"}
			}
			return err
		}
		if reservation.UserID != userId {
			return &NotFoundError{Resource: "reservation"}
		}
		var event models.Event
		if err := tx.
			Where(&models.Event{ID: reservation.EventID}).
			First(&event).
			Error; err != nil {
			return err
		}
		if ok, message := event.IsEligibleForReservation(tx); !ok {
			return &PaymentFailedError{Inner: &IneligibleEventError{Message: message}}
		}
		var heldSeatIds []uint
		if err := tx.
			Model(&models.ReservationEventSeat{}).
			Where("reservation_id = ?", reservationId).
			Order("event_seat_id asc").
			Pluck("event_seat_id", &heldSeatIds).
			Error; err != nil {
			return err
		}
		if len(heldSeatIds) > 0 {
			// Lock the held seat rows before re-validating. Confirmations
			// of different reservations holding the same seat contend on
			// these rows, so the loser blocks until the winner commits and
			// then sees the conflict. Locked in id order to avoid deadlock.
			var lockedSeats []models.EventSeat
			if err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id IN ?", heldSeatIds).
				Order("id asc").
				Find(&lockedSeats).
				Error; err != nil {
				return err
			}
		}
		if ok, reason := reservation.IsValid(tx); !ok {
			if reason.AlreadyFinalized {
				return &PaymentFailedError{Inner: &AlreadyFinalizedError{Message: reason.Message}}
			}
			return &PaymentFailedError{Inner: &SeatConflictError{
				Message: reason.Message,
				SeatIDs: reason.ReservedSeats,
			}}
		}
		result := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status = ?", reservationId, types.RESERVATION_CREATED).
			Updates(map[string]any{
				"status":     types.RESERVATION_RESERVED,
				"payment_id": *paymentId,
			})
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return &PaymentFailedError{Inner: &AlreadyFinalizedError{Message: "Reservation is finalized already"}}
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race against a concurrent confirmation or the
			// expiry sweeper.
			return &PaymentFailedError{Inner: &AlreadyFinalizedError{Message: "Reservation is finalized already"}}
		}
		if err := tx.
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		var failed *PaymentFailedError
		if errors.As(err, &failed) {
			if _, enqueueErr := models.CreateAndEnqueueRefundTask(*paymentId, reservationId, failed.Inner.Error()); enqueueErr != nil {
				log.Printf("Error scheduling refund for payment [%s]: %s\n", *paymentId, enqueueErr.Error())
			}
		}
		return nil, err
	}
	go SendTicketEmail(reservation.ID)
	return &reservation, nil
}

// FinalValidation re-checks the accumulated holds of a reservation against
// the batch shape rules before the client starts the payment flow.
func FinalValidation(userId uint, reservationId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "reservation"}
			}
			return err
		}
		if reservation.UserID != userId {
			return &NotFoundError{Resource: "reservation"}
		}
		var seatNumbers []uint
		if err := tx.
			Model(&models.ReservationEventSeat{}).
			Joins("JOIN event_seats ON event_seats.id = reservation_event_seats.event_seat_id").
			Where("reservation_event_seats.reservation_id = ?", reservationId).
			Pluck("event_seats.seat_number", &seatNumbers).
			Error; err != nil {
			return err
		}
		if messages := ValidateSeatGroup(seatNumbers); len(messages) > 0 {
			return &ValidationError{Messages: messages}
		}
		if ok, reason := reservation.IsValid(tx); !ok {
			if len(reason.ReservedSeats) > 0 {
				return &SeatConflictError{Message: reason.Message, SeatIDs: reason.ReservedSeats}
			}
			return &AlreadyFinalizedError{Message: reason.Message}
		}
		return nil
	})
}

// GetEventSeatAvailability returns the derived per-seat occupancy view for
// one event.
func GetEventSeatAvailability(eventId uint) ([]types.SeatAvailability, error) {
	db := db.GetDb()
	var rows []types.SeatAvailability
	err := db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.
			Where(&models.Event{ID: eventId}).
			First(&event).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "event"}
			}
			return err
		}
		return tx.
			Model(&models.EventSeat{}).
			Joins("JOIN event_seat_types ON event_seat_types.id = event_seats.event_seat_type_id").
			Where("event_seat_types.event_id = ?", eventId).
			Select(`event_seats.id AS seat_id, event_seats.seat_number AS seat_number,
				EXISTS(
					SELECT 1 FROM reservation_event_seats
					JOIN reservations ON reservations.id = reservation_event_seats.reservation_id
					WHERE reservation_event_seats.event_seat_id = event_seats.id
					AND reservations.status = ?
				) AS occupied`, types.RESERVATION_RESERVED).
			Order("event_seats.seat_number asc").
			Scan(&rows).
			Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetVisibleReservations lists reservations the user owns plus those made
// against events the user organizes.
func GetVisibleReservations(userId uint) ([]models.Reservation, error) {
	db := db.GetDb()
	var reservations []models.Reservation
	err := db.
		Model(&models.Reservation{}).
		Where("user_id = ?", userId).
		Or("event_id IN (?)", db.Model(&models.Event{}).Select("id").Where("user_id = ?", userId)).
		Order("created_at desc").
		Limit(100).
		Find(&reservations).
		Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}
