package models

import (
	"time"

	"ticketworld/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation is the unit the state machine governs:
// created -> reserved (terminal success) or created -> invalidated
// (terminal failure). No transition leaves a terminal state. The payment/
// status pairing is backed by a database check constraint so a race that
// slips past the application cannot persist a half-paid row.
type Reservation struct {
	ID           uint                    `gorm:"primarykey" json:"id"`
	UserID       uint                    `json:"user_id,omitempty"`
	EventID      uint                    `json:"event_id,omitempty"`
	Status       types.ReservationStatus `gorm:"default:'created'" json:"status,omitempty"`
	PaymentID    *string                 `gorm:"check:chk_reservations_payment_status,(status = 'reserved' AND payment_id IS NOT NULL) OR (status <> 'reserved' AND payment_id IS NULL)" json:"payment_id,omitempty"`
	TicketNumber uuid.UUID               `gorm:"type:uuid;uniqueIndex" json:"ticket_number"`

	User       User                   `gorm:"foreignKey:user_id" json:"-"`
	Event      Event                  `gorm:"foreignKey:event_id" json:"event,omitempty"`
	EventSeats []ReservationEventSeat `gorm:"foreignKey:reservation_id" json:"event_seats,omitempty"`

	types.Timestamps
}

// InvalidReason classifies why a reservation cannot be finalized. Exactly
// one of AlreadyFinalized or len(ReservedSeats) > 0 is set.
type InvalidReason struct {
	Message          string `json:"message"`
	AlreadyFinalized bool   `json:"already_finalized,omitempty"`
	ReservedSeats    []uint `json:"reserved_seats,omitempty"`
}

func (r *Reservation) TimeElapsedSinceCreate() time.Duration {
	return time.Since(r.CreatedAt)
}

// ConflictingSeats returns ids of this reservation's held seats that are
// already locked by a different, finalized reservation for the same event.
func (r *Reservation) ConflictingSeats(tx *gorm.DB) ([]uint, error) {
	var seatIds []uint
	err := tx.
		Model(&ReservationEventSeat{}).
		Joins("JOIN reservation_event_seats other ON other.event_seat_id = reservation_event_seats.event_seat_id AND other.reservation_id <> reservation_event_seats.reservation_id").
		Joins("JOIN reservations ON reservations.id = other.reservation_id").
		Where("reservation_event_seats.reservation_id = ?", r.ID).
		Where("reservations.status = ?", types.RESERVATION_RESERVED).
		Where("reservations.event_id = ?", r.EventID).
		Distinct().
		Pluck("reservation_event_seats.event_seat_id", &seatIds).
		Error
	return seatIds, err
}

// IsValid reports whether the reservation may still be finalized. The
// returned reason lets callers distinguish a terminal state from a seat
// conflict, and in the conflict case enumerates the contested seats so the
// client can release them.
func (r *Reservation) IsValid(tx *gorm.DB) (bool, *InvalidReason) {
	if r.Status == types.RESERVATION_INVALIDATED {
		return false, &InvalidReason{Message: "Reservation is invalidated", AlreadyFinalized: true}
	}
	if r.Status == types.RESERVATION_RESERVED {
		return false, &InvalidReason{Message: "Reservation is reserved already", AlreadyFinalized: true}
	}
	seatIds, err := r.ConflictingSeats(tx)
	if err != nil {
		return false, &InvalidReason{Message: err.Error()}
	}
	if len(seatIds) > 0 {
		return false, &InvalidReason{
			Message:       "Some of the selected seats are reserved already",
			ReservedSeats: seatIds,
		}
	}
	return true, nil
}

// GetSummary builds the ticket payload for a reservation: seat numbers and
// the total cost computed from each seat's type price.
func (r *Reservation) GetSummary(tx *gorm.DB) (*types.TicketSummary, error) {
	var event Event
	if err := tx.
		Where(&Event{ID: r.EventID}).
		First(&event).
		Error; err != nil {
		return nil, err
	}
	var rows []struct {
		SeatNumber uint
		Price      uint
	}
	if err := tx.
		Model(&ReservationEventSeat{}).
		Joins("JOIN event_seats ON event_seats.id = reservation_event_seats.event_seat_id").
		Joins("JOIN event_seat_types ON event_seat_types.id = event_seats.event_seat_type_id").
		Where("reservation_event_seats.reservation_id = ?", r.ID).
		Select("event_seats.seat_number AS seat_number", "event_seat_types.price AS price").
		Order("event_seats.seat_number asc").
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}
	summary := types.TicketSummary{
		EventName:     event.Name,
		ReservationID: r.ID,
		TicketNumber:  r.TicketNumber.String(),
		NumberOfSeats: len(rows),
		SeatNumbers:   make([]uint, 0, len(rows)),
	}
	for _, row := range rows {
		summary.TotalCost += row.Price
		summary.SeatNumbers = append(summary.SeatNumbers, row.SeatNumber)
	}
	return &summary, nil
}
