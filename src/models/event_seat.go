package models

import (
	"ticketworld/src/types"

	"gorm.io/gorm"
)

// EventSeat is a physical seat. SeatNumber is an ordinal unique within the
// whole event, not within the seat type; it is assigned on creation and
// never edited.
type EventSeat struct {
	ID              uint `gorm:"primarykey" json:"id"`
	SeatNumber      uint `gorm:"index" json:"seat_number"`
	EventSeatTypeID uint `json:"event_seat_type_id,omitempty"`

	EventSeatType EventSeatType `gorm:"foreignKey:event_seat_type_id" json:"seat_type,omitempty"`

	types.Timestamps
}

// IsOccupied reports whether a finalized reservation holds this seat.
func (s *EventSeat) IsOccupied(tx *gorm.DB) (bool, error) {
	var count int64
	err := tx.
		Model(&ReservationEventSeat{}).
		Joins("JOIN reservations ON reservations.id = reservation_event_seats.reservation_id").
		Where("reservation_event_seats.event_seat_id = ?", s.ID).
		Where("reservations.status = ?", types.RESERVATION_RESERVED).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// NextSeatNumber returns the next free event-wide ordinal for the given
// event. Callers must run it inside the same transaction that inserts the
// seats.
func NextSeatNumber(tx *gorm.DB, eventId uint) (uint, error) {
	var max *uint
	err := tx.
		Model(&EventSeat{}).
		Joins("JOIN event_seat_types ON event_seat_types.id = event_seats.event_seat_type_id").
		Where("event_seat_types.event_id = ?", eventId).
		Select("MAX(event_seats.seat_number)").
		Scan(&max).
		Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
