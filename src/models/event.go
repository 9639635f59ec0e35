package models

import (
	"time"

	"ticketworld/src/types"

	"gorm.io/gorm"
)

type Event struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Name        string            `json:"name,omitempty"`
	Slug        string            `gorm:"index" json:"slug,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      types.EventStatus `gorm:"default:'created'" json:"status,omitempty"`
	StartDate   time.Time         `gorm:"check:chk_events_start_before_end,start_date < end_date" json:"start_date,omitempty"`
	EndDate     time.Time         `json:"end_date,omitempty"`
	UserID      uint              `json:"user_id,omitempty"`
	VenueID     uint              `json:"venue_id,omitempty"`

	User      User           `gorm:"foreignKey:user_id" json:"-"`
	Venue     Venue          `gorm:"foreignKey:venue_id" json:"venue,omitempty"`
	SeatTypes []EventSeatType `gorm:"foreignKey:event_id" json:"seat_types,omitempty"`
	Tags      []*EventTag    `gorm:"many2many:event_tag_assignments;" json:"tags,omitempty"`

	types.Timestamps
}

// CountSeats returns the total number of seats across all of the event's
// seat types.
func (e *Event) CountSeats(tx *gorm.DB) (int64, error) {
	var count int64
	err := tx.
		Model(&EventSeat{}).
		Joins("JOIN event_seat_types ON event_seat_types.id = event_seats.event_seat_type_id").
		Where("event_seat_types.event_id = ?", e.ID).
		Count(&count).
		Error
	return count, err
}

// CountReservedSeats returns how many of the event's seats are locked by a
// finalized reservation.
func (e *Event) CountReservedSeats(tx *gorm.DB) (int64, error) {
	var count int64
	err := tx.
		Model(&ReservationEventSeat{}).
		Joins("JOIN reservations ON reservations.id = reservation_event_seats.reservation_id").
		Where("reservations.event_id = ?", e.ID).
		Where("reservations.status = ?", types.RESERVATION_RESERVED).
		Count(&count).
		Error
	return count, err
}

// IsEligibleForReservation reports whether the event can still accept new
// reservations. The houseful check compares counts at call time only; it is
// advisory, not a hold.
func (e *Event) IsEligibleForReservation(tx *gorm.DB) (bool, string) {
	if e.Status == types.EVENT_COMPLETED {
		return false, "Event is complete"
	}
	if e.Status == types.EVENT_COMPLETED_WITH_ERROR {
		return false, "Event has completed with errors"
	}
	seats, err := e.CountSeats(tx)
	if err != nil {
		return false, err.Error()
	}
	reserved, err := e.CountReservedSeats(tx)
	if err != nil {
		return false, err.Error()
	}
	if seats == reserved {
		return false, "Event is houseful"
	}
	return true, "Ready for reservation"
}
