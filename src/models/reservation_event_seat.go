package models

import (
	"ticketworld/src/types"
)

// ReservationEventSeat is one entry in the seat-hold ledger: a provisional
// link between a reservation and a seat. Entries are created on seat
// selection and only ever deleted, never mutated. The unique index on the
// (reservation, seat) pair is the storage-level backstop against races the
// application-level duplicate check misses.
//
// Several non-finalized reservations may hold the same seat at once; the
// payment confirmation path rejects all but the first to finalize.
type ReservationEventSeat struct {
	ID            uint `gorm:"primarykey" json:"id"`
	ReservationID uint `gorm:"uniqueIndex:idx_unique_reservation_event_seat" json:"reservation_id"`
	EventSeatID   uint `gorm:"uniqueIndex:idx_unique_reservation_event_seat" json:"event_seat_id"`

	Reservation Reservation `gorm:"foreignKey:reservation_id" json:"-"`
	EventSeat   EventSeat   `gorm:"foreignKey:event_seat_id" json:"event_seat,omitempty"`

	types.Timestamps
}
