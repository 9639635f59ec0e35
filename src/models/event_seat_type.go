package models

import (
	"ticketworld/src/types"
)

type EventSeatType struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Name    string `json:"name,omitempty"`
	Info    string `json:"info,omitempty"`
	Price   uint   `json:"price"`
	EventID uint   `json:"event_id,omitempty"`

	Event Event       `gorm:"foreignKey:event_id" json:"-"`
	Seats []EventSeat `gorm:"foreignKey:event_seat_type_id" json:"seats,omitempty"`

	types.Timestamps
}

// DefaultSeatTypes are applied to a new event created without explicit
// seat types.
var DefaultSeatTypes = []EventSeatType{
	{Name: "general", Info: "GENERAL", Price: 10},
	{Name: "vip", Info: "VIP", Price: 30},
	{Name: "vvip", Info: "VVIP", Price: 60},
}
