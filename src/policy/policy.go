// Package policy centralizes authorization. Every entity type registers a
// capability row; callers ask whether an actor may read or write a loaded
// entity and translate denials into HTTP statuses. A denied read means the
// actor is not allowed to know the entity exists.
package policy

import (
	"reflect"

	"ticketworld/src/models"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

type Actor struct {
	ID   uint
	Role string
}

type capability struct {
	read  func(actor Actor, entity any) bool
	write func(actor Actor, entity any) bool
}

func anyone(Actor, any) bool { return true }

var capabilities = map[reflect.Type]capability{
	reflect.TypeOf(models.Event{}): {
		read: anyone,
		write: func(actor Actor, entity any) bool {
			event := entity.(models.Event)
			return event.UserID == actor.ID
		},
	},
	reflect.TypeOf(models.EventSeatType{}): {
		read: anyone,
		write: func(actor Actor, entity any) bool {
			seatType := entity.(models.EventSeatType)
			return seatType.Event.UserID != 0 && seatType.Event.UserID == actor.ID
		},
	},
	reflect.TypeOf(models.Reservation{}): {
		read: func(actor Actor, entity any) bool {
			reservation := entity.(models.Reservation)
			if reservation.UserID == actor.ID {
				return true
			}
			return reservation.Event.UserID != 0 && reservation.Event.UserID == actor.ID
		},
		write: func(actor Actor, entity any) bool {
			reservation := entity.(models.Reservation)
			return reservation.UserID == actor.ID
		},
	},
	reflect.TypeOf(models.ReservationEventSeat{}): {
		read: func(actor Actor, entity any) bool {
			hold := entity.(models.ReservationEventSeat)
			return hold.Reservation.UserID != 0 && hold.Reservation.UserID == actor.ID
		},
		write: func(actor Actor, entity any) bool {
			hold := entity.(models.ReservationEventSeat)
			return hold.Reservation.UserID != 0 && hold.Reservation.UserID == actor.ID
		},
	},
}

// Allowed evaluates one (actor, entity, action) triple. Unknown entity
// types deny everything; admins bypass the table.
func Allowed(actor Actor, entity any, action Action) bool {
	if actor.Role == "admin" {
		return true
	}
	entry, ok := capabilities[reflect.TypeOf(entity)]
	if !ok {
		return false
	}
	switch action {
	case ActionRead:
		return entry.read(actor, entity)
	case ActionWrite:
		return entry.write(actor, entity)
	default:
		return false
	}
}

type Decision int

const (
	Allow Decision = iota
	// DenyHidden means the actor may not even learn the entity exists.
	DenyHidden
	// DenyForbidden means the actor may see the entity but not act on it.
	DenyForbidden
)

// Check folds existence hiding into the decision: a denied action against
// an entity the actor cannot read yields DenyHidden rather than
// DenyForbidden.
func Check(actor Actor, entity any, action Action) Decision {
	if Allowed(actor, entity, action) {
		return Allow
	}
	if !Allowed(actor, entity, ActionRead) {
		return DenyHidden
	}
	return DenyForbidden
}
