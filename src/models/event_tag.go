package models

import (
	"ticketworld/src/types"
)

type EventTag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name,omitempty"`

	Events []*Event `gorm:"many2many:event_tag_assignments;" json:"events,omitempty"`

	types.Timestamps
}
