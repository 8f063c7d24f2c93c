package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketEventStatus represents the dispatch state of a ticket event.
type TicketEventStatus string

const (
	TicketEventPending    TicketEventStatus = "pending"
	TicketEventDispatched TicketEventStatus = "dispatched"
	TicketEventFailed     TicketEventStatus = "failed"
)

// TicketEvent correlates an activity log entry with the external ticketing
// system. Events are dispatched once, best effort, with no retry.
type TicketEvent struct {
	ID            uuid.UUID         `gorm:"type:text;primary_key" json:"id"`
	ActivityLogID uint              `gorm:"index;not null" json:"activity_log_id"`
	ActivityLog   ActivityLog       `gorm:"foreignKey:ActivityLogID" json:"activity_log,omitempty"`
	TicketID      string            `gorm:"index" json:"ticket_id"`
	Status        TicketEventStatus `gorm:"not null;default:'pending'" json:"status"`
	Error         string            `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	DispatchedAt  *time.Time        `json:"dispatched_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (e *TicketEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
