package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an immutable audit entry describing one state change and
// who caused it. Rows are append-only: nothing in the application updates
// or deletes them after creation.
type ActivityLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	UserID           uuid.UUID `gorm:"type:text;index;not null" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ActionType       string    `gorm:"not null;index" json:"action_type"` // e.g. "ASSET_CHECKOUT"
	TargetType       string    `gorm:"not null;index" json:"target_type"` // e.g. "Asset"
	TargetID         uuid.UUID `gorm:"type:text;index" json:"target_id"`
	ExternalTicketID string    `gorm:"index" json:"external_ticket_id"`
	DetailsJSON      string    `gorm:"type:text" json:"details_json"` // Action-specific payload in JSON
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}
