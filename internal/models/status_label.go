package models

import "time"

// StatusLabel is a named, colored label stored on every asset
// (e.g. "Deployed", "In-Stock"). The logical display status is derived
// separately from assignment state; the stored label is what persists.
type StatusLabel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Color     string    `json:"color,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
