package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetModel identifies a hardware model by the
// (name, model number, manufacturer, category) tuple. Rows are created
// on demand when an asset update introduces a new tuple.
type AssetModel struct {
	ID           uuid.UUID `gorm:"type:text;primary_key" json:"id"`
	Name         string    `gorm:"not null;index:idx_model_tuple" json:"name"`
	ModelNumber  string    `gorm:"index:idx_model_tuple" json:"model_number,omitempty"`
	Manufacturer string    `gorm:"index:idx_model_tuple" json:"manufacturer,omitempty"`
	Category     string    `gorm:"index:idx_model_tuple" json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (m *AssetModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
