package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset is a tracked physical item. Assignment fields (assigned user,
// department, location) are the source of truth for who currently holds it;
// the activity log records how it got there. Assets are never hard-deleted
// by the assignment flows; lifecycle ends via the "Archived" status label.
type Asset struct {
	ID           uuid.UUID   `gorm:"type:text;primary_key" json:"id"`
	AssetTag     string      `gorm:"uniqueIndex;not null" json:"asset_tag"`
	Name         string      `json:"name,omitempty"`
	SerialNumber string      `gorm:"index" json:"serial_number,omitempty"`
	ModelID      *uuid.UUID  `gorm:"type:text;index" json:"model_id,omitempty"`
	Model        *AssetModel `gorm:"foreignKey:ModelID" json:"model,omitempty"`
	StatusID     uint        `gorm:"not null;index" json:"status_id"`
	Status       StatusLabel `gorm:"foreignKey:StatusID" json:"status,omitempty"`

	AssignedToID *uuid.UUID  `gorm:"type:text;index" json:"assigned_to_id,omitempty"`
	AssignedTo   *User       `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	DepartmentID *uuid.UUID  `gorm:"type:text;index" json:"department_id,omitempty"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	LocationID   *uuid.UUID  `gorm:"type:text;index" json:"location_id,omitempty"`
	Location     *Location   `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	SupplierID   *uuid.UUID  `gorm:"type:text;index" json:"supplier_id,omitempty"`
	Supplier     *Supplier   `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	PurchaseCost   *float64   `json:"purchase_cost,omitempty"`
	WarrantyExpiry *time.Time `json:"warranty_expiry,omitempty"`
	Notes          string     `gorm:"type:text" json:"notes,omitempty"`

	// Hardware spec fields, display only.
	CPU     string `json:"cpu,omitempty"`
	RAM     string `json:"ram,omitempty"`
	Storage string `json:"storage,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Assigned reports whether the asset is held by a user or a department.
func (a *Asset) Assigned() bool {
	return a.AssignedToID != nil || a.DepartmentID != nil
}

// BeforeCreate hook to generate UUID
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
