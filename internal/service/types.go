package service

import (
	"time"

	"github.com/google/uuid"
)

// AssignRequest holds parameters for check_out and transfer operations.
// Omitted assignment fields are cleared to null on write; at least one of
// UserID/DepartmentID must be present.
type AssignRequest struct {
	UserID       *uuid.UUID
	DepartmentID *uuid.UUID
	LocationID   *uuid.UUID
	PerformedBy  uuid.UUID
	TicketID     string
	Notes        string
}

// CheckinRequest holds parameters for a check_in operation.
type CheckinRequest struct {
	PerformedBy uuid.UUID
	TicketID    string
}

// CreateRequest holds parameters for creating an asset.
type CreateRequest struct {
	AssetTag     string
	Name         string
	SerialNumber string
	StatusName   string
	ModelName    string
	ModelNumber  string
	Manufacturer string
	Category     string
	SupplierID   *uuid.UUID
	LocationID   *uuid.UUID
	PurchaseDate *time.Time
	PurchaseCost *float64
	Notes        string
	PerformedBy  uuid.UUID
	TicketID     string
}

// UpdateRequest holds parameters for a general field update. Nil pointer
// fields were not supplied by the caller and are neither compared nor
// written.
type UpdateRequest struct {
	Name           *string
	SerialNumber   *string
	Notes          *string
	CPU            *string
	RAM            *string
	Storage        *string
	PurchaseCost   *float64
	PurchaseDate   *time.Time
	WarrantyExpiry *time.Time
	AssignedToID   *uuid.UUID
	DepartmentID   *uuid.UUID
	LocationID     *uuid.UUID
	SupplierID     *uuid.UUID
	StatusID       *uint

	// Model tuple fields. Supplying any of them resolves or creates an
	// AssetModel row and re-points the asset at it.
	ModelName    *string
	ModelNumber  *string
	Manufacturer *string
	Category     *string

	PerformedBy uuid.UUID
	TicketID    string
}

// ListFilter narrows asset listings.
type ListFilter struct {
	Status       string
	AssignedToID *uuid.UUID
	DepartmentID *uuid.UUID
	LocationID   *uuid.UUID
	Search       string
}
