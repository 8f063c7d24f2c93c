// Package audit appends immutable activity log entries. Entries are written
// once, at the end of a successful mutation, and never updated or deleted.
// A failed append fails the enclosing operation.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"gorm.io/gorm"
)

// Action types recorded in the activity log.
const (
	ActionAssetCheckout = "ASSET_CHECKOUT"
	ActionAssetCheckin  = "ASSET_CHECKIN"
	ActionAssetTransfer = "ASSET_TRANSFER"
	ActionAssetUpdate   = "ASSET_UPDATE"
	ActionAssetCreate   = "ASSET_CREATE"
	ActionAssetArchive  = "ASSET_ARCHIVE"
)

// TargetKind enumerates the entity kinds an entry can reference.
type TargetKind string

const (
	TargetAsset   TargetKind = "Asset"
	TargetUser    TargetKind = "User"
	TargetLicense TargetKind = "License"
)

// Target is a typed polymorphic reference to the entity an entry describes.
type Target struct {
	Kind TargetKind
	ID   uuid.UUID
}

// AssetTarget builds a Target for an asset.
func AssetTarget(id uuid.UUID) Target { return Target{Kind: TargetAsset, ID: id} }

// UserTarget builds a Target for a user.
func UserTarget(id uuid.UUID) Target { return Target{Kind: TargetUser, ID: id} }

// Details is the closed set of per-action payload shapes. Each action type
// has exactly one payload shape so audit entries are statically checked.
type Details interface{ isDetails() }

// CheckoutDetails describes an ASSET_CHECKOUT entry.
type CheckoutDetails struct {
	AssignedTo  string `json:"assigned_to"`
	Location    string `json:"location,omitempty"`
	PerformedBy string `json:"performed_by"`
	Notes       string `json:"notes,omitempty"`
}

func (CheckoutDetails) isDetails() {}

// CheckinDetails describes an ASSET_CHECKIN entry.
type CheckinDetails struct {
	ReturnedFrom string `json:"returned_from,omitempty"`
	PerformedBy  string `json:"performed_by"`
}

func (CheckinDetails) isDetails() {}

// TransferDetails describes an ASSET_TRANSFER entry.
type TransferDetails struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Location    string `json:"location,omitempty"`
	PerformedBy string `json:"performed_by"`
}

func (TransferDetails) isDetails() {}

// UpdateDetails describes an ASSET_UPDATE entry.
type UpdateDetails struct {
	Summary       string   `json:"summary"`
	Changes       []string `json:"changes"`
	ChangedFields []string `json:"changed_fields"`
	PerformedBy   string   `json:"performed_by"`
}

func (UpdateDetails) isDetails() {}

// CreateDetails describes an ASSET_CREATE entry.
type CreateDetails struct {
	AssetTag    string `json:"asset_tag"`
	PerformedBy string `json:"performed_by"`
}

func (CreateDetails) isDetails() {}

// ArchiveDetails describes an ASSET_ARCHIVE entry.
type ArchiveDetails struct {
	Reason      string `json:"reason,omitempty"`
	PerformedBy string `json:"performed_by"`
}

func (ArchiveDetails) isDetails() {}

// TicketID generates an external ticket correlation id for entries whose
// originating request did not supply one.
func TicketID() string {
	return fmt.Sprintf("AUTO-%d", time.Now().UnixMilli())
}

// Append writes one activity log entry. An empty ticketID is replaced with
// an auto-generated one. The timestamp is assigned at write time by the
// database layer.
func Append(db *gorm.DB, actorID uuid.UUID, action string, target Target, ticketID string, details Details) (*models.ActivityLog, error) {
	if ticketID == "" {
		ticketID = TicketID()
	}

	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}

	entry := models.ActivityLog{
		UserID:           actorID,
		ActionType:       action,
		TargetType:       string(target.Kind),
		TargetID:         target.ID,
		ExternalTicketID: ticketID,
		DetailsJSON:      string(payload),
	}

	if err := db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("append activity log: %w", err)
	}
	return &entry, nil
}
