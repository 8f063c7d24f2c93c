// Package service contains the business logic for asset operations:
// assignment mutations (check-out, check-in, transfer), field updates with
// change diffing, and the activity log entries describing them. Entity
// mutation and log append happen in one transaction so the audit trail
// never diverges from entity state.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/audit"
	"github.com/quartermaster-dev/quartermaster/internal/diff"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/quartermaster-dev/quartermaster/internal/queue"
	"github.com/quartermaster-dev/quartermaster/internal/status"
	"gorm.io/gorm"
)

var assetPreloads = []string{"Model", "Status", "AssignedTo", "Department", "Location", "Supplier"}

// AssetService contains the business logic for asset operations.
type AssetService struct {
	db    *gorm.DB
	queue queue.Queue
}

// New creates a new AssetService.
func New(db *gorm.DB, q queue.Queue) *AssetService {
	return &AssetService{db: db, queue: q}
}

// List returns assets matching the filter, newest first.
func (s *AssetService) List(filter ListFilter) ([]models.Asset, error) {
	query := s.db.Model(&models.Asset{})
	for _, p := range assetPreloads {
		query = query.Preload(p)
	}

	if filter.Status != "" {
		query = query.Joins("JOIN status_labels ON status_labels.id = assets.status_id").
			Where("LOWER(status_labels.name) = LOWER(?)", filter.Status)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assets.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("assets.department_id = ?", *filter.DepartmentID)
	}
	if filter.LocationID != nil {
		query = query.Where("assets.location_id = ?", *filter.LocationID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("assets.asset_tag LIKE ? OR assets.name LIKE ? OR assets.serial_number LIKE ?", like, like, like)
	}

	var assets []models.Asset
	if err := query.Order("assets.created_at DESC").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// Get returns a single asset by ID.
func (s *AssetService) Get(id uuid.UUID) (*models.Asset, error) {
	return loadAsset(s.db, id)
}

// Create creates a new asset and writes an ASSET_CREATE audit entry.
func (s *AssetService) Create(ctx context.Context, req CreateRequest) (*models.Asset, error) {
	if req.AssetTag == "" {
		return nil, &ValidationError{Message: "asset_tag is required"}
	}

	statusName := req.StatusName
	if statusName == "" {
		statusName = status.InStock
	}

	var asset models.Asset
	var entry *models.ActivityLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := resolveActor(tx, req.PerformedBy)
		if err != nil {
			return err
		}

		label, err := statusLabel(tx, statusName)
		if err != nil {
			return err
		}

		asset = models.Asset{
			AssetTag:     req.AssetTag,
			Name:         req.Name,
			SerialNumber: req.SerialNumber,
			StatusID:     label.ID,
			SupplierID:   req.SupplierID,
			LocationID:   req.LocationID,
			PurchaseDate: req.PurchaseDate,
			PurchaseCost: req.PurchaseCost,
			Notes:        req.Notes,
		}

		if req.ModelName != "" {
			model, err := resolveModel(tx, req.ModelName, req.ModelNumber, req.Manufacturer, req.Category)
			if err != nil {
				return err
			}
			asset.ModelID = &model.ID
		}

		if err := tx.Create(&asset).Error; err != nil {
			return fmt.Errorf("create asset: %w", err)
		}

		entry, err = audit.Append(tx, actor.ID, audit.ActionAssetCreate, audit.AssetTarget(asset.ID), req.TicketID, audit.CreateDetails{
			AssetTag:    asset.AssetTag,
			PerformedBy: actor.FullName(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueTicketEvent(ctx, entry)
	return loadAsset(s.db, asset.ID)
}

// CheckOut assigns the asset to a user or department, moves it to the
// given location, and sets the stored status to "Deployed". Omitted
// assignment fields are cleared.
func (s *AssetService) CheckOut(ctx context.Context, assetID uuid.UUID, req AssignRequest) (*models.Asset, error) {
	if req.UserID == nil && req.DepartmentID == nil {
		return nil, &ValidationError{Message: "check_out requires a user_id or department_id"}
	}

	var entry *models.ActivityLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := resolveActor(tx, req.PerformedBy)
		if err != nil {
			return err
		}

		asset, err := loadAsset(tx, assetID)
		if err != nil {
			return err
		}

		label, err := statusLabel(tx, status.Deployed)
		if err != nil {
			return err
		}

		targetName, err := assignmentName(tx, req.UserID, req.DepartmentID)
		if err != nil {
			return err
		}
		locName, err := locationName(tx, req.LocationID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"assigned_to_id": req.UserID,
			"department_id":  req.DepartmentID,
			"location_id":    req.LocationID,
			"status_id":      label.ID,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		entry, err = audit.Append(tx, actor.ID, audit.ActionAssetCheckout, audit.AssetTarget(asset.ID), req.TicketID, audit.CheckoutDetails{
			AssignedTo:  targetName,
			Location:    locName,
			PerformedBy: actor.FullName(),
			Notes:       req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueTicketEvent(ctx, entry)
	return loadAsset(s.db, assetID)
}

// CheckIn returns the asset to unassigned inventory: clears the assigned
// user and department, leaves the location untouched, and sets the stored
// status to "In-Stock".
func (s *AssetService) CheckIn(ctx context.Context, assetID uuid.UUID, req CheckinRequest) (*models.Asset, error) {
	var entry *models.ActivityLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := resolveActor(tx, req.PerformedBy)
		if err != nil {
			return err
		}

		asset, err := loadAsset(tx, assetID)
		if err != nil {
			return err
		}

		label, err := statusLabel(tx, status.InStock)
		if err != nil {
			return err
		}

		returnedFrom := currentAssignmentName(asset)

		updates := map[string]interface{}{
			"assigned_to_id": nil,
			"department_id":  nil,
			"status_id":      label.ID,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		entry, err = audit.Append(tx, actor.ID, audit.ActionAssetCheckin, audit.AssetTarget(asset.ID), req.TicketID, audit.CheckinDetails{
			ReturnedFrom: returnedFrom,
			PerformedBy:  actor.FullName(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueTicketEvent(ctx, entry)
	return loadAsset(s.db, assetID)
}

// Transfer reassigns an already-assigned asset to a new target. The current
// assignment is captured for the audit entry before being overwritten. The
// stored status label is not changed.
func (s *AssetService) Transfer(ctx context.Context, assetID uuid.UUID, req AssignRequest) (*models.Asset, error) {
	if req.UserID == nil && req.DepartmentID == nil {
		return nil, &ValidationError{Message: "transfer requires a user_id or department_id"}
	}

	var entry *models.ActivityLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := resolveActor(tx, req.PerformedBy)
		if err != nil {
			return err
		}

		asset, err := loadAsset(tx, assetID)
		if err != nil {
			return err
		}

		from := currentAssignmentName(asset)

		targetName, err := assignmentName(tx, req.UserID, req.DepartmentID)
		if err != nil {
			return err
		}
		locName, err := locationName(tx, req.LocationID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"assigned_to_id": req.UserID,
			"department_id":  req.DepartmentID,
			"location_id":    req.LocationID,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		entry, err = audit.Append(tx, actor.ID, audit.ActionAssetTransfer, audit.AssetTarget(asset.ID), req.TicketID, audit.TransferDetails{
			From:        from,
			To:          targetName,
			Location:    locName,
			PerformedBy: actor.FullName(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueTicketEvent(ctx, entry)
	return loadAsset(s.db, assetID)
}

// Update applies a general field update to the asset. Only supplied fields
// (non-nil pointers) are compared and written. When at least one field
// actually changed, an ASSET_UPDATE entry records the changes; an update
// where every supplied value matches the stored one writes nothing and
// logs nothing.
func (s *AssetService) Update(ctx context.Context, assetID uuid.UUID, req UpdateRequest) (*models.Asset, error) {
	var entry *models.ActivityLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := resolveActor(tx, req.PerformedBy)
		if err != nil {
			return err
		}

		asset, err := loadAsset(tx, assetID)
		if err != nil {
			return err
		}

		b := &diff.Builder{}
		updates := map[string]interface{}{}

		stringField := func(field, label string, oldVal string, newVal *string) {
			if newVal == nil {
				return
			}
			if b.String(field, label, oldVal, *newVal) {
				updates[field] = *newVal
			}
		}

		stringField("name", "Name", asset.Name, req.Name)
		stringField("serial_number", "Serial Number", asset.SerialNumber, req.SerialNumber)
		stringField("notes", "Notes", asset.Notes, req.Notes)
		stringField("cpu", "CPU", asset.CPU, req.CPU)
		stringField("ram", "RAM", asset.RAM, req.RAM)
		stringField("storage", "Storage", asset.Storage, req.Storage)

		if req.PurchaseCost != nil {
			if b.Number("purchase_cost", "Purchase Cost", asset.PurchaseCost, *req.PurchaseCost) {
				updates["purchase_cost"] = *req.PurchaseCost
			}
		}
		if req.PurchaseDate != nil {
			if b.Date("purchase_date", "Purchase Date", asset.PurchaseDate, *req.PurchaseDate) {
				updates["purchase_date"] = *req.PurchaseDate
			}
		}
		if req.WarrantyExpiry != nil {
			if b.Date("warranty_expiry", "Warranty Expiry", asset.WarrantyExpiry, *req.WarrantyExpiry) {
				updates["warranty_expiry"] = *req.WarrantyExpiry
			}
		}

		if req.AssignedToID != nil && !sameID(asset.AssignedToID, req.AssignedToID) {
			oldName := ""
			if asset.AssignedTo != nil {
				oldName = asset.AssignedTo.FullName()
			}
			newName, err := assignmentName(tx, req.AssignedToID, nil)
			if err != nil {
				return err
			}
			b.Reference("assigned_to", "Assigned To", oldName, newName)
			updates["assigned_to_id"] = *req.AssignedToID
		}
		if req.DepartmentID != nil && !sameID(asset.DepartmentID, req.DepartmentID) {
			oldName := ""
			if asset.Department != nil {
				oldName = asset.Department.Name
			}
			newName, err := assignmentName(tx, nil, req.DepartmentID)
			if err != nil {
				return err
			}
			b.Reference("department", "Department", oldName, newName)
			updates["department_id"] = *req.DepartmentID
		}
		if req.LocationID != nil && !sameID(asset.LocationID, req.LocationID) {
			oldName := ""
			if asset.Location != nil {
				oldName = asset.Location.Name
			}
			newName, err := locationName(tx, req.LocationID)
			if err != nil {
				return err
			}
			b.Reference("location", "Location", oldName, newName)
			updates["location_id"] = *req.LocationID
		}
		if req.SupplierID != nil && !sameID(asset.SupplierID, req.SupplierID) {
			oldName := ""
			if asset.Supplier != nil {
				oldName = asset.Supplier.Name
			}
			var supplier models.Supplier
			if err := tx.First(&supplier, "id = ?", *req.SupplierID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &ValidationError{Message: "supplier not found"}
				}
				return err
			}
			b.Reference("supplier", "Supplier", oldName, supplier.Name)
			updates["supplier_id"] = *req.SupplierID
		}

		if req.StatusID != nil && *req.StatusID != asset.StatusID {
			var newLabel models.StatusLabel
			if err := tx.First(&newLabel, *req.StatusID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return &ValidationError{Message: "status label not found"}
				}
				return err
			}
			b.Reference("status", "Status", asset.Status.Name, newLabel.Name)
			updates["status_id"] = *req.StatusID
		}

		// Model tuple change. Any supplied tuple field resolves or creates
		// an AssetModel row; the diff compares model names, not ids.
		if req.ModelName != nil || req.ModelNumber != nil || req.Manufacturer != nil || req.Category != nil {
			name, number, maker, category := "", "", "", ""
			oldName := ""
			if asset.Model != nil {
				name, number, maker, category = asset.Model.Name, asset.Model.ModelNumber, asset.Model.Manufacturer, asset.Model.Category
				oldName = asset.Model.Name
			}
			if req.ModelName != nil {
				name = *req.ModelName
			}
			if req.ModelNumber != nil {
				number = *req.ModelNumber
			}
			if req.Manufacturer != nil {
				maker = *req.Manufacturer
			}
			if req.Category != nil {
				category = *req.Category
			}

			model, err := resolveModel(tx, name, number, maker, category)
			if err != nil {
				return err
			}
			if !sameID(asset.ModelID, &model.ID) {
				b.Reference("model", "Model", oldName, model.Name)
				updates["model_id"] = model.ID
			}
		}

		// No real change: write nothing, log nothing.
		if b.Empty() {
			return nil
		}

		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		entry, err = audit.Append(tx, actor.ID, audit.ActionAssetUpdate, audit.AssetTarget(asset.ID), req.TicketID, audit.UpdateDetails{
			Summary:       fmt.Sprintf("Updated %d field(s) on %s", len(b.Fields()), asset.AssetTag),
			Changes:       b.Changes(),
			ChangedFields: b.Fields(),
			PerformedBy:   actor.FullName(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.enqueueTicketEvent(ctx, entry)
	}
	return loadAsset(s.db, assetID)
}

// Archive ends the asset's lifecycle: clears assignment and sets the stored
// status to "Archived". The row is never deleted.
func (s *AssetService) Archive(ctx context.Context, assetID uuid.UUID, performedBy uuid.UUID, reason, ticketID string) (*models.Asset, error) {
	var entry *models.ActivityLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := resolveActor(tx, performedBy)
		if err != nil {
			return err
		}

		asset, err := loadAsset(tx, assetID)
		if err != nil {
			return err
		}

		label, err := statusLabel(tx, status.Archived)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"assigned_to_id": nil,
			"department_id":  nil,
			"status_id":      label.ID,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		entry, err = audit.Append(tx, actor.ID, audit.ActionAssetArchive, audit.AssetTarget(asset.ID), ticketID, audit.ArchiveDetails{
			Reason:      reason,
			PerformedBy: actor.FullName(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueTicketEvent(ctx, entry)
	return loadAsset(s.db, assetID)
}

// enqueueTicketEvent creates a dispatch event for the activity entry and
// hands it to the queue. Best effort: a failure here is logged, not
// surfaced, because the audit entry is already committed.
func (s *AssetService) enqueueTicketEvent(ctx context.Context, entry *models.ActivityLog) {
	if s.queue == nil || entry == nil {
		return
	}

	event := &models.TicketEvent{
		ID:            uuid.New(),
		ActivityLogID: entry.ID,
		TicketID:      entry.ExternalTicketID,
		Status:        models.TicketEventPending,
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		slog.Error("Failed to create ticket event", "activity_log_id", entry.ID, "error", err)
		return
	}
	if err := s.queue.Enqueue(ctx, event); err != nil {
		slog.Error("Failed to enqueue ticket event", "event_id", event.ID, "error", err)
	}
}

// loadAsset reads an asset with its display relations preloaded.
func loadAsset(db *gorm.DB, id uuid.UUID) (*models.Asset, error) {
	query := db
	for _, p := range assetPreloads {
		query = query.Preload(p)
	}

	var asset models.Asset
	if err := query.First(&asset, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// resolveActor loads the performing user. A missing actor is a validation
// failure and nothing may be mutated.
func resolveActor(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, &ValidationError{Message: "performed_by_user_id is required"}
	}

	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &ValidationError{Message: "performing user not found"}
		}
		return nil, err
	}
	return &user, nil
}

// statusLabel finds a status label by name, case-insensitively. A missing
// label is a configuration error, not a caller error.
func statusLabel(tx *gorm.DB, name string) (*models.StatusLabel, error) {
	var label models.StatusLabel
	if err := tx.Where("LOWER(name) = LOWER(?)", name).First(&label).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &ConfigurationError{Message: fmt.Sprintf("required status label %q not found", name)}
		}
		return nil, err
	}
	return &label, nil
}

// assignmentName resolves the display name of an assignment target, the
// user's full name or the department name.
func assignmentName(tx *gorm.DB, userID, departmentID *uuid.UUID) (string, error) {
	if userID != nil {
		var user models.User
		if err := tx.First(&user, "id = ?", *userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return "", &ValidationError{Message: "assigned user not found"}
			}
			return "", err
		}
		return user.FullName(), nil
	}
	if departmentID != nil {
		var dept models.Department
		if err := tx.First(&dept, "id = ?", *departmentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return "", &ValidationError{Message: "department not found"}
			}
			return "", err
		}
		return dept.Name, nil
	}
	return "", nil
}

func locationName(tx *gorm.DB, locationID *uuid.UUID) (string, error) {
	if locationID == nil {
		return "", nil
	}
	var loc models.Location
	if err := tx.First(&loc, "id = ?", *locationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", &ValidationError{Message: "location not found"}
		}
		return "", err
	}
	return loc.Name, nil
}

// currentAssignmentName returns the display name of whoever holds the asset
// now, preferring the assigned user over the department.
func currentAssignmentName(asset *models.Asset) string {
	if asset.AssignedTo != nil {
		return asset.AssignedTo.FullName()
	}
	if asset.Department != nil {
		return asset.Department.Name
	}
	return ""
}

// resolveModel finds or creates the AssetModel row matching the tuple.
func resolveModel(tx *gorm.DB, name, number, manufacturer, category string) (*models.AssetModel, error) {
	if name == "" {
		return nil, &ValidationError{Message: "model name is required"}
	}

	model := models.AssetModel{
		Name:         name,
		ModelNumber:  number,
		Manufacturer: manufacturer,
		Category:     category,
	}
	if err := tx.Where(models.AssetModel{
		Name:         name,
		ModelNumber:  number,
		Manufacturer: manufacturer,
		Category:     category,
	}).FirstOrCreate(&model).Error; err != nil {
		return nil, fmt.Errorf("resolve asset model: %w", err)
	}
	return &model, nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
