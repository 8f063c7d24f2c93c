package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/audit"
	"github.com/quartermaster-dev/quartermaster/internal/db"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/quartermaster-dev/quartermaster/internal/queue"
	"github.com/quartermaster-dev/quartermaster/internal/status"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testSetup creates a temp-file DB, migrates models, seeds status labels,
// and returns an AssetService ready for testing.
func testSetup(t *testing.T) (*AssetService, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Location{},
		&models.Supplier{},
		&models.StatusLabel{},
		&models.AssetModel{},
		&models.Asset{},
		&models.ActivityLog{},
		&models.TicketEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := db.SeedStatusLabels(gdb); err != nil {
		t.Fatalf("seed status labels: %v", err)
	}

	q := queue.NewMemoryQueue(100)
	t.Cleanup(func() { q.Close() })

	return New(gdb, q), gdb
}

// createTestUser inserts a user and returns it.
func createTestUser(t *testing.T, gdb *gorm.DB, username, first, last string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		PasswordHash: "x",
		Email:        username + "@test.com",
		FirstName:    first,
		LastName:     last,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func createTestDepartment(t *testing.T, gdb *gorm.DB, name string) *models.Department {
	t.Helper()
	dept := models.Department{Name: name}
	if err := gdb.Create(&dept).Error; err != nil {
		t.Fatalf("create department: %v", err)
	}
	return &dept
}

func createTestLocation(t *testing.T, gdb *gorm.DB, name string) *models.Location {
	t.Helper()
	loc := models.Location{Name: name}
	if err := gdb.Create(&loc).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	return &loc
}

// createTestAsset inserts an asset with the given stored status label.
func createTestAsset(t *testing.T, gdb *gorm.DB, tag, statusName string) *models.Asset {
	t.Helper()
	var label models.StatusLabel
	if err := gdb.Where("name = ?", statusName).First(&label).Error; err != nil {
		t.Fatalf("find status label %q: %v", statusName, err)
	}
	asset := models.Asset{
		AssetTag:     tag,
		SerialNumber: "SN-" + tag,
		StatusID:     label.ID,
	}
	if err := gdb.Create(&asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return &asset
}

func activityEntries(t *testing.T, gdb *gorm.DB, assetID uuid.UUID) []models.ActivityLog {
	t.Helper()
	var entries []models.ActivityLog
	if err := gdb.Where("target_id = ?", assetID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("list activity: %v", err)
	}
	return entries
}

func detailsOf(t *testing.T, entry models.ActivityLog) map[string]interface{} {
	t.Helper()
	var details map[string]interface{}
	if err := json.Unmarshal([]byte(entry.DetailsJSON), &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	return details
}

func TestCheckOut_AssignsUserAndWritesLog(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "Ada", "Admin")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	loc := createTestLocation(t, gdb, "HQ Floor 2")
	asset := createTestAsset(t, gdb, "LT-0001", status.InStock)

	got, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		LocationID:  &loc.ID,
		PerformedBy: actor.ID,
	})
	if err != nil {
		t.Fatalf("check out: %v", err)
	}

	if got.AssignedToID == nil || *got.AssignedToID != holder.ID {
		t.Errorf("assigned_to_id = %v, want %s", got.AssignedToID, holder.ID)
	}
	if got.DepartmentID != nil {
		t.Errorf("department_id should be nil, got %v", got.DepartmentID)
	}
	if got.LocationID == nil || *got.LocationID != loc.ID {
		t.Errorf("location_id = %v, want %s", got.LocationID, loc.ID)
	}
	if got.Status.Name != status.Deployed {
		t.Errorf("stored status = %q, want Deployed", got.Status.Name)
	}

	entries := activityEntries(t, gdb, asset.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.ActionType != audit.ActionAssetCheckout {
		t.Errorf("action_type = %q, want ASSET_CHECKOUT", entry.ActionType)
	}
	if entry.UserID != actor.ID {
		t.Errorf("actor = %s, want %s", entry.UserID, actor.ID)
	}
	if !strings.HasPrefix(entry.ExternalTicketID, "AUTO-") {
		t.Errorf("ticket id %q should be auto-generated", entry.ExternalTicketID)
	}

	details := detailsOf(t, entry)
	if details["assigned_to"] != "Jane Doe" {
		t.Errorf("details.assigned_to = %v, want Jane Doe", details["assigned_to"])
	}
	if details["performed_by"] != "Ada Admin" {
		t.Errorf("details.performed_by = %v, want Ada Admin", details["performed_by"])
	}

	// A pending ticket event should exist for the entry
	var event models.TicketEvent
	if err := gdb.Where("activity_log_id = ?", entry.ID).First(&event).Error; err != nil {
		t.Fatalf("ticket event not created: %v", err)
	}
	if event.TicketID != entry.ExternalTicketID {
		t.Errorf("event ticket id = %q, want %q", event.TicketID, entry.ExternalTicketID)
	}
}

func TestCheckOut_RequiresTarget(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	asset := createTestAsset(t, gdb, "LT-0002", status.InStock)

	_, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{PerformedBy: actor.ID})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCheckOut_InvalidActor(t *testing.T) {
	svc, gdb := testSetup(t)
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	asset := createTestAsset(t, gdb, "LT-0003", status.InStock)

	_, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		PerformedBy: uuid.New(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// No mutation, no log
	var stored models.Asset
	if err := gdb.First(&stored, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("reload asset: %v", err)
	}
	if stored.AssignedToID != nil {
		t.Error("asset should be unmodified after rejected check out")
	}
	if entries := activityEntries(t, gdb, asset.ID); len(entries) != 0 {
		t.Errorf("expected no activity entries, got %d", len(entries))
	}
}

func TestCheckOut_MissingDeployedLabel(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	asset := createTestAsset(t, gdb, "LT-0004", status.InStock)

	if err := gdb.Where("name = ?", status.Deployed).Delete(&models.StatusLabel{}).Error; err != nil {
		t.Fatalf("delete label: %v", err)
	}

	_, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		PerformedBy: actor.ID,
	})
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if entries := activityEntries(t, gdb, asset.ID); len(entries) != 0 {
		t.Errorf("expected no activity entries, got %d", len(entries))
	}
}

func TestCheckIn_ClearsAssignmentRetainsLocation(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	loc := createTestLocation(t, gdb, "Storeroom B")
	asset := createTestAsset(t, gdb, "LT-0005", status.InStock)

	if _, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		LocationID:  &loc.ID,
		PerformedBy: actor.ID,
	}); err != nil {
		t.Fatalf("check out: %v", err)
	}

	got, err := svc.CheckIn(context.Background(), asset.ID, CheckinRequest{PerformedBy: actor.ID})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	if got.AssignedToID != nil {
		t.Error("assigned_to_id should be cleared")
	}
	if got.DepartmentID != nil {
		t.Error("department_id should be cleared")
	}
	if got.LocationID == nil || *got.LocationID != loc.ID {
		t.Errorf("location_id = %v, want %s (retained)", got.LocationID, loc.ID)
	}
	if got.Status.Name != status.InStock {
		t.Errorf("stored status = %q, want In-Stock", got.Status.Name)
	}

	entries := activityEntries(t, gdb, asset.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(entries))
	}
	if entries[1].ActionType != audit.ActionAssetCheckin {
		t.Errorf("action_type = %q, want ASSET_CHECKIN", entries[1].ActionType)
	}
	details := detailsOf(t, entries[1])
	if details["returned_from"] != "Jane Doe" {
		t.Errorf("details.returned_from = %v, want Jane Doe", details["returned_from"])
	}
}

func TestCheckOutCheckInRoundTrip(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	asset := createTestAsset(t, gdb, "LT-0006", status.InStock)

	if _, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		PerformedBy: actor.ID,
	}); err != nil {
		t.Fatalf("check out: %v", err)
	}
	got, err := svc.CheckIn(context.Background(), asset.ID, CheckinRequest{PerformedBy: actor.ID})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	if got.AssignedToID != nil || got.DepartmentID != nil {
		t.Error("round trip should restore unassigned state")
	}
	if got.AssetTag != asset.AssetTag {
		t.Errorf("asset_tag changed: %q -> %q", asset.AssetTag, got.AssetTag)
	}
	if got.SerialNumber != asset.SerialNumber {
		t.Errorf("serial_number changed: %q -> %q", asset.SerialNumber, got.SerialNumber)
	}
	if !sameID(got.ModelID, asset.ModelID) {
		t.Error("model changed across round trip")
	}
}

func TestTransfer_RecordsFromAndTo(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	first := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	dept := createTestDepartment(t, gdb, "Engineering")
	asset := createTestAsset(t, gdb, "LT-0007", status.InStock)

	if _, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &first.ID,
		PerformedBy: actor.ID,
	}); err != nil {
		t.Fatalf("check out: %v", err)
	}

	got, err := svc.Transfer(context.Background(), asset.ID, AssignRequest{
		DepartmentID: &dept.ID,
		PerformedBy:  actor.ID,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got.AssignedToID != nil {
		t.Error("assigned_to_id should be cleared when transferring to a department")
	}
	if got.DepartmentID == nil || *got.DepartmentID != dept.ID {
		t.Errorf("department_id = %v, want %s", got.DepartmentID, dept.ID)
	}
	// Transfer does not force a status change
	if got.Status.Name != status.Deployed {
		t.Errorf("stored status = %q, want Deployed (unchanged)", got.Status.Name)
	}

	entries := activityEntries(t, gdb, asset.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(entries))
	}
	details := detailsOf(t, entries[1])
	if details["from"] != "Jane Doe" {
		t.Errorf("details.from = %v, want Jane Doe", details["from"])
	}
	if details["to"] != "Engineering" {
		t.Errorf("details.to = %v, want Engineering", details["to"])
	}
}

func TestTransfer_AssetNotFound(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")

	_, err := svc.Transfer(context.Background(), uuid.New(), AssignRequest{
		UserID:      &holder.ID,
		PerformedBy: actor.ID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_SingleFieldDiff(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "Ada", "Admin")
	asset := createTestAsset(t, gdb, "LT-0008", status.InStock)
	if err := gdb.Model(asset).Update("notes", "A").Error; err != nil {
		t.Fatalf("seed notes: %v", err)
	}

	newNotes := "B"
	got, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		Notes:       &newNotes,
		PerformedBy: actor.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Notes != "B" {
		t.Errorf("notes = %q, want B", got.Notes)
	}

	entries := activityEntries(t, gdb, asset.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(entries))
	}
	if entries[0].ActionType != audit.ActionAssetUpdate {
		t.Errorf("action_type = %q, want ASSET_UPDATE", entries[0].ActionType)
	}

	details := detailsOf(t, entries[0])
	changes, _ := details["changes"].([]interface{})
	if len(changes) != 1 {
		t.Fatalf("expected exactly 1 change, got %v", details["changes"])
	}
	line, _ := changes[0].(string)
	if !strings.Contains(line, "A") || !strings.Contains(line, "B") {
		t.Errorf("change line %q should contain both old and new value", line)
	}
	fields, _ := details["changed_fields"].([]interface{})
	if len(fields) != 1 || fields[0] != "notes" {
		t.Errorf("changed_fields = %v, want [notes]", details["changed_fields"])
	}
}

func TestUpdate_NoOpWritesNoLog(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	asset := createTestAsset(t, gdb, "LT-0009", status.InStock)
	if err := gdb.Model(asset).Update("notes", "same").Error; err != nil {
		t.Fatalf("seed notes: %v", err)
	}

	notes := "same"
	serial := "SN-LT-0009"
	if _, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		Notes:        &notes,
		SerialNumber: &serial,
		PerformedBy:  actor.ID,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if entries := activityEntries(t, gdb, asset.ID); len(entries) != 0 {
		t.Errorf("no-op update must not write activity entries, got %d", len(entries))
	}
}

func TestUpdate_NumericNormalization(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	asset := createTestAsset(t, gdb, "LT-0010", status.InStock)
	if err := gdb.Model(asset).Update("purchase_cost", 1200.00).Error; err != nil {
		t.Fatalf("seed purchase cost: %v", err)
	}

	// Same value, different source representation ("1200" vs "1200.00")
	cost := 1200.0
	if _, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		PurchaseCost: &cost,
		PerformedBy:  actor.ID,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if entries := activityEntries(t, gdb, asset.ID); len(entries) != 0 {
		t.Errorf("numerically equal cost must not record a change, got %d entries", len(entries))
	}
}

func TestUpdate_SameDayDateNoChange(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	asset := createTestAsset(t, gdb, "LT-0011", status.InStock)

	stored := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if err := gdb.Model(asset).Update("purchase_date", stored).Error; err != nil {
		t.Fatalf("seed purchase date: %v", err)
	}

	sameDay := time.Date(2024, 3, 15, 17, 30, 0, 0, time.UTC)
	if _, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		PurchaseDate: &sameDay,
		PerformedBy:  actor.ID,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if entries := activityEntries(t, gdb, asset.ID); len(entries) != 0 {
		t.Errorf("same calendar day must not record a change, got %d entries", len(entries))
	}
}

func TestUpdate_ModelTupleResolvesOrCreates(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	asset := createTestAsset(t, gdb, "LT-0012", status.InStock)

	name, number, maker, category := "ThinkPad X1", "20U9", "Lenovo", "Laptop"
	got, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		ModelName:    &name,
		ModelNumber:  &number,
		Manufacturer: &maker,
		Category:     &category,
		PerformedBy:  actor.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Model == nil || got.Model.Name != "ThinkPad X1" {
		t.Fatalf("model not attached: %+v", got.Model)
	}
	firstModelID := *got.ModelID

	// Same tuple again resolves to the same row and records no change
	if _, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		ModelName:    &name,
		ModelNumber:  &number,
		Manufacturer: &maker,
		Category:     &category,
		PerformedBy:  actor.ID,
	}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	var count int64
	if err := gdb.Model(&models.AssetModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count models: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 model row, got %d", count)
	}

	entries := activityEntries(t, gdb, asset.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 activity entry (second update is a no-op), got %d", len(entries))
	}
	details := detailsOf(t, entries[0])
	fields, _ := details["changed_fields"].([]interface{})
	if len(fields) != 1 || fields[0] != "model" {
		t.Errorf("changed_fields = %v, want [model]", details["changed_fields"])
	}

	var stored models.Asset
	if err := gdb.First(&stored, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("reload asset: %v", err)
	}
	if stored.ModelID == nil || *stored.ModelID != firstModelID {
		t.Error("model id changed on identical tuple")
	}
}

func TestUpdate_InvalidActorLeavesAssetUntouched(t *testing.T) {
	svc, gdb := testSetup(t)
	asset := createTestAsset(t, gdb, "LT-0013", status.InStock)

	notes := "changed"
	_, err := svc.Update(context.Background(), asset.ID, UpdateRequest{
		Notes:       &notes,
		PerformedBy: uuid.New(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var stored models.Asset
	if err := gdb.First(&stored, "id = ?", asset.ID).Error; err != nil {
		t.Fatalf("reload asset: %v", err)
	}
	if stored.Notes != "" {
		t.Errorf("notes = %q, want unchanged", stored.Notes)
	}
	if entries := activityEntries(t, gdb, asset.ID); len(entries) != 0 {
		t.Errorf("expected no activity entries, got %d", len(entries))
	}
}

func TestUpdate_AssetNotFound(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")

	notes := "x"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{
		Notes:       &notes,
		PerformedBy: actor.ID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestArchive_ClearsAssignmentAndSetsStatus(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	asset := createTestAsset(t, gdb, "LT-0014", status.InStock)

	if _, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		PerformedBy: actor.ID,
	}); err != nil {
		t.Fatalf("check out: %v", err)
	}

	got, err := svc.Archive(context.Background(), asset.ID, actor.ID, "end of life", "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if got.AssignedToID != nil {
		t.Error("assigned_to_id should be cleared on archive")
	}
	if got.Status.Name != status.Archived {
		t.Errorf("stored status = %q, want Archived", got.Status.Name)
	}

	entries := activityEntries(t, gdb, asset.ID)
	if len(entries) != 2 || entries[1].ActionType != audit.ActionAssetArchive {
		t.Fatalf("expected ASSET_ARCHIVE entry, got %+v", entries)
	}
}

func TestActivityService_ForAsset(t *testing.T) {
	svc, gdb := testSetup(t)
	actor := createTestUser(t, gdb, "admin", "", "")
	holder := createTestUser(t, gdb, "jdoe", "Jane", "Doe")
	asset := createTestAsset(t, gdb, "LT-0015", status.InStock)

	if _, err := svc.CheckOut(context.Background(), asset.ID, AssignRequest{
		UserID:      &holder.ID,
		PerformedBy: actor.ID,
	}); err != nil {
		t.Fatalf("check out: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), asset.ID, CheckinRequest{PerformedBy: actor.ID}); err != nil {
		t.Fatalf("check in: %v", err)
	}

	activity := NewActivityService(gdb)
	entries, err := activity.ForAsset(asset.ID, 10)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first
	if entries[0].ActionType != audit.ActionAssetCheckin {
		t.Errorf("first entry = %q, want ASSET_CHECKIN", entries[0].ActionType)
	}
}
