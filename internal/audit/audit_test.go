package audit

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Department{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAppend_WritesEntry(t *testing.T) {
	db := testDB(t)
	actor := models.User{Username: "admin", Email: "admin@test.com", PasswordHash: "x"}
	if err := db.Create(&actor).Error; err != nil {
		t.Fatalf("create actor: %v", err)
	}

	assetID := uuid.New()
	entry, err := Append(db, actor.ID, ActionAssetCheckout, AssetTarget(assetID), "TICKET-42", CheckoutDetails{
		AssignedTo:  "Alice Smith",
		PerformedBy: "admin",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	var stored models.ActivityLog
	if err := db.First(&stored, entry.ID).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stored.ActionType != ActionAssetCheckout {
		t.Errorf("action_type = %q, want %q", stored.ActionType, ActionAssetCheckout)
	}
	if stored.TargetType != string(TargetAsset) || stored.TargetID != assetID {
		t.Errorf("unexpected target %s:%s", stored.TargetType, stored.TargetID)
	}
	if stored.ExternalTicketID != "TICKET-42" {
		t.Errorf("ticket id = %q, want TICKET-42", stored.ExternalTicketID)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("timestamp should be assigned at write time")
	}

	var details CheckoutDetails
	if err := json.Unmarshal([]byte(stored.DetailsJSON), &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	if details.AssignedTo != "Alice Smith" {
		t.Errorf("details.assigned_to = %q", details.AssignedTo)
	}
}

func TestAppend_AutoGeneratesTicketID(t *testing.T) {
	db := testDB(t)
	actor := models.User{Username: "admin", Email: "a@test.com", PasswordHash: "x"}
	db.Create(&actor)

	entry, err := Append(db, actor.ID, ActionAssetCheckin, AssetTarget(uuid.New()), "", CheckinDetails{PerformedBy: "admin"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !strings.HasPrefix(entry.ExternalTicketID, "AUTO-") {
		t.Errorf("expected AUTO- prefix, got %q", entry.ExternalTicketID)
	}
}

func TestTicketID_Format(t *testing.T) {
	id := TicketID()
	if !strings.HasPrefix(id, "AUTO-") {
		t.Errorf("expected AUTO- prefix, got %q", id)
	}
	if len(id) <= len("AUTO-") {
		t.Errorf("expected timestamp suffix, got %q", id)
	}
}
