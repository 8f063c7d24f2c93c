package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/quartermaster-dev/quartermaster/internal/db"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/quartermaster-dev/quartermaster/internal/service"
	"github.com/quartermaster-dev/quartermaster/internal/status"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := service.New(gdb, nil)
	handler := NewAssetHandler(svc, service.NewActivityService(gdb))

	router := gin.New()
	router.GET("/assets/:id", handler.GetAsset)
	router.POST("/assets/:id/checkout", handler.CheckoutAction)
	router.PUT("/assets/:id", handler.UpdateAsset)
	return router, gdb
}

func seedAsset(t *testing.T, gdb *gorm.DB, tag string) *models.Asset {
	t.Helper()
	var label models.StatusLabel
	if err := gdb.Where("name = ?", status.InStock).First(&label).Error; err != nil {
		t.Fatalf("find label: %v", err)
	}
	asset := models.Asset{AssetTag: tag, StatusID: label.ID}
	if err := gdb.Create(&asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return &asset
}

func TestCheckoutAction_UnrecognizedAction(t *testing.T) {
	router, gdb := testRouter(t)
	asset := seedAsset(t, gdb, "LT-9001")

	body := `{"action": "lend_out"}`
	req := httptest.NewRequest(http.MethodPost, "/assets/"+asset.ID.String()+"/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(resp.Error, "lend_out") {
		t.Errorf("error %q should name the rejected action", resp.Error)
	}
}

func TestCheckoutAction_InvalidAssetID(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/not-a-uuid/checkout", strings.NewReader(`{"action":"check_in"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetAsset_IncludesLogicalStatus(t *testing.T) {
	router, gdb := testRouter(t)
	asset := seedAsset(t, gdb, "LT-9002")

	// Stored label says Deployed but nobody holds it: logical status is Available
	var deployed models.StatusLabel
	if err := gdb.Where("name = ?", status.Deployed).First(&deployed).Error; err != nil {
		t.Fatalf("find label: %v", err)
	}
	if err := gdb.Model(asset).Update("status_id", deployed.ID).Error; err != nil {
		t.Fatalf("update status: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/assets/"+asset.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		LogicalStatus status.Logical `json:"logical_status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.LogicalStatus.Name != status.Available {
		t.Errorf("logical status = %q, want Available", resp.LogicalStatus.Name)
	}
}

func TestDateValue_AcceptsBothFormats(t *testing.T) {
	tests := []struct {
		input   string
		wantDay string
	}{
		{`"2024-03-15"`, "2024-03-15"},
		{`"2024-03-15T17:30:00Z"`, "2024-03-15"},
	}
	for _, tt := range tests {
		var d DateValue
		if err := json.Unmarshal([]byte(tt.input), &d); err != nil {
			t.Errorf("unmarshal %s: %v", tt.input, err)
			continue
		}
		if got := d.Format("2006-01-02"); got != tt.wantDay {
			t.Errorf("DateValue(%s) day = %q, want %q", tt.input, got, tt.wantDay)
		}
	}

	var d DateValue
	if err := json.Unmarshal([]byte(`"next tuesday"`), &d); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestNumberValue_NormalizesRepresentations(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`1200`, 1200},
		{`"1200"`, 1200},
		{`"1200.00"`, 1200},
		{`1200.00`, 1200},
	}
	for _, tt := range tests {
		var n NumberValue
		if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
			t.Errorf("unmarshal %s: %v", tt.input, err)
			continue
		}
		if float64(n) != tt.want {
			t.Errorf("NumberValue(%s) = %v, want %v", tt.input, float64(n), tt.want)
		}
	}
}
