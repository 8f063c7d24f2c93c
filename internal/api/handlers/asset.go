package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/quartermaster-dev/quartermaster/internal/service"
	"github.com/quartermaster-dev/quartermaster/internal/status"
)

// AssetHandler handles asset endpoints.
type AssetHandler struct {
	svc      *service.AssetService
	activity *service.ActivityService
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(svc *service.AssetService, activity *service.ActivityService) *AssetHandler {
	return &AssetHandler{svc: svc, activity: activity}
}

// ListAssets godoc
// @Summary List assets
// @Tags assets
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by stored status label name"
// @Param assigned_to_id query string false "Filter by assigned user"
// @Param search query string false "Search asset tag, name, serial number"
// @Success 200 {array} AssetResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	filter := service.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if id, err := uuid.Parse(c.Query("assigned_to_id")); err == nil {
		filter.AssignedToID = &id
	}
	if id, err := uuid.Parse(c.Query("department_id")); err == nil {
		filter.DepartmentID = &id
	}
	if id, err := uuid.Parse(c.Query("location_id")); err == nil {
		filter.LocationID = &id
	}

	assets, err := h.svc.List(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := make([]AssetResponse, len(assets))
	for i := range assets {
		result[i] = toAssetResponse(&assets[i])
	}
	c.JSON(http.StatusOK, result)
}

// GetAsset godoc
// @Summary Get an asset by ID
// @Tags assets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} AssetResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	asset, err := h.svc.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

// CreateAsset godoc
// @Summary Create a new asset
// @Tags assets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param asset body CreateAssetRequest true "Asset details"
// @Success 201 {object} AssetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	createReq := service.CreateRequest{
		AssetTag:     req.AssetTag,
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		StatusName:   req.Status,
		ModelName:    req.ModelName,
		ModelNumber:  req.ModelNumber,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		SupplierID:   req.SupplierID,
		LocationID:   req.LocationID,
		Notes:        req.Notes,
		PerformedBy:  performedBy(c, req.PerformedByUserID),
		TicketID:     req.TicketID,
	}
	if req.PurchaseDate != nil {
		createReq.PurchaseDate = &req.PurchaseDate.Time
	}
	if req.PurchaseCost != nil {
		cost := float64(*req.PurchaseCost)
		createReq.PurchaseCost = &cost
	}

	asset, err := h.svc.Create(c.Request.Context(), createReq)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssetResponse(asset))
}

// CheckoutAction godoc
// @Summary Check out, check in, or transfer an asset
// @Tags assets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param request body CheckoutRequest true "Action details"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assets/{id}/checkout [post]
func (h *AssetHandler) CheckoutAction(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	actor := performedBy(c, req.PerformedByUserID)
	ctx := c.Request.Context()

	var err error
	var message string
	switch req.Action {
	case "check_out":
		_, err = h.svc.CheckOut(ctx, id, service.AssignRequest{
			UserID:       req.UserID,
			DepartmentID: req.DepartmentID,
			LocationID:   req.LocationID,
			PerformedBy:  actor,
			TicketID:     req.TicketID,
			Notes:        req.Notes,
		})
		message = "Asset checked out"
	case "check_in":
		_, err = h.svc.CheckIn(ctx, id, service.CheckinRequest{
			PerformedBy: actor,
			TicketID:    req.TicketID,
		})
		message = "Asset checked in"
	case "transfer":
		_, err = h.svc.Transfer(ctx, id, service.AssignRequest{
			UserID:       req.UserID,
			DepartmentID: req.DepartmentID,
			LocationID:   req.LocationID,
			PerformedBy:  actor,
			TicketID:     req.TicketID,
			Notes:        req.Notes,
		})
		message = "Asset transferred"
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unrecognized action %q", req.Action)})
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// UpdateAsset godoc
// @Summary Update asset fields
// @Description Applies a partial update. Only real changes are written to the activity log.
// @Tags assets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param request body UpdateAssetRequest true "Fields to update"
// @Success 200 {object} UpdateAssetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	updateReq := service.UpdateRequest{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Notes:        req.Notes,
		CPU:          req.CPU,
		RAM:          req.RAM,
		Storage:      req.Storage,
		AssignedToID: req.AssignedToID,
		DepartmentID: req.DepartmentID,
		LocationID:   req.LocationID,
		SupplierID:   req.SupplierID,
		StatusID:     req.StatusID,
		ModelName:    req.ModelName,
		ModelNumber:  req.ModelNumber,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		PerformedBy:  performedBy(c, req.PerformedByUserID),
		TicketID:     req.TicketID,
	}
	if req.PurchaseCost != nil {
		cost := float64(*req.PurchaseCost)
		updateReq.PurchaseCost = &cost
	}
	if req.PurchaseDate != nil {
		updateReq.PurchaseDate = &req.PurchaseDate.Time
	}
	if req.WarrantyExpiry != nil {
		updateReq.WarrantyExpiry = &req.WarrantyExpiry.Time
	}

	asset, err := h.svc.Update(c.Request.Context(), id, updateReq)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpdateAssetResponse{
		Success: true,
		Message: "Asset updated",
		Asset:   toAssetResponse(asset),
	})
}

// ArchiveAsset godoc
// @Summary Archive an asset
// @Tags assets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param request body ArchiveAssetRequest false "Archive details"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assets/{id}/archive [post]
func (h *AssetHandler) ArchiveAsset(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	// Body is optional
	var req ArchiveAssetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	if _, err := h.svc.Archive(c.Request.Context(), id, performedBy(c, req.PerformedByUserID), req.Reason, req.TicketID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Asset archived"})
}

// GetAssetActivity godoc
// @Summary Get the activity history of an asset
// @Tags assets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Asset ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} models.ActivityLog
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assets/{id}/activity [get]
func (h *AssetHandler) GetAssetActivity(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.activity.ForAsset(id, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func parseAssetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid asset id"})
		return uuid.Nil, false
	}
	return id, true
}

// performedBy prefers the explicit performed_by_user_id from the request
// body, falling back to the authenticated user.
func performedBy(c *gin.Context, explicit *uuid.UUID) uuid.UUID {
	if explicit != nil {
		return *explicit
	}
	return getUserID(c)
}

// --- Request/Response types ---

type CheckoutRequest struct {
	Action            string     `json:"action" binding:"required"` // "check_out", "check_in", "transfer"
	UserID            *uuid.UUID `json:"user_id"`
	DepartmentID      *uuid.UUID `json:"department_id"`
	LocationID        *uuid.UUID `json:"location_id"`
	PerformedByUserID *uuid.UUID `json:"performed_by_user_id"`
	TicketID          string     `json:"ticket_id"`
	Notes             string     `json:"notes"`
}

type CreateAssetRequest struct {
	AssetTag          string       `json:"asset_tag" binding:"required"`
	Name              string       `json:"name"`
	SerialNumber      string       `json:"serial_number"`
	Status            string       `json:"status"`
	ModelName         string       `json:"model_name"`
	ModelNumber       string       `json:"model_number"`
	Manufacturer      string       `json:"manufacturer"`
	Category          string       `json:"category"`
	SupplierID        *uuid.UUID   `json:"supplier_id"`
	LocationID        *uuid.UUID   `json:"location_id"`
	PurchaseDate      *DateValue   `json:"purchase_date"`
	PurchaseCost      *NumberValue `json:"purchase_cost"`
	Notes             string       `json:"notes"`
	PerformedByUserID *uuid.UUID   `json:"performed_by_user_id"`
	TicketID          string       `json:"ticket_id"`
}

type UpdateAssetRequest struct {
	Name              *string      `json:"name"`
	SerialNumber      *string      `json:"serial_number"`
	Notes             *string      `json:"notes"`
	CPU               *string      `json:"cpu"`
	RAM               *string      `json:"ram"`
	Storage           *string      `json:"storage"`
	PurchaseCost      *NumberValue `json:"purchase_cost"`
	PurchaseDate      *DateValue   `json:"purchase_date"`
	WarrantyExpiry    *DateValue   `json:"warranty_expiry"`
	AssignedToID      *uuid.UUID   `json:"assigned_to_id"`
	DepartmentID      *uuid.UUID   `json:"department_id"`
	LocationID        *uuid.UUID   `json:"location_id"`
	SupplierID        *uuid.UUID   `json:"supplier_id"`
	StatusID          *uint        `json:"status_id"`
	ModelName         *string      `json:"model_name"`
	ModelNumber       *string      `json:"model_number"`
	Manufacturer      *string      `json:"manufacturer"`
	Category          *string      `json:"category"`
	PerformedByUserID *uuid.UUID   `json:"performed_by_user_id"`
	TicketID          string       `json:"ticket_id"`
}

type ArchiveAssetRequest struct {
	Reason            string     `json:"reason"`
	PerformedByUserID *uuid.UUID `json:"performed_by_user_id"`
	TicketID          string     `json:"ticket_id"`
}

// AssetResponse includes the stored asset plus its derived logical status.
type AssetResponse struct {
	models.Asset
	LogicalStatus status.Logical `json:"logical_status"`
}

type UpdateAssetResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Asset   AssetResponse `json:"asset"`
}

func toAssetResponse(asset *models.Asset) AssetResponse {
	return AssetResponse{
		Asset:         *asset,
		LogicalStatus: status.Resolve(asset.Assigned(), asset.Status.Name),
	}
}
