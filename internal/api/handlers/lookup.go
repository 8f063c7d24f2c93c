package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"gorm.io/gorm"
)

// LookupHandler serves the reference entities assets point at: users,
// departments, locations, suppliers, status labels, and asset models.
type LookupHandler struct {
	db *gorm.DB
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(db *gorm.DB) *LookupHandler {
	return &LookupHandler{db: db}
}

// ListUsers godoc
// @Summary List users
// @Tags lookups
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (h *LookupHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Preload("Department").Order("username ASC").Find(&users).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListDepartments godoc
// @Summary List departments
// @Tags lookups
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Department
// @Router /departments [get]
func (h *LookupHandler) ListDepartments(c *gin.Context) {
	var departments []models.Department
	if err := h.db.Order("name ASC").Find(&departments).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

// CreateDepartment godoc
// @Summary Create a department
// @Tags lookups
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param department body NamedEntityRequest true "Department details"
// @Success 201 {object} models.Department
// @Failure 400 {object} ErrorResponse
// @Router /departments [post]
func (h *LookupHandler) CreateDepartment(c *gin.Context) {
	var req NamedEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dept := models.Department{Name: req.Name}
	if err := h.db.Create(&dept).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}

// ListLocations godoc
// @Summary List locations
// @Tags lookups
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Location
// @Router /locations [get]
func (h *LookupHandler) ListLocations(c *gin.Context) {
	var locations []models.Location
	if err := h.db.Order("name ASC").Find(&locations).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

// CreateLocation godoc
// @Summary Create a location
// @Tags lookups
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param location body CreateLocationRequest true "Location details"
// @Success 201 {object} models.Location
// @Failure 400 {object} ErrorResponse
// @Router /locations [post]
func (h *LookupHandler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	loc := models.Location{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		Country: req.Country,
	}
	if err := h.db.Create(&loc).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// ListSuppliers godoc
// @Summary List suppliers
// @Tags lookups
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Supplier
// @Router /suppliers [get]
func (h *LookupHandler) ListSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := h.db.Order("name ASC").Find(&suppliers).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// ListStatusLabels godoc
// @Summary List status labels
// @Tags lookups
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.StatusLabel
// @Router /status-labels [get]
func (h *LookupHandler) ListStatusLabels(c *gin.Context) {
	var labels []models.StatusLabel
	if err := h.db.Order("id ASC").Find(&labels).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

// ListModels godoc
// @Summary List asset models
// @Tags lookups
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.AssetModel
// @Router /models [get]
func (h *LookupHandler) ListModels(c *gin.Context) {
	var assetModels []models.AssetModel
	if err := h.db.Order("name ASC").Find(&assetModels).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assetModels)
}

// --- Request types ---

type NamedEntityRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}
