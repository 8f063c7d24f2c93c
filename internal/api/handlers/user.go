package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/auth"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"gorm.io/gorm"
)

// UserHandler handles user management endpoints.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User details"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	email := req.Email
	if email == "" {
		email = fmt.Sprintf("%s@quartermaster.local", req.Username)
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		JobTitle:     req.JobTitle,
		DepartmentID: req.DepartmentID,
	}
	if err := h.db.Create(&user).Error; err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type CreateUserRequest struct {
	Username     string     `json:"username" binding:"required"`
	Password     string     `json:"password" binding:"required"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	JobTitle     string     `json:"job_title"`
	DepartmentID *uuid.UUID `json:"department_id"`
}
