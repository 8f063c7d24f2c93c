package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/service"
)

// ActivityHandler handles activity log endpoints. Read only: the log is
// append-only and written exclusively by asset mutations.
type ActivityHandler struct {
	svc *service.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// ListActivity godoc
// @Summary List activity log entries
// @Tags activity
// @Security BearerAuth
// @Produce json
// @Param target_type query string false "Filter by target type (Asset, User, License)"
// @Param target_id query string false "Filter by target ID"
// @Param action_type query string false "Filter by action type (e.g. ASSET_CHECKOUT)"
// @Param actor_id query string false "Filter by acting user"
// @Param limit query int false "Maximum entries to return (default 100)"
// @Success 200 {array} models.ActivityLog
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	filter := service.ActivityFilter{
		TargetType: c.Query("target_type"),
		ActionType: c.Query("action_type"),
	}
	if id, err := uuid.Parse(c.Query("target_id")); err == nil {
		filter.TargetID = &id
	}
	if id, err := uuid.Parse(c.Query("actor_id")); err == nil {
		filter.ActorID = &id
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	entries, err := h.svc.List(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
