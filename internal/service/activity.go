package service

import (
	"github.com/google/uuid"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"gorm.io/gorm"
)

// ActivityFilter narrows activity log listings.
type ActivityFilter struct {
	TargetType string
	TargetID   *uuid.UUID
	ActionType string
	ActorID    *uuid.UUID
	Limit      int
}

// ActivityService reads the activity log. There is no write path here:
// entries are appended only by mutations, and never updated or deleted.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns activity entries matching the filter, newest first.
func (s *ActivityService) List(filter ActivityFilter) ([]models.ActivityLog, error) {
	query := s.db.Model(&models.ActivityLog{}).Preload("User")

	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != nil {
		query = query.Where("target_id = ?", *filter.TargetID)
	}
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.ActorID != nil {
		query = query.Where("user_id = ?", *filter.ActorID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ForAsset returns the activity history of one asset.
func (s *ActivityService) ForAsset(assetID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	return s.List(ActivityFilter{
		TargetType: "Asset",
		TargetID:   &assetID,
		Limit:      limit,
	})
}
