package services

import (
	"context"

	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
)

const (
	DefaultAdminLogLimit = 50
	MaxAdminLogLimit     = 200
)

// AdminService exposes the admin audit trail
type AdminService struct {
	repo *repository.Repository
}

func NewAdminService(repo *repository.Repository) *AdminService {
	return &AdminService{repo: repo}
}

// GetAdminLogs returns audit entries, newest first
func (s *AdminService) GetAdminLogs(ctx context.Context, limit int, offset int) ([]models.AdminLog, error) {
	if limit <= 0 {
		limit = DefaultAdminLogLimit
	}
	if limit > MaxAdminLogLimit {
		limit = MaxAdminLogLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAdminLogs(ctx, limit, offset)
}

// logAdminAction records an admin action inside the caller's transaction
func logAdminAction(ctx context.Context, tx *repository.Repository, actor string, action string,
	resourceType string, resourceID *uint, details map[string]interface{}) error {

	entry := models.AdminLog{
		AdminHandle:  actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}
	return tx.CreateAdminLog(ctx, &entry)
}
