package repository

import (
	"context"

	"go-doctor-review/internal/domain/entity"
	domainRepo "go-doctor-review/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	return db.WithContext(ctx).Create(log).Error
}
