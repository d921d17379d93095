package repository

import (
	"context"

	"go-doctor-review/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error
}
