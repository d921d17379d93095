package repository

import (
	"context"

	"go-doctor-review/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
	// FindByIDForUpdate locks the doctor row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
	UpdateRating(ctx context.Context, db *gorm.DB, id uuid.UUID, average decimal.NullDecimal, count int) error
}
