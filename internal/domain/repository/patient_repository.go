package repository

import (
	"context"

	"go-doctor-review/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Patient, error)
}
