package repository

import (
	"context"

	"go-doctor-review/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewRepository lookups return (nil, nil) when nothing matches.
type ReviewRepository interface {
	Create(ctx context.Context, db *gorm.DB, review *entity.Review) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Review, error)
	FindByDoctorAndPatient(ctx context.Context, db *gorm.DB, doctorID, patientID uuid.UUID) (*entity.Review, error)
	// FindAllByDoctorID is unpaged; the rating aggregate needs the complete set.
	FindAllByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Review, error)
	FindPageByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit, offset int) ([]entity.Review, int64, error)
	FindRecentByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit int) ([]entity.Review, error)
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)
}
