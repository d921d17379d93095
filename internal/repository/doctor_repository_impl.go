package repository

import (
	"context"
	"errors"

	"go-doctor-review/internal/domain/entity"
	domainRepo "go-doctor-review/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorRepository struct{}

func NewDoctorRepository() domainRepo.DoctorRepository {
	return &doctorRepository{}
}

func (r *doctorRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	return r.findOne(db.WithContext(ctx), id)
}

func (r *doctorRepository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	return r.findOne(db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// UpdateRating writes only the denormalized rating columns so concurrent
// profile edits are not overwritten by a stale doctor struct.
func (r *doctorRepository) UpdateRating(ctx context.Context, db *gorm.DB, id uuid.UUID, average decimal.NullDecimal, count int) error {
	return db.WithContext(ctx).
		Model(&entity.Doctor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"review_count":   count,
		}).Error
}

func (r *doctorRepository) findOne(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := db.Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}
