package repository

import (
	"context"
	"errors"

	"go-doctor-review/internal/domain/entity"
	domainRepo "go-doctor-review/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reviewRepository struct{}

func NewReviewRepository() domainRepo.ReviewRepository {
	return &reviewRepository{}
}

func (r *reviewRepository) Create(ctx context.Context, db *gorm.DB, review *entity.Review) error {
	return db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	err := db.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByDoctorAndPatient(ctx context.Context, db *gorm.DB, doctorID, patientID uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindAllByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Review, error) {
	var reviews []entity.Review
	err := db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) FindPageByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit, offset int) ([]entity.Review, int64, error) {
	var (
		reviews []entity.Review
		total   int64
	)

	if err := db.WithContext(ctx).Model(&entity.Review{}).Where("doctor_id = ?", doctorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC, id").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) FindRecentByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit int) ([]entity.Review, error) {
	var reviews []entity.Review
	err := db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Review{})
	return result.RowsAffected, result.Error
}
