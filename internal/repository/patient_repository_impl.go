package repository

import (
	"context"
	"errors"

	"go-doctor-review/internal/domain/entity"
	domainRepo "go-doctor-review/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.WithContext(ctx).Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}
