package repository

import (
	"context"
	"errors"

	"go-doctor-review/internal/domain/entity"
	domainRepo "go-doctor-review/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}
