package usecase

import (
	"context"
	"fmt"

	"go-doctor-review/internal/delivery/dto"
	"go-doctor-review/internal/domain/entity"
	"go-doctor-review/internal/domain/repository"
	"go-doctor-review/pkg/apperror"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewDecision carries the aggregates loaded while validating a review.
type ReviewDecision struct {
	Doctor      *entity.Doctor
	Patient     *entity.Patient
	Appointment *entity.Appointment
}

// ReviewValidator decides whether a review may be created. It never writes.
type ReviewValidator interface {
	Validate(ctx context.Context, tx *gorm.DB, req *dto.CreateReviewRequest) (*ReviewDecision, error)
}

type reviewValidator struct {
	log             *logrus.Logger
	doctorRepo      repository.DoctorRepository
	patientRepo     repository.PatientRepository
	appointmentRepo repository.AppointmentRepository
	reviewRepo      repository.ReviewRepository
}

func NewReviewValidator(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	appointmentRepo repository.AppointmentRepository,
	reviewRepo repository.ReviewRepository,
) ReviewValidator {
	return &reviewValidator{
		log:             log,
		doctorRepo:      doctorRepo,
		patientRepo:     patientRepo,
		appointmentRepo: appointmentRepo,
		reviewRepo:      reviewRepo,
	}
}

// Validate runs the gates in order and returns the first failure.
//
// Gates:
// 1. Rating within 1..5
// 2. Doctor exists (row is locked for the rest of tx)
// 3. Patient exists
// 4. Appointment exists
// 5. Appointment was attended
// 6. No review yet for (doctor, patient)
// 7. Appointment belongs to the patient
// 8. Appointment belongs to the doctor
func (v *reviewValidator) Validate(ctx context.Context, tx *gorm.DB, req *dto.CreateReviewRequest) (*ReviewDecision, error) {
	if !entity.ValidRating(req.Rating) {
		return nil, apperror.InvalidInput(fmt.Sprintf("rating must be between %d and %d, got %d", entity.MinRating, entity.MaxRating, req.Rating))
	}

	doctor, err := v.doctorRepo.FindByIDForUpdate(ctx, tx, req.DoctorID)
	if err != nil {
		v.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, fmt.Errorf("find doctor %s: %w", req.DoctorID, err)
	}
	if doctor == nil {
		return nil, apperror.NotFound("doctor", req.DoctorID.String())
	}

	patient, err := v.patientRepo.FindByID(ctx, tx, req.PatientID)
	if err != nil {
		v.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, fmt.Errorf("find patient %s: %w", req.PatientID, err)
	}
	if patient == nil {
		return nil, apperror.NotFound("patient", req.PatientID.String())
	}

	appointment, err := v.appointmentRepo.FindByID(ctx, tx, req.AppointmentID)
	if err != nil {
		v.log.Warnf("Failed to find appointment %s: %+v", req.AppointmentID, err)
		return nil, fmt.Errorf("find appointment %s: %w", req.AppointmentID, err)
	}
	if appointment == nil {
		return nil, apperror.NotFound("appointment", req.AppointmentID.String())
	}

	if !appointment.IsAttended() {
		return nil, apperror.Forbidden("Review only after a completed appointment")
	}

	existing, err := v.reviewRepo.FindByDoctorAndPatient(ctx, tx, req.DoctorID, req.PatientID)
	if err != nil {
		v.log.Warnf("Failed to check existing review: %+v", err)
		return nil, fmt.Errorf("find review of patient %s for doctor %s: %w", req.PatientID, req.DoctorID, err)
	}
	if existing != nil {
		return nil, apperror.Conflict("Patient has already reviewed this doctor")
	}

	if appointment.PatientID != req.PatientID {
		return nil, apperror.Unauthorized("Appointment does not belong to this patient")
	}

	if appointment.DoctorID != req.DoctorID {
		return nil, apperror.Unauthorized("Appointment does not belong to this doctor")
	}

	return &ReviewDecision{
		Doctor:      doctor,
		Patient:     patient,
		Appointment: appointment,
	}, nil
}
