package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a patient's rating of a doctor after an attended appointment.
// At most one review exists per (doctor, patient); the pair is a unique index.
// ClinicID is the doctor's clinic at creation time and is never re-synced.
type Review struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_doctor_patient" json:"doctor_id"`
	PatientID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_doctor_patient" json:"patient_id"`
	AppointmentID uuid.UUID  `gorm:"type:uuid;index" json:"appointment_id"`
	ClinicID      *uuid.UUID `gorm:"type:uuid" json:"clinic_id,omitempty"`
	Rating        int        `gorm:"type:smallint;not null" json:"rating"`
	Comment       string     `gorm:"type:text;not null;default:''" json:"comment"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// ValidRating reports whether rating is within the accepted scale
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
