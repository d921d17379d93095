package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusAttended  AppointmentStatus = "attended"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Appointment is owned by the booking flow; the review subsystem only reads it.
type Appointment struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	ScheduledAt time.Time         `gorm:"not null" json:"scheduled_at"`
	Status      AppointmentStatus `gorm:"type:appointment_status;not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsAttended checks if the patient actually went through the appointment
func (a *Appointment) IsAttended() bool {
	return a.Status == AppointmentStatusAttended
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}
