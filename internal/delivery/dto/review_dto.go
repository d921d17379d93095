package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateReviewRequest.Rating is range-checked by the review validator, not by tags,
// so every caller gets the same InvalidInput error.
type CreateReviewRequest struct {
	DoctorID      uuid.UUID `json:"doctor_id" validate:"required"`
	PatientID     uuid.UUID `json:"patient_id" validate:"required"`
	AppointmentID uuid.UUID `json:"appointment_id" validate:"required"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment" validate:"max=2000"`
}

// Response DTOs

type ReviewResponse struct {
	ID        uuid.UUID  `json:"id"`
	Comment   string     `json:"comment"`
	Rating    int        `json:"rating"`
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	ClinicID  *uuid.UUID `json:"clinic_id"`
	CreatedAt time.Time  `json:"created_at"`
}

type ReviewListResponse struct {
	Reviews    []ReviewResponse `json:"reviews"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// DoctorRatingResponse.AverageRating is null until the doctor has a review.
type DoctorRatingResponse struct {
	DoctorID      uuid.UUID        `json:"doctor_id"`
	AverageRating *float64         `json:"average_rating"`
	ReviewCount   int              `json:"review_count"`
	RecentReviews []ReviewResponse `json:"recent_reviews"`
}
