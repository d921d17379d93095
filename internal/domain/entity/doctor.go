package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Doctor is a directory entry that patients can review.
// AverageRating and ReviewCount are denormalized from the reviews table and are
// only written by the rating aggregator; AverageRating is NULL while ReviewCount is 0.
type Doctor struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FullName        string              `gorm:"type:varchar(255);not null" json:"full_name"`
	Email           string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Biography       string              `gorm:"type:text" json:"biography,omitempty"`
	ConsultationFee int                 `gorm:"not null;default:0" json:"consultation_fee"`
	SpecialityID    *uuid.UUID          `gorm:"type:uuid;index" json:"speciality_id,omitempty"`
	ClinicID        *uuid.UUID          `gorm:"type:uuid;index" json:"clinic_id,omitempty"`
	AverageRating   decimal.NullDecimal `gorm:"type:numeric(3,2)" json:"average_rating"`
	ReviewCount     int                 `gorm:"not null;default:0" json:"review_count"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Speciality *Speciality `gorm:"foreignKey:SpecialityID" json:"speciality,omitempty"`
	Clinic     *Clinic     `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// IsRated reports whether at least one review contributes to the average
func (d *Doctor) IsRated() bool {
	return d.AverageRating.Valid
}
