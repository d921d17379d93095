package entity

import (
	"time"

	"github.com/google/uuid"
)

// Patient ids are the user ids carried in access tokens.
type Patient struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName    string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(20);index" json:"phone_number,omitempty"`
	DateOfBirth time.Time `gorm:"type:date;not null" json:"date_of_birth"`
	Gender      string    `gorm:"type:char(1);not null" json:"gender"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// Gender constants
const (
	GenderMale   = "M"
	GenderFemale = "F"
)
