package converter

import (
	"go-doctor-review/internal/delivery/dto"
	"go-doctor-review/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// ReviewToResponse converts a Review entity to ReviewResponse DTO
func ReviewToResponse(review *entity.Review) *dto.ReviewResponse {
	if review == nil {
		return nil
	}

	return &dto.ReviewResponse{
		ID:        review.ID,
		Comment:   review.Comment,
		Rating:    review.Rating,
		PatientID: review.PatientID,
		DoctorID:  review.DoctorID,
		ClinicID:  review.ClinicID,
		CreatedAt: review.CreatedAt,
	}
}

// ReviewsToResponses never returns nil so empty pages encode as []
func ReviewsToResponses(reviews []entity.Review) []dto.ReviewResponse {
	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, *ReviewToResponse(&reviews[i]))
	}
	return responses
}

// DoctorRatingToResponse builds the public rating summary of a doctor
func DoctorRatingToResponse(doctor *entity.Doctor, recent []entity.Review) *dto.DoctorRatingResponse {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorRatingResponse{
		DoctorID:      doctor.ID,
		AverageRating: AverageToFloat(doctor.AverageRating),
		ReviewCount:   doctor.ReviewCount,
		RecentReviews: ReviewsToResponses(recent),
	}
}

// AverageToFloat maps an absent average to nil
func AverageToFloat(avg decimal.NullDecimal) *float64 {
	if !avg.Valid {
		return nil
	}
	f := avg.Decimal.InexactFloat64()
	return &f
}
