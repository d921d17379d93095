package service

import (
	"context"
	"errors"
	"testing"

	"go-doctor-review/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reviewsWithRatings(ratings ...int) []entity.Review {
	reviews := make([]entity.Review, 0, len(ratings))
	for _, r := range ratings {
		reviews = append(reviews, entity.Review{ID: uuid.New(), Rating: r})
	}
	return reviews
}

func TestMeanRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    string
	}{
		{name: "single", ratings: []int{4}, want: "4"},
		{name: "even split", ratings: []int{4, 2}, want: "3"},
		{name: "repeating decimal rounds down", ratings: []int{5, 1, 1}, want: "2.33"},
		{name: "repeating decimal rounds up", ratings: []int{1, 2, 2}, want: "1.67"},
		{name: "half rounds away from zero", ratings: []int{5, 4, 4, 4, 4, 4, 4, 4}, want: "4.13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanRating(reviewsWithRatings(tt.ratings...))

			require.True(t, got.Valid)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Decimal), "got %s", got.Decimal)
		})
	}
}

func TestMeanRating_EmptyIsAbsent(t *testing.T) {
	assert.False(t, MeanRating(nil).Valid)
}

func TestRatingAggregator_Recompute(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()

	doctorRepo := new(mockDoctorRepository)
	reviewRepo := new(mockReviewRepository)
	metrics := NewReviewMetrics(prometheus.NewRegistry())

	doctorRepo.On("FindByIDForUpdate", ctx, mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)
	reviewRepo.On("FindAllByDoctorID", ctx, mock.Anything, doctorID).Return(reviewsWithRatings(4, 2), nil)
	doctorRepo.On("UpdateRating", ctx, mock.Anything, doctorID, mock.MatchedBy(func(avg decimal.NullDecimal) bool {
		return avg.Valid && avg.Decimal.Equal(decimal.NewFromInt(3))
	}), 2).Return(nil)

	agg := NewRatingAggregator(newTestLogger(), doctorRepo, reviewRepo, metrics)
	summary, err := agg.Recompute(ctx, nil, doctorID)

	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, doctorID, summary.DoctorID)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 3.0, summary.Average.Decimal.InexactFloat64())
	doctorRepo.AssertExpectations(t)
	reviewRepo.AssertExpectations(t)
}

func TestRatingAggregator_RecomputeNoReviews(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()

	doctorRepo := new(mockDoctorRepository)
	reviewRepo := new(mockReviewRepository)

	doctorRepo.On("FindByIDForUpdate", ctx, mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)
	reviewRepo.On("FindAllByDoctorID", ctx, mock.Anything, doctorID).Return([]entity.Review{}, nil)
	doctorRepo.On("UpdateRating", ctx, mock.Anything, doctorID, decimal.NullDecimal{}, 0).Return(nil)

	agg := NewRatingAggregator(newTestLogger(), doctorRepo, reviewRepo, nil)
	summary, err := agg.Recompute(ctx, nil, doctorID)

	require.NoError(t, err)
	assert.False(t, summary.Average.Valid)
	assert.Equal(t, 0, summary.Count)
	doctorRepo.AssertExpectations(t)
}

func TestRatingAggregator_RecomputeMissingDoctor(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()

	doctorRepo := new(mockDoctorRepository)
	reviewRepo := new(mockReviewRepository)
	doctorRepo.On("FindByIDForUpdate", ctx, mock.Anything, doctorID).Return(nil, nil)

	agg := NewRatingAggregator(newTestLogger(), doctorRepo, reviewRepo, nil)
	summary, err := agg.Recompute(ctx, nil, doctorID)

	require.NoError(t, err)
	assert.Nil(t, summary)
	reviewRepo.AssertNotCalled(t, "FindAllByDoctorID", mock.Anything, mock.Anything, mock.Anything)
	doctorRepo.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRatingAggregator_RecomputePropagatesStoreError(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()
	storeErr := errors.New("connection reset")

	doctorRepo := new(mockDoctorRepository)
	reviewRepo := new(mockReviewRepository)
	doctorRepo.On("FindByIDForUpdate", ctx, mock.Anything, doctorID).Return(&entity.Doctor{ID: doctorID}, nil)
	reviewRepo.On("FindAllByDoctorID", ctx, mock.Anything, doctorID).Return(reviewsWithRatings(5), nil)
	doctorRepo.On("UpdateRating", ctx, mock.Anything, doctorID, mock.Anything, 1).Return(storeErr)

	agg := NewRatingAggregator(newTestLogger(), doctorRepo, reviewRepo, nil)
	summary, err := agg.Recompute(ctx, nil, doctorID)

	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, summary)
}
