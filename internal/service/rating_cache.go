package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-doctor-review/internal/delivery/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RatingCacheKeyPrefix = "doctor:rating:"

// RatingCache holds rendered doctor rating summaries in Redis.
// Redis is a cache only; the doctors table stays the source of truth.
type RatingCache interface {
	// Get returns (nil, nil) on a cache miss.
	Get(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorRatingResponse, error)
	Set(ctx context.Context, rating *dto.DoctorRatingResponse) error
	Delete(ctx context.Context, doctorID uuid.UUID) error
}

type ratingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatingCache(client *redis.Client, ttl time.Duration) RatingCache {
	return &ratingCache{client: client, ttl: ttl}
}

func ratingCacheKey(doctorID uuid.UUID) string {
	return RatingCacheKeyPrefix + doctorID.String()
}

func (c *ratingCache) Get(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorRatingResponse, error) {
	raw, err := c.client.Get(ctx, ratingCacheKey(doctorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rating cache for doctor %s: %w", doctorID, err)
	}

	var rating dto.DoctorRatingResponse
	if err := json.Unmarshal(raw, &rating); err != nil {
		return nil, fmt.Errorf("decode rating cache for doctor %s: %w", doctorID, err)
	}
	return &rating, nil
}

func (c *ratingCache) Set(ctx context.Context, rating *dto.DoctorRatingResponse) error {
	raw, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("encode rating cache for doctor %s: %w", rating.DoctorID, err)
	}

	if err := c.client.Set(ctx, ratingCacheKey(rating.DoctorID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set rating cache for doctor %s: %w", rating.DoctorID, err)
	}
	return nil
}

func (c *ratingCache) Delete(ctx context.Context, doctorID uuid.UUID) error {
	if err := c.client.Del(ctx, ratingCacheKey(doctorID)).Err(); err != nil {
		return fmt.Errorf("delete rating cache for doctor %s: %w", doctorID, err)
	}
	return nil
}
