package service

import (
	"context"

	"go-doctor-review/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type mockDoctorRepository struct {
	mock.Mock
}

func (m *mockDoctorRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	args := m.Called(ctx, db, id)
	doctor, _ := args.Get(0).(*entity.Doctor)
	return doctor, args.Error(1)
}

func (m *mockDoctorRepository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	args := m.Called(ctx, db, id)
	doctor, _ := args.Get(0).(*entity.Doctor)
	return doctor, args.Error(1)
}

func (m *mockDoctorRepository) UpdateRating(ctx context.Context, db *gorm.DB, id uuid.UUID, average decimal.NullDecimal, count int) error {
	args := m.Called(ctx, db, id, average, count)
	return args.Error(0)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, db *gorm.DB, review *entity.Review) error {
	return m.Called(ctx, db, review).Error(0)
}

func (m *mockReviewRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, db, id)
	review, _ := args.Get(0).(*entity.Review)
	return review, args.Error(1)
}

func (m *mockReviewRepository) FindByDoctorAndPatient(ctx context.Context, db *gorm.DB, doctorID, patientID uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, db, doctorID, patientID)
	review, _ := args.Get(0).(*entity.Review)
	return review, args.Error(1)
}

func (m *mockReviewRepository) FindAllByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.Review, error) {
	args := m.Called(ctx, db, doctorID)
	reviews, _ := args.Get(0).([]entity.Review)
	return reviews, args.Error(1)
}

func (m *mockReviewRepository) FindPageByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit, offset int) ([]entity.Review, int64, error) {
	args := m.Called(ctx, db, doctorID, limit, offset)
	reviews, _ := args.Get(0).([]entity.Review)
	return reviews, args.Get(1).(int64), args.Error(2)
}

func (m *mockReviewRepository) FindRecentByDoctorID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, limit int) ([]entity.Review, error) {
	args := m.Called(ctx, db, doctorID, limit)
	reviews, _ := args.Get(0).([]entity.Review)
	return reviews, args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(int64), args.Error(1)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	return m.Called(ctx, db, log).Error(0)
}
