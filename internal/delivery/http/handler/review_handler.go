package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go-doctor-review/internal/delivery/dto"
	"go-doctor-review/internal/delivery/http/middleware"
	"go-doctor-review/internal/usecase"
	"go-doctor-review/pkg/response"
	"go-doctor-review/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ReviewHandler struct {
	reviewUsecase usecase.ReviewUsecase
	validator     *validator.CustomValidator
}

func NewReviewHandler(reviewUsecase usecase.ReviewUsecase, validator *validator.CustomValidator) *ReviewHandler {
	return &ReviewHandler{
		reviewUsecase: reviewUsecase,
		validator:     validator,
	}
}

// CreateReview binds the acting patient to the request; patient_id may be omitted
// but it must not name someone else. Who the caller is gets settled before any
// field of the body is judged, so a foreign patient_id is 401 even when the
// rating is out of range; the usecase gates only ever see the caller's own id.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActingUserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	var req dto.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.PatientID == uuid.Nil {
		req.PatientID = actor.ID
	}
	if req.PatientID != actor.ID {
		response.Unauthorized(w, "Cannot review on behalf of another patient")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	review, err := h.reviewUsecase.CreateReview(r.Context(), &req)
	if err != nil {
		response.AppError(w, err, "Failed to create review")
		return
	}

	response.Success(w, http.StatusCreated, "Review created successfully", review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActingUserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	reviewID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid review ID")
		return
	}

	if err := h.reviewUsecase.DeleteReview(r.Context(), reviewID, actor); err != nil {
		response.AppError(w, err, "Failed to delete review")
		return
	}

	response.Success(w, http.StatusOK, "Review deleted successfully", nil)
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid review ID")
		return
	}

	review, err := h.reviewUsecase.GetReview(r.Context(), reviewID)
	if err != nil {
		response.AppError(w, err, "Failed to get review")
		return
	}

	response.Success(w, http.StatusOK, "Review retrieved successfully", review)
}

// ListDoctorReviews serves ?page= (0-based) and ?size=; missing values use the defaults.
func (h *ReviewHandler) ListDoctorReviews(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["doctorId"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		response.BadRequest(w, "page must be an integer")
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		response.BadRequest(w, "size must be an integer")
		return
	}

	reviews, err := h.reviewUsecase.ListReviewsForDoctor(r.Context(), doctorID, page, size)
	if err != nil {
		response.AppError(w, err, "Failed to get reviews")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Reviews retrieved successfully", reviews.Reviews, &response.Meta{
		Page:       reviews.Page,
		Limit:      reviews.Size,
		Total:      reviews.Total,
		TotalPages: reviews.TotalPages,
	})
}

func (h *ReviewHandler) GetDoctorRating(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["doctorId"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	rating, err := h.reviewUsecase.GetDoctorRating(r.Context(), doctorID)
	if err != nil {
		response.AppError(w, err, "Failed to get doctor rating")
		return
	}

	response.Success(w, http.StatusOK, "Doctor rating retrieved successfully", rating)
}

func (h *ReviewHandler) ReconcileDoctorRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActingUserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	doctorID, err := uuid.Parse(mux.Vars(r)["doctorId"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	rating, err := h.reviewUsecase.ReconcileDoctorRating(r.Context(), doctorID, actor)
	if err != nil {
		response.AppError(w, err, "Failed to reconcile doctor rating")
		return
	}

	response.Success(w, http.StatusOK, "Doctor rating reconciled successfully", rating)
}

// queryInt returns 0 when the parameter is absent.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
