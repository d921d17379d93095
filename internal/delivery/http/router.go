package http

import (
	"net/http"

	"go-doctor-review/internal/delivery/http/handler"
	"go-doctor-review/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	reviewHandler     *handler.ReviewHandler
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	metricsMiddleware *middleware.MetricsMiddleware
	metricsHandler    http.Handler
}

func NewRouter(
	reviewHandler *handler.ReviewHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		reviewHandler:     reviewHandler,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
		metricsMiddleware: metricsMiddleware,
		metricsHandler:    metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Review routes (public)
	api.HandleFunc("/doctors/{doctorId}/reviews", r.reviewHandler.ListDoctorReviews).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{doctorId}/rating", r.reviewHandler.GetDoctorRating).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{id}", r.reviewHandler.GetReview).Methods(http.MethodGet)

	// Review routes (patient)
	patient := api.PathPrefix("/reviews").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("", r.reviewHandler.CreateReview).Methods(http.MethodPost)

	// Review routes (owner patient or admin)
	owner := api.PathPrefix("/reviews").Subrouter()
	owner.Use(r.authMiddleware.Authenticate)
	owner.Use(middleware.RequirePatientOrAdmin)
	owner.HandleFunc("/{id}", r.reviewHandler.DeleteReview).Methods(http.MethodDelete)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/doctors/{doctorId}/rating/reconcile", r.reviewHandler.ReconcileDoctorRating).Methods(http.MethodPost)

	r.router.Use(r.metricsMiddleware.Handle)
	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
