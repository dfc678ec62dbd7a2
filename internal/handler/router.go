package handler

import (
	"github.com/Dan9191/credit-risk-service/internal/config"
	"github.com/Dan9191/credit-risk-service/internal/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires the form, the JSON API and the health check
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/", h.ShowForm).Methods("GET")
	r.HandleFunc("/", h.SubmitForm).Methods("POST")
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg))
	api.HandleFunc("/score", h.Score).Methods("POST")
	api.HandleFunc("/score/batch", h.ScoreBatch).Methods("POST")
	api.HandleFunc("/model", h.Model).Methods("GET")

	return r
}
