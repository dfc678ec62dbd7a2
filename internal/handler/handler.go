package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/credit-risk-service/internal/middleware"
	"github.com/Dan9191/credit-risk-service/internal/models"
	"github.com/Dan9191/credit-risk-service/internal/service"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type batchRequest struct {
	Applications []models.RawApplication `json:"applications"`
}

type batchResponse struct {
	Results []models.ScoreResult `json:"results"`
}

// Score handles scoring of a single application
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	var app models.RawApplication
	if err := decodeJSON(w, r, &app); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Detail: err.Error()})
		return
	}

	h.requestLog(r).Debug("Scoring application")
	res, err := h.svc.Score(r.Context(), app)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ScoreBatch handles scoring of several applications in one request
func (h *Handler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Detail: err.Error()})
		return
	}

	h.requestLog(r).WithField("applications", len(req.Applications)).Debug("Scoring batch")
	results, err := h.svc.ScoreBatch(r.Context(), req.Applications)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// Model describes the loaded model artifact
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Model())
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLog tags entries with the authenticated token subject when there is one
func (h *Handler) requestLog(r *http.Request) *logrus.Entry {
	entry := logrus.NewEntry(h.log).WithField("path", r.URL.Path)
	if sub, ok := middleware.Subject(r.Context()); ok {
		entry = entry.WithField("subject", sub)
	}
	return entry
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error()})
	case errors.Is(err, service.ErrPredictionFailed):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: service.ErrPredictionFailed.Error(), Detail: err.Error()})
	default:
		h.log.Errorf("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Detail: err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
