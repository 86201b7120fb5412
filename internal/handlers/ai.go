package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
	"github.com/quietgrove/intently/internal/request"
	"github.com/quietgrove/intently/internal/services/ai"
)

// AIHandler handles AI recommendation requests
type AIHandler struct {
	svc    *ai.Service
	moods  *database.MoodLogRepository
	logger *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(svc *ai.Service, moods *database.MoodLogRepository, logger *zap.Logger) *AIHandler {
	return &AIHandler{svc: svc, moods: moods, logger: logger}
}

// RegisterRoutes registers AI routes on the given router.
// The router should already carry the /ai prefix.
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/suggest-by-mood", h.SuggestByMood).Methods("POST")
	r.HandleFunc("/reschedule", h.Reschedule).Methods("POST")
	r.HandleFunc("/reschedule/bulk", h.RescheduleBulk).Methods("POST")
	r.HandleFunc("/priority", h.Priority).Methods("POST")
}

// MoodStateRequest carries the user's self-reported state
type MoodStateRequest struct {
	Mood        string `json:"mood" validate:"required,mood"`
	EnergyLevel int    `json:"energy_level" validate:"required,min=1,max=5"`
}

// RescheduleCommitmentRequest targets one commitment with the current state
type RescheduleCommitmentRequest struct {
	CommitmentID uuid.UUID `json:"commitment_id" validate:"required"`
	Mood         string    `json:"mood" validate:"required,mood"`
	EnergyLevel  int       `json:"energy_level" validate:"required,min=1,max=5"`
}

// PriorityRequest targets one commitment for priority analysis
type PriorityRequest struct {
	CommitmentID uuid.UUID `json:"commitment_id" validate:"required"`
}

// SuggestByMood records the reported mood as a log entry, then asks for an
// ordering of today's incomplete commitments suited to that state
func (h *AIHandler) SuggestByMood(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req MoodStateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	ctx := r.Context()
	log := &models.MoodLog{
		ID:          uuid.New(),
		UserID:      user.ID,
		Mood:        models.Mood(req.Mood),
		EnergyLevel: req.EnergyLevel,
		LoggedAt:    time.Now().UTC(),
	}
	if err := h.moods.Create(ctx, log); err != nil {
		h.logger.Warn("mood_log_failed", zap.Error(err))
	}

	ranking, err := h.svc.RankByMood(ctx, user.ID, models.Mood(req.Mood), req.EnergyLevel)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ranking)
}

// Reschedule asks whether one commitment should move given the current state
func (h *AIHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req RescheduleCommitmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	advice, err := h.svc.AdviseReschedule(r.Context(), user.ID, req.CommitmentID, models.Mood(req.Mood), req.EnergyLevel)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, advice)
}

// RescheduleBulk analyzes every pending commitment in one pass
func (h *AIHandler) RescheduleBulk(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req MoodStateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	items, err := h.svc.AdviseBulkReschedule(r.Context(), user.ID, models.Mood(req.Mood), req.EnergyLevel)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Priority scores one commitment against the user's history
func (h *AIHandler) Priority(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req PriorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	result, err := h.svc.AnalyzePriority(r.Context(), user.ID, req.CommitmentID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
