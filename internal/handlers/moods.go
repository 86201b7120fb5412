package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
	"github.com/quietgrove/intently/internal/request"
	"github.com/quietgrove/intently/internal/validation"
)

const (
	// DefaultMoodHistoryLimit is how many logs a plain GET returns
	DefaultMoodHistoryLimit = 20
	// MaxMoodHistoryLimit caps the limit query parameter
	MaxMoodHistoryLimit = 200
)

// MoodHandler handles mood log requests
type MoodHandler struct {
	repo *database.MoodLogRepository
}

// NewMoodHandler creates a new mood handler
func NewMoodHandler(repo *database.MoodLogRepository) *MoodHandler {
	return &MoodHandler{repo: repo}
}

// RegisterRoutes registers mood routes on the given router.
// The router should already carry the /moods prefix.
func (h *MoodHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListMoods).Methods("GET")
	r.HandleFunc("", h.CreateMood).Methods("POST")
	r.HandleFunc("/latest", h.LatestMood).Methods("GET")
}

// CreateMoodRequest represents a mood log submission
type CreateMoodRequest struct {
	Mood        string  `json:"mood" validate:"required,mood"`
	EnergyLevel int     `json:"energy_level" validate:"required,min=1,max=5"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreateMood appends a mood log. Logs are append-only; the latest one is the
// user's current state.
func (h *MoodHandler) CreateMood(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateMoodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	if req.Notes != nil {
		sanitized := validation.SanitizeText(*req.Notes)
		req.Notes = &sanitized
	}

	log := &models.MoodLog{
		ID:          uuid.New(),
		UserID:      user.ID,
		Mood:        models.Mood(req.Mood),
		EnergyLevel: req.EnergyLevel,
		Notes:       req.Notes,
		LoggedAt:    time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), log); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record mood")
		return
	}

	respondJSON(w, http.StatusCreated, log)
}

// ListMoods returns recent mood logs, newest first
func (h *MoodHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := DefaultMoodHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, MaxMoodHistoryLimit)
		}
	}

	logs, err := h.repo.GetRecentByUserID(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mood logs")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}

// LatestMood returns the user's current mood state
func (h *MoodHandler) LatestMood(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	log, err := h.repo.GetLatestByUserID(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, log)
}
