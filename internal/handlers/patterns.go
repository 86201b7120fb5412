package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/patterns"
	"github.com/quietgrove/intently/internal/request"
)

// PatternHandler handles behavior pattern requests
type PatternHandler struct {
	commitments *database.CommitmentRepository
	repo        *database.BehaviorPatternRepository
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(commitments *database.CommitmentRepository, repo *database.BehaviorPatternRepository) *PatternHandler {
	return &PatternHandler{commitments: commitments, repo: repo}
}

// RegisterRoutes registers pattern routes on the given router.
// The router should already carry the /patterns prefix.
func (h *PatternHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetPattern).Methods("GET")
	r.HandleFunc("/analyze", h.AnalyzePattern).Methods("POST")
}

// GetPattern returns the stored behavior pattern for the user
func (h *PatternHandler) GetPattern(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	pattern, err := h.repo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pattern)
}

// AnalyzePattern recomputes the user's behavior pattern from their full
// commitment history and stores the new snapshot
func (h *PatternHandler) AnalyzePattern(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	all, err := h.commitments.GetByUserID(ctx, user.ID, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve commitments")
		return
	}

	completed := all[:0:0]
	for _, c := range all {
		if c.Completed {
			completed = append(completed, c)
		}
	}

	pattern := patterns.Compute(user.ID, completed, all)
	if err := h.repo.Upsert(ctx, pattern); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store behavior pattern")
		return
	}

	respondJSON(w, http.StatusOK, pattern)
}
