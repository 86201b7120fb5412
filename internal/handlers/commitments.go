package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
	"github.com/quietgrove/intently/internal/queue"
	"github.com/quietgrove/intently/internal/request"
	"github.com/quietgrove/intently/internal/validation"
)

const (
	// MaxTitleLength caps commitment titles
	MaxTitleLength = 500
	// MaxDescriptionLength caps commitment descriptions
	MaxDescriptionLength = 10000
)

// ReminderScheduler is the slice of the notification scheduler the HTTP
// layer needs. Completing or deleting a commitment cancels its ladder,
// creating or rescheduling one rebuilds it.
type ReminderScheduler interface {
	ScheduleCommitment(c *models.Commitment) (int, error)
	Cancel(id uuid.UUID) int
}

// CommitmentHandler handles commitment CRUD and lifecycle requests
type CommitmentHandler struct {
	repo        *database.CommitmentRepository
	suggestions *database.RescheduleSuggestionRepository
	jobs        queue.JobQueue
	reminders   ReminderScheduler
	logger      *zap.Logger
}

// NewCommitmentHandler creates a new commitment handler
func NewCommitmentHandler(
	repo *database.CommitmentRepository,
	suggestions *database.RescheduleSuggestionRepository,
	jobs queue.JobQueue,
	reminders ReminderScheduler,
	logger *zap.Logger,
) *CommitmentHandler {
	return &CommitmentHandler{
		repo:        repo,
		suggestions: suggestions,
		jobs:        jobs,
		reminders:   reminders,
		logger:      logger,
	}
}

// RegisterRoutes registers commitment routes on the given router.
// The router should already carry the /commitments prefix.
func (h *CommitmentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCommitments).Methods("GET")
	r.HandleFunc("", h.CreateCommitment).Methods("POST")
	r.HandleFunc("/{id}", h.GetCommitment).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateCommitment).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteCommitment).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteCommitment).Methods("POST")
	r.HandleFunc("/{id}/skip", h.SkipCommitment).Methods("POST")
	r.HandleFunc("/{id}/reschedule", h.RescheduleCommitment).Methods("POST")
	r.HandleFunc("/{id}/suggestions", h.ListSuggestions).Methods("GET")
}

// CreateCommitmentRequest represents a create request
type CreateCommitmentRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	DueDate     string  `json:"due_date" validate:"required,due_date"`
	DueTime     string  `json:"due_time" validate:"required,due_time"`
	Priority    *string `json:"priority,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// UpdateCommitmentRequest represents a partial update
type UpdateCommitmentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	DueTime     *string `json:"due_time,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// RescheduleRequest moves a commitment to a new slot. When SuggestionID is
// set the new slot comes from the stored suggestion, which is marked accepted.
type RescheduleRequest struct {
	DueDate      *string    `json:"due_date,omitempty" validate:"omitempty,due_date"`
	DueTime      *string    `json:"due_time,omitempty" validate:"omitempty,due_time"`
	SuggestionID *uuid.UUID `json:"suggestion_id,omitempty"`
}

// ListCommitments lists the authenticated user's commitments, optionally
// filtered by due date, completion, or a date range
func (h *CommitmentHandler) ListCommitments(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	filter := &database.Filter{}
	q := r.URL.Query()
	if d := q.Get("due_date"); d != "" {
		if err := validation.ValidateDueDate(d); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		filter.DueDate = &d
	}
	if c := q.Get("completed"); c != "" {
		completed := c == "true"
		filter.Completed = &completed
	}
	if from := q.Get("from"); from != "" {
		if err := validation.ValidateDueDate(from); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		filter.FromDate = &from
	}
	if to := q.Get("to"); to != "" {
		if err := validation.ValidateDueDate(to); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		filter.ToDate = &to
	}

	commitments, err := h.repo.GetByUserID(r.Context(), user.ID, filter)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve commitments")
		return
	}

	respondJSON(w, http.StatusOK, commitments)
}

// CreateCommitment creates a new commitment, schedules its reminder ladder,
// and enqueues a priority analysis job
func (h *CommitmentHandler) CreateCommitment(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateCommitmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		req.Description = &sanitized
	}

	ctx := r.Context()
	commitment := &models.Commitment{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		DueTime:     req.DueTime,
		Priority:    req.Priority,
		Category:    req.Category,
	}

	if err := h.repo.Create(ctx, commitment); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create commitment")
		return
	}

	if h.reminders != nil {
		if _, err := h.reminders.ScheduleCommitment(commitment); err != nil {
			h.logger.Warn("reminder_schedule_failed", zap.String("commitment_id", commitment.ID.String()), zap.Error(err))
		}
	}

	h.enqueue(ctx, queue.NewJob(queue.JobTypePriorityAnalysis, user.ID, &commitment.ID))

	respondJSON(w, http.StatusCreated, commitment)
}

// GetCommitment retrieves a commitment by ID
func (h *CommitmentHandler) GetCommitment(w http.ResponseWriter, r *http.Request) {
	user, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}
	_ = user

	respondJSON(w, http.StatusOK, commitment)
}

// UpdateCommitment applies a partial update and rebuilds the reminder ladder
// when the due slot moved
func (h *CommitmentHandler) UpdateCommitment(w http.ResponseWriter, r *http.Request) {
	_, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}

	var req UpdateCommitmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rescheduled := false
	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTitleLength))
			return
		}
		commitment.Title = sanitized
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		if len(sanitized) > MaxDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", MaxDescriptionLength))
			return
		}
		commitment.Description = &sanitized
	}
	if req.DueDate != nil {
		if err := validation.ValidateDueDate(*req.DueDate); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		commitment.DueDate = *req.DueDate
		rescheduled = true
	}
	if req.DueTime != nil {
		if err := validation.ValidateDueTime(*req.DueTime); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		commitment.DueTime = *req.DueTime
		rescheduled = true
	}
	if req.Completed != nil {
		h.applyCompletion(r.Context(), commitment, *req.Completed)
	}
	if req.Priority != nil {
		commitment.Priority = req.Priority
	}
	if req.Category != nil {
		commitment.Category = req.Category
	}

	if err := h.repo.Update(r.Context(), commitment); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update commitment")
		return
	}

	if h.reminders != nil && rescheduled && !commitment.Completed {
		if _, err := h.reminders.ScheduleCommitment(commitment); err != nil {
			h.logger.Warn("reminder_schedule_failed", zap.String("commitment_id", commitment.ID.String()), zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, commitment)
}

// DeleteCommitment removes a commitment and cancels its pending reminders
func (h *CommitmentHandler) DeleteCommitment(w http.ResponseWriter, r *http.Request) {
	_, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), commitment.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete commitment")
		return
	}

	if h.reminders != nil {
		h.reminders.Cancel(commitment.ID)
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// CompleteCommitment marks a commitment done, cancels its reminders, and
// enqueues a behavior pattern refresh
func (h *CommitmentHandler) CompleteCommitment(w http.ResponseWriter, r *http.Request) {
	user, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}

	if commitment.Completed {
		respondJSON(w, http.StatusOK, commitment)
		return
	}

	ctx := r.Context()
	h.applyCompletion(ctx, commitment, true)

	if err := h.repo.Update(ctx, commitment); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete commitment")
		return
	}

	h.enqueue(ctx, queue.NewJob(queue.JobTypePatternRefresh, user.ID, nil))

	respondJSON(w, http.StatusOK, commitment)
}

// SkipCommitment records that the user is not doing a commitment at its
// current slot and enqueues an auto-reschedule job to propose a new one
func (h *CommitmentHandler) SkipCommitment(w http.ResponseWriter, r *http.Request) {
	user, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}

	if h.reminders != nil {
		h.reminders.Cancel(commitment.ID)
	}

	h.enqueue(r.Context(), queue.NewJob(queue.JobTypeAutoReschedule, user.ID, &commitment.ID))

	respondJSON(w, http.StatusAccepted, map[string]any{"skipped": true, "commitment_id": commitment.ID})
}

// RescheduleCommitment moves a commitment to a new slot, either explicitly or
// by accepting a stored suggestion. Only the due date and time change.
func (h *CommitmentHandler) RescheduleCommitment(w http.ResponseWriter, r *http.Request) {
	_, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}

	var req RescheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	ctx := r.Context()
	newDate := commitment.DueDate
	newTime := commitment.DueTime

	if req.SuggestionID != nil {
		suggestion, err := h.suggestions.GetByID(ctx, *req.SuggestionID)
		if err != nil {
			respondAppError(w, err)
			return
		}
		if suggestion.CommitmentID != commitment.ID {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Suggestion does not belong to this commitment")
			return
		}
		newDate = suggestion.SuggestedDate
		newTime = suggestion.SuggestedTime
		if err := h.suggestions.SetAccepted(ctx, suggestion.ID, true); err != nil {
			h.logger.Warn("suggestion_accept_failed", zap.String("suggestion_id", suggestion.ID.String()), zap.Error(err))
		}
	} else {
		if req.DueDate == nil && req.DueTime == nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Either suggestion_id or a new due_date/due_time is required")
			return
		}
		if req.DueDate != nil {
			newDate = *req.DueDate
		}
		if req.DueTime != nil {
			newTime = *req.DueTime
		}
	}

	if err := h.repo.Reschedule(ctx, commitment.ID, newDate, newTime); err != nil {
		respondAppError(w, err)
		return
	}
	commitment.DueDate = newDate
	commitment.DueTime = newTime

	if h.reminders != nil && !commitment.Completed {
		if _, err := h.reminders.ScheduleCommitment(commitment); err != nil {
			h.logger.Warn("reminder_schedule_failed", zap.String("commitment_id", commitment.ID.String()), zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, commitment)
}

// ListSuggestions returns the stored reschedule suggestions for a commitment
func (h *CommitmentHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	_, commitment, ok := h.ownedCommitment(w, r)
	if !ok {
		return
	}

	suggestions, err := h.suggestions.GetByCommitmentID(r.Context(), commitment.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestions")
		return
	}

	respondJSON(w, http.StatusOK, suggestions)
}

// ownedCommitment resolves the {id} path variable to a commitment owned by
// the authenticated user, writing the error response itself on failure
func (h *CommitmentHandler) ownedCommitment(w http.ResponseWriter, r *http.Request) (*models.User, *models.Commitment, bool) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil, nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid commitment ID")
		return nil, nil, false
	}

	commitment, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return nil, nil, false
	}
	if commitment.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Commitment does not belong to user")
		return nil, nil, false
	}

	return user, commitment, true
}

func (h *CommitmentHandler) applyCompletion(_ context.Context, commitment *models.Commitment, completed bool) {
	commitment.Completed = completed
	if completed {
		now := time.Now().UTC()
		commitment.CompletedAt = &now
		if h.reminders != nil {
			h.reminders.Cancel(commitment.ID)
		}
	} else {
		commitment.CompletedAt = nil
		if h.reminders != nil {
			if _, err := h.reminders.ScheduleCommitment(commitment); err != nil {
				h.logger.Warn("reminder_schedule_failed", zap.String("commitment_id", commitment.ID.String()), zap.Error(err))
			}
		}
	}
}

func (h *CommitmentHandler) enqueue(ctx context.Context, job *queue.Job) {
	if h.jobs == nil {
		return
	}
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		h.logger.Warn("job_enqueue_failed", zap.String("job_type", string(job.Type)), zap.Error(err))
	}
}
