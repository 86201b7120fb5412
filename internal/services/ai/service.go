package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
)

const (
	// RecentMoodWindow is how many mood logs feed reschedule advice
	RecentMoodWindow = 5
	// HistoryWindow is how many past commitments feed priority analysis
	HistoryWindow = 20
	// BusySlotDays is how far ahead auto-reschedule looks for conflicts
	BusySlotDays = 7
)

// CommitmentReader is the commitment access the service needs
type CommitmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, filter *database.Filter) ([]*models.Commitment, error)
	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Commitment, error)
}

// MoodReader is the mood log access the service needs
type MoodReader interface {
	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.MoodLog, error)
}

// PatternReader fetches the derived behavior pattern for a user
type PatternReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.BehaviorPattern, error)
}

// SuggestionWriter persists reschedule suggestions
type SuggestionWriter interface {
	Create(ctx context.Context, s *models.RescheduleSuggestion) error
}

// AnnotationWriter persists priority annotations
type AnnotationWriter interface {
	Create(ctx context.Context, a *models.PriorityAnnotation) error
}

// Service implements the five recommendation modes over one Completer.
// Every mode is a single completion call; any transport or parse failure is
// surfaced as a typed error with nothing partial written.
type Service struct {
	completer   Completer
	commitments CommitmentReader
	moods       MoodReader
	patterns    PatternReader
	suggestions SuggestionWriter
	annotations AnnotationWriter
	now         func() time.Time
}

// NewService creates a recommendation service
func NewService(
	completer Completer,
	commitments CommitmentReader,
	moods MoodReader,
	patterns PatternReader,
	suggestions SuggestionWriter,
	annotations AnnotationWriter,
) *Service {
	return &Service{
		completer:   completer,
		commitments: commitments,
		moods:       moods,
		patterns:    patterns,
		suggestions: suggestions,
		annotations: annotations,
		now:         time.Now,
	}
}

// SetNowFunc overrides the clock (tests)
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// MoodRanking is the structured result of RankByMood
type MoodRanking struct {
	RecommendedOrder []string `json:"recommended_order"`
	Reasoning        string   `json:"reasoning"`
}

// RankByMood orders today's incomplete commitments for the user's current
// mood and energy. With nothing due today it returns an empty ranking without
// calling the model.
func (s *Service) RankByMood(ctx context.Context, userID uuid.UUID, mood models.Mood, energyLevel int) (*MoodRanking, error) {
	today := s.now().Format(models.DateLayout)
	incomplete := false
	pending, err := s.commitments.GetByUserID(ctx, userID, &database.Filter{DueDate: &today, Completed: &incomplete})
	if err != nil {
		return nil, fmt.Errorf("failed to load today's commitments: %w", err)
	}
	if len(pending) == 0 {
		return &MoodRanking{RecommendedOrder: []string{}}, nil
	}

	result, err := s.completer.Complete(ctx, Request{
		System: systemRankByMood,
		User:   buildRankByMoodPrompt(mood, energyLevel, pending),
		Tool:   rankByMoodTool(),
	})
	if err != nil {
		return nil, err
	}

	var ranking MoodRanking
	if err := decodeStrict(result.Arguments, &ranking); err != nil {
		return nil, err
	}
	if ranking.RecommendedOrder == nil {
		return nil, apperr.Malformedf("missing recommended_order")
	}
	if ranking.Reasoning == "" {
		return nil, apperr.Malformedf("missing reasoning")
	}

	return &ranking, nil
}

// RescheduleAdvice is the free-form result of the single-commitment mode
type RescheduleAdvice struct {
	ShouldReschedule bool    `json:"shouldReschedule"`
	Suggestion       string  `json:"suggestion"`
	RecommendedTime  *string `json:"recommendedTime"`
}

// AdviseReschedule asks whether one commitment should move, given current
// mood/energy and the last few mood logs. The model is only asked, not
// forced, to answer in JSON, so the response is fence-stripped then parsed;
// parse failure is a hard error.
func (s *Service) AdviseReschedule(ctx context.Context, userID, commitmentID uuid.UUID, mood models.Mood, energyLevel int) (*RescheduleAdvice, error) {
	c, err := s.commitments.GetByID(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperr.NotFoundf("commitment %s", commitmentID)
	}

	recentMoods, err := s.moods.GetRecentByUserID(ctx, userID, RecentMoodWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load mood history: %w", err)
	}

	result, err := s.completer.Complete(ctx, Request{
		System: systemReschedule,
		User:   buildReschedulePrompt(c, mood, energyLevel, recentMoods),
	})
	if err != nil {
		return nil, err
	}

	var advice RescheduleAdvice
	if err := decodeLoose(result.Text, &advice); err != nil {
		return nil, err
	}

	return &advice, nil
}

// BulkRescheduleItem is one entry of the bulk advice result, one per input
// commitment
type BulkRescheduleItem struct {
	CommitmentID     string  `json:"commitmentId"`
	CommitmentTitle  string  `json:"commitmentTitle"`
	CurrentSchedule  string  `json:"currentSchedule"`
	SuggestedDate    *string `json:"suggestedDate"`
	SuggestedTime    *string `json:"suggestedTime"`
	Reason           string  `json:"reason"`
	ShouldReschedule bool    `json:"shouldReschedule"`
}

// AdviseBulkReschedule analyzes every pending commitment in one call. Same
// fence-strip-then-parse rule as the single variant.
func (s *Service) AdviseBulkReschedule(ctx context.Context, userID uuid.UUID, mood models.Mood, energyLevel int) ([]BulkRescheduleItem, error) {
	incomplete := false
	pending, err := s.commitments.GetByUserID(ctx, userID, &database.Filter{Completed: &incomplete})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending commitments: %w", err)
	}
	if len(pending) == 0 {
		return []BulkRescheduleItem{}, nil
	}

	recentMoods, err := s.moods.GetRecentByUserID(ctx, userID, RecentMoodWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load mood history: %w", err)
	}

	result, err := s.completer.Complete(ctx, Request{
		System: systemBulkReschedule,
		User:   buildBulkReschedulePrompt(pending, mood, energyLevel, recentMoods),
	})
	if err != nil {
		return nil, err
	}

	var items []BulkRescheduleItem
	if err := decodeLoose(result.Text, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// AutoRescheduleResult is the structured result of the skip advisor
type AutoRescheduleResult struct {
	SuggestedDate string `json:"suggested_date"`
	SuggestedTime string `json:"suggested_time"`
	Reasoning     string `json:"reasoning"`
}

// AutoReschedule proposes a new slot for a skipped commitment using the
// user's behavior pattern and the busy slots over the next week, then stores
// the proposal as a RescheduleSuggestion before returning it.
func (s *Service) AutoReschedule(ctx context.Context, userID, commitmentID uuid.UUID) (*AutoRescheduleResult, error) {
	c, err := s.commitments.GetByID(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperr.NotFoundf("commitment %s", commitmentID)
	}

	// Pattern is optional context; a user without one still gets advice
	pattern, err := s.patterns.GetByUserID(ctx, userID)
	if err != nil {
		pattern = nil
	}

	now := s.now()
	from := now.Format(models.DateLayout)
	to := now.AddDate(0, 0, BusySlotDays).Format(models.DateLayout)
	upcoming, err := s.commitments.GetByUserID(ctx, userID, &database.Filter{FromDate: &from, ToDate: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming commitments: %w", err)
	}
	busySlots := make([]string, 0, len(upcoming))
	for _, u := range upcoming {
		busySlots = append(busySlots, u.DueDate+" at "+u.DueTime)
	}

	result, err := s.completer.Complete(ctx, Request{
		System: systemAutoReschedule,
		User:   buildAutoReschedulePrompt(c, pattern, busySlots),
		Tool:   autoRescheduleTool(),
	})
	if err != nil {
		return nil, err
	}

	var proposal AutoRescheduleResult
	if err := decodeStrict(result.Arguments, &proposal); err != nil {
		return nil, err
	}
	if proposal.SuggestedDate == "" || proposal.SuggestedTime == "" || proposal.Reasoning == "" {
		return nil, apperr.Malformedf("incomplete reschedule proposal")
	}

	suggestion := &models.RescheduleSuggestion{
		ID:            uuid.New(),
		CommitmentID:  c.ID,
		UserID:        userID,
		OriginalDate:  c.DueDate,
		OriginalTime:  c.DueTime,
		SuggestedDate: proposal.SuggestedDate,
		SuggestedTime: proposal.SuggestedTime,
		Reason:        proposal.Reasoning,
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("failed to store reschedule suggestion: %w", err)
	}

	return &proposal, nil
}

// PriorityResult is the structured result of priority analysis
type PriorityResult struct {
	PriorityScore float64 `json:"priority_score"`
	UrgencyLevel  string  `json:"urgency_level"`
	Reasoning     string  `json:"reasoning"`
}

// AnalyzePriority scores a commitment's priority against the user's recent
// history, then stores the analysis as a PriorityAnnotation before returning.
func (s *Service) AnalyzePriority(ctx context.Context, userID, commitmentID uuid.UUID) (*PriorityResult, error) {
	c, err := s.commitments.GetByID(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperr.NotFoundf("commitment %s", commitmentID)
	}

	history, err := s.commitments.GetRecentByUserID(ctx, userID, HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load commitment history: %w", err)
	}

	result, err := s.completer.Complete(ctx, Request{
		System: systemPriority,
		User:   buildPriorityPrompt(c, history),
		Tool:   priorityTool(),
	})
	if err != nil {
		return nil, err
	}

	var analysis PriorityResult
	if err := decodeStrict(result.Arguments, &analysis); err != nil {
		return nil, err
	}
	if analysis.UrgencyLevel == "" || analysis.Reasoning == "" {
		return nil, apperr.Malformedf("incomplete priority analysis")
	}
	if analysis.PriorityScore < 0 || analysis.PriorityScore > 1 {
		return nil, apperr.Malformedf("priority_score %v out of range", analysis.PriorityScore)
	}

	annotation := &models.PriorityAnnotation{
		ID:            uuid.New(),
		CommitmentID:  c.ID,
		UserID:        userID,
		PriorityScore: analysis.PriorityScore,
		UrgencyLevel:  models.UrgencyLevel(analysis.UrgencyLevel),
		Reasoning:     analysis.Reasoning,
	}
	if err := s.annotations.Create(ctx, annotation); err != nil {
		return nil, fmt.Errorf("failed to store priority annotation: %w", err)
	}

	return &analysis, nil
}
