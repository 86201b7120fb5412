package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/models"
)

// stubCompleter returns a scripted result and records the request
type stubCompleter struct {
	result *Result
	err    error
	calls  []Request
}

func (c *stubCompleter) Complete(ctx context.Context, req Request) (*Result, error) {
	c.calls = append(c.calls, req)
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type stubCommitments struct {
	byID     map[uuid.UUID]*models.Commitment
	byUser   []*models.Commitment
	recent   []*models.Commitment
	listErr  error
	lastFilt *database.Filter
}

func (s *stubCommitments) GetByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("commitment %s", id)
	}
	return c, nil
}

func (s *stubCommitments) GetByUserID(ctx context.Context, userID uuid.UUID, filter *database.Filter) ([]*models.Commitment, error) {
	s.lastFilt = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.byUser, nil
}

func (s *stubCommitments) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Commitment, error) {
	return s.recent, nil
}

type stubMoods struct {
	logs []*models.MoodLog
}

func (s *stubMoods) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.MoodLog, error) {
	return s.logs, nil
}

type stubPatterns struct {
	pattern *models.BehaviorPattern
	err     error
}

func (s *stubPatterns) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.BehaviorPattern, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pattern, nil
}

type stubSuggestions struct {
	created []*models.RescheduleSuggestion
	err     error
}

func (s *stubSuggestions) Create(ctx context.Context, sg *models.RescheduleSuggestion) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, sg)
	return nil
}

type stubAnnotations struct {
	created []*models.PriorityAnnotation
}

func (s *stubAnnotations) Create(ctx context.Context, a *models.PriorityAnnotation) error {
	s.created = append(s.created, a)
	return nil
}

type serviceFixture struct {
	svc         *Service
	completer   *stubCompleter
	commitments *stubCommitments
	patterns    *stubPatterns
	suggestions *stubSuggestions
	annotations *stubAnnotations
}

func newFixture(result *Result) *serviceFixture {
	f := &serviceFixture{
		completer:   &stubCompleter{result: result},
		commitments: &stubCommitments{byID: make(map[uuid.UUID]*models.Commitment)},
		patterns:    &stubPatterns{},
		suggestions: &stubSuggestions{},
		annotations: &stubAnnotations{},
	}
	f.svc = NewService(f.completer, f.commitments, &stubMoods{}, f.patterns, f.suggestions, f.annotations)
	f.svc.SetNowFunc(func() time.Time {
		return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	})
	return f
}

func pendingCommitment(userID uuid.UUID) *models.Commitment {
	return &models.Commitment{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   "morning run",
		DueDate: "2025-06-02",
		DueTime: "07:00",
	}
}

func TestRankByMood(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("empty day skips the model entirely", func(t *testing.T) {
		t.Parallel()

		f := newFixture(nil)
		ranking, err := f.svc.RankByMood(context.Background(), userID, models.MoodTired, 2)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(ranking.RecommendedOrder) != 0 {
			t.Errorf("Expected empty order, got %v", ranking.RecommendedOrder)
		}
		if len(f.completer.calls) != 0 {
			t.Errorf("Expected no completion calls, got %d", len(f.completer.calls))
		}
	})

	t.Run("ranks pending commitments through a forced tool call", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"recommended_order":["` + c.ID.String() + `"],"reasoning":"low energy, easy first"}`})
		f.commitments.byUser = []*models.Commitment{c}

		ranking, err := f.svc.RankByMood(context.Background(), userID, models.MoodTired, 2)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(ranking.RecommendedOrder) != 1 || ranking.RecommendedOrder[0] != c.ID.String() {
			t.Errorf("Unexpected order: %v", ranking.RecommendedOrder)
		}
		if ranking.Reasoning == "" {
			t.Error("Expected reasoning to be set")
		}

		if len(f.completer.calls) != 1 {
			t.Fatalf("Expected 1 completion call, got %d", len(f.completer.calls))
		}
		if f.completer.calls[0].Tool == nil {
			t.Error("Expected a forced tool call")
		}
		if f.commitments.lastFilt == nil || f.commitments.lastFilt.DueDate == nil || *f.commitments.lastFilt.DueDate != "2025-06-02" {
			t.Errorf("Expected today filter, got %+v", f.commitments.lastFilt)
		}
	})

	t.Run("missing reasoning is malformed", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"recommended_order":[]}`})
		f.commitments.byUser = []*models.Commitment{c}

		_, err := f.svc.RankByMood(context.Background(), userID, models.MoodHappy, 4)
		if !errors.Is(err, apperr.ErrMalformedResponse) {
			t.Errorf("Expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("transport failure propagates untouched", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(nil)
		f.completer.err = apperr.Transport(errors.New("connection refused"))
		f.commitments.byUser = []*models.Commitment{c}

		_, err := f.svc.RankByMood(context.Background(), userID, models.MoodHappy, 4)
		if !errors.Is(err, apperr.ErrTransport) {
			t.Errorf("Expected ErrTransport, got %v", err)
		}
		if len(f.completer.calls) != 1 {
			t.Errorf("Expected exactly one attempt, no retry, got %d", len(f.completer.calls))
		}
	})
}

func TestAdviseReschedule(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("parses fenced free-text advice", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Text: "```json\n{\"shouldReschedule\":true,\"suggestion\":\"move to tomorrow morning\",\"recommendedTime\":\"07:30\"}\n```"})
		f.commitments.byID[c.ID] = c

		advice, err := f.svc.AdviseReschedule(context.Background(), userID, c.ID, models.MoodStressed, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !advice.ShouldReschedule {
			t.Error("Expected shouldReschedule true")
		}
		if advice.RecommendedTime == nil || *advice.RecommendedTime != "07:30" {
			t.Errorf("Unexpected recommended time: %v", advice.RecommendedTime)
		}
		if f.completer.calls[0].Tool != nil {
			t.Error("Expected free-text mode, no tool")
		}
	})

	t.Run("other user's commitment reads as not found", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(uuid.New())
		f := newFixture(nil)
		f.commitments.byID[c.ID] = c

		_, err := f.svc.AdviseReschedule(context.Background(), userID, c.ID, models.MoodNeutral, 3)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if len(f.completer.calls) != 0 {
			t.Errorf("Expected no completion calls, got %d", len(f.completer.calls))
		}
	})

	t.Run("prose answer is malformed", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Text: "You should definitely move this to the weekend."})
		f.commitments.byID[c.ID] = c

		_, err := f.svc.AdviseReschedule(context.Background(), userID, c.ID, models.MoodNeutral, 3)
		if !errors.Is(err, apperr.ErrMalformedResponse) {
			t.Errorf("Expected ErrMalformedResponse, got %v", err)
		}
	})
}

func TestAdviseBulkReschedule(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("empty backlog returns empty advice without a call", func(t *testing.T) {
		t.Parallel()

		f := newFixture(nil)
		items, err := f.svc.AdviseBulkReschedule(context.Background(), userID, models.MoodEnergized, 5)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("Expected no items, got %d", len(items))
		}
		if len(f.completer.calls) != 0 {
			t.Errorf("Expected no completion calls, got %d", len(f.completer.calls))
		}
	})

	t.Run("decodes one item per commitment", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Text: `[{"commitmentId":"` + c.ID.String() + `","commitmentTitle":"morning run","currentSchedule":"2025-06-02 at 07:00","suggestedDate":"2025-06-03","suggestedTime":"07:00","reason":"rest today","shouldReschedule":true}]`})
		f.commitments.byUser = []*models.Commitment{c}

		items, err := f.svc.AdviseBulkReschedule(context.Background(), userID, models.MoodTired, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(items))
		}
		if items[0].CommitmentID != c.ID.String() || !items[0].ShouldReschedule {
			t.Errorf("Unexpected item: %+v", items[0])
		}
	})
}

func TestAutoReschedule(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("stores the proposal as a suggestion", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"suggested_date":"2025-06-04","suggested_time":"09:00","reasoning":"mornings suit you"}`})
		f.commitments.byID[c.ID] = c
		f.patterns.pattern = &models.BehaviorPattern{UserID: userID, TypicalCompletionHour: 9}

		proposal, err := f.svc.AutoReschedule(context.Background(), userID, c.ID)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if proposal.SuggestedDate != "2025-06-04" || proposal.SuggestedTime != "09:00" {
			t.Errorf("Unexpected proposal: %+v", proposal)
		}

		if len(f.suggestions.created) != 1 {
			t.Fatalf("Expected 1 stored suggestion, got %d", len(f.suggestions.created))
		}
		s := f.suggestions.created[0]
		if s.CommitmentID != c.ID || s.UserID != userID {
			t.Errorf("Suggestion mislinked: %+v", s)
		}
		if s.OriginalDate != c.DueDate || s.OriginalTime != c.DueTime {
			t.Errorf("Expected original slot preserved, got %s %s", s.OriginalDate, s.OriginalTime)
		}
		if s.Reason != "mornings suit you" {
			t.Errorf("Unexpected reason: %q", s.Reason)
		}
	})

	t.Run("missing pattern is not fatal", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"suggested_date":"2025-06-04","suggested_time":"09:00","reasoning":"r"}`})
		f.commitments.byID[c.ID] = c
		f.patterns.err = errors.New("no pattern yet")

		if _, err := f.svc.AutoReschedule(context.Background(), userID, c.ID); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("incomplete proposal stores nothing", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"suggested_date":"2025-06-04"}`})
		f.commitments.byID[c.ID] = c

		_, err := f.svc.AutoReschedule(context.Background(), userID, c.ID)
		if !errors.Is(err, apperr.ErrMalformedResponse) {
			t.Errorf("Expected ErrMalformedResponse, got %v", err)
		}
		if len(f.suggestions.created) != 0 {
			t.Errorf("Expected no partial writes, got %d", len(f.suggestions.created))
		}
	})
}

func TestAnalyzePriority(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("stores the annotation and returns the analysis", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"priority_score":0.85,"urgency_level":"high","reasoning":"due today"}`})
		f.commitments.byID[c.ID] = c

		analysis, err := f.svc.AnalyzePriority(context.Background(), userID, c.ID)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if analysis.PriorityScore != 0.85 || analysis.UrgencyLevel != "high" {
			t.Errorf("Unexpected analysis: %+v", analysis)
		}

		if len(f.annotations.created) != 1 {
			t.Fatalf("Expected 1 stored annotation, got %d", len(f.annotations.created))
		}
		a := f.annotations.created[0]
		if a.CommitmentID != c.ID || a.PriorityScore != 0.85 || a.UrgencyLevel != models.UrgencyHigh {
			t.Errorf("Unexpected annotation: %+v", a)
		}
	})

	t.Run("out of range score is malformed and stores nothing", func(t *testing.T) {
		t.Parallel()

		c := pendingCommitment(userID)
		f := newFixture(&Result{Arguments: `{"priority_score":1.5,"urgency_level":"high","reasoning":"r"}`})
		f.commitments.byID[c.ID] = c

		_, err := f.svc.AnalyzePriority(context.Background(), userID, c.ID)
		if !errors.Is(err, apperr.ErrMalformedResponse) {
			t.Errorf("Expected ErrMalformedResponse, got %v", err)
		}
		if len(f.annotations.created) != 0 {
			t.Errorf("Expected no partial writes, got %d", len(f.annotations.created))
		}
	})
}
