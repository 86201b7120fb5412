package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quietgrove/intently/internal/models"
	"go.uber.org/zap"
)

// Scheduler arranges one-shot reminders ahead of each commitment's due
// instant. Each reminder is an independent timer; reminders for one
// commitment fire in increasing time order because every delay is computed
// against the same wall clock, but nothing orders timers across commitments.
//
// Timers are tracked per commitment id so completing or deleting a
// commitment cancels everything still pending for it.
type Scheduler struct {
	offsets  []time.Duration
	gate     Gate
	notifier Notifier
	clock    Clock
	loc      *time.Location
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID][]Timer
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock overrides the wall clock (tests)
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLocation sets the zone used to resolve due date+time into an instant
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithLogger sets an optional logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a reminder scheduler. offsets are durations before the
// due instant at which reminders fire; zero fires at the instant itself.
func NewScheduler(offsets []time.Duration, gate Gate, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		offsets:  offsets,
		gate:     gate,
		notifier: notifier,
		clock:    RealClock(),
		loc:      time.Local,
		pending:  make(map[uuid.UUID][]Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleReminders arranges a reminder for every configured offset that is
// still in the future relative to now. Offsets whose delay has already
// passed are skipped entirely, neither fired immediately nor queued.
// Previously pending reminders for the same commitment are cancelled first,
// so rescheduling a commitment replaces its ladder.
func (s *Scheduler) ScheduleReminders(id uuid.UUID, title string, firesAt time.Time) int {
	s.Cancel(id)

	untilDue := firesAt.Sub(s.clock.Now())

	var timers []Timer
	for _, offset := range s.offsets {
		delay := untilDue - offset
		if delay <= 0 {
			continue
		}

		tag := "commitment-" + id.String()
		noteTitle, body := reminderMessage(title, offset)
		timers = append(timers, s.clock.AfterFunc(delay, func() {
			s.fire(id, noteTitle, body, tag)
		}))
	}

	if len(timers) > 0 {
		s.mu.Lock()
		s.pending[id] = timers
		s.mu.Unlock()
	}

	if s.logger != nil {
		s.logger.Debug("reminders_scheduled",
			zap.String("commitment_id", id.String()),
			zap.Int("count", len(timers)),
			zap.Time("fires_at", firesAt),
		)
	}

	return len(timers)
}

// ScheduleCommitment resolves the commitment's due instant and schedules its
// reminder ladder
func (s *Scheduler) ScheduleCommitment(c *models.Commitment) (int, error) {
	dueAt, err := c.DueAt(s.loc)
	if err != nil {
		return 0, err
	}
	return s.ScheduleReminders(c.ID, c.Title, dueAt), nil
}

// ScheduleAllPending schedules reminders for every incomplete commitment in
// the list. Completed entries are skipped.
func (s *Scheduler) ScheduleAllPending(commitments []*models.Commitment) int {
	total := 0
	for _, c := range commitments {
		if c.Completed {
			continue
		}
		n, err := s.ScheduleCommitment(c)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping_unschedulable_commitment",
					zap.String("commitment_id", c.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}
		total += n
	}
	return total
}

// Cancel stops every pending reminder for the commitment and reports how
// many were tracked. Safe to call for ids with nothing pending.
func (s *Scheduler) Cancel(id uuid.UUID) int {
	s.mu.Lock()
	timers := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	return len(timers)
}

// PendingCount reports how many reminders are tracked for the commitment.
// Fired reminders are only removed when the whole ladder completes or is
// cancelled, so this is an upper bound.
func (s *Scheduler) PendingCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[id])
}

// fire runs when a timer elapses. The permission gate is checked at fire
// time: without a grant the reminder is a silent no-op, never retried.
func (s *Scheduler) fire(id uuid.UUID, title, body, tag string) {
	if s.gate.Permission() != PermissionGranted {
		if s.logger != nil {
			s.logger.Debug("reminder_suppressed_no_permission",
				zap.String("commitment_id", id.String()),
			)
		}
		return
	}
	s.notifier.Show(title, body, tag)
}

// reminderMessage builds the title and body for one offset of the ladder
func reminderMessage(title string, offset time.Duration) (string, string) {
	if offset <= 0 {
		return "Commitment due", fmt.Sprintf("Time to complete: %s", title)
	}
	label := offsetLabel(offset)
	return fmt.Sprintf("Upcoming commitment - %s", label), fmt.Sprintf("%s is due in %s", title, label)
}

func offsetLabel(offset time.Duration) string {
	if offset >= time.Hour {
		hours := int(offset / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(offset / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
