package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quietgrove/intently/internal/models"
)

// fakeTimer records whether Stop was called
type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
	f       func()
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

func (t *fakeTimer) firedManually() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		t.f()
	}
}

// fakeClock hands out fakeTimers and a fixed now
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// recordingNotifier captures fired reminders
type recordingNotifier struct {
	mu    sync.Mutex
	shown []shownNote
}

type shownNote struct {
	title string
	body  string
	tag   string
}

func (n *recordingNotifier) Show(title, body, tag string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, shownNote{title, body, tag})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.shown)
}

func defaultOffsets() []time.Duration {
	return []time.Duration{
		60 * time.Minute,
		30 * time.Minute,
		10 * time.Minute,
		5 * time.Minute,
		1 * time.Minute,
		0,
	}
}

func TestScheduleReminders(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		untilDue  time.Duration
		wantCount int
	}{
		{name: "due far in the future schedules full ladder", untilDue: 2 * time.Hour, wantCount: 6},
		{name: "due in 45 minutes skips the hour offset", untilDue: 45 * time.Minute, wantCount: 5},
		{name: "due in 7 minutes keeps only near offsets", untilDue: 7 * time.Minute, wantCount: 3},
		{name: "due in 30 seconds keeps only the due instant", untilDue: 30 * time.Second, wantCount: 1},
		{name: "due exactly now schedules nothing", untilDue: 0, wantCount: 0},
		{name: "past due schedules nothing", untilDue: -10 * time.Minute, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := &fakeClock{now: base}
			notifier := &recordingNotifier{}
			s := NewScheduler(defaultOffsets(), StaticGate(PermissionGranted), notifier, WithClock(clock))

			id := uuid.New()
			count := s.ScheduleReminders(id, "stretch", base.Add(tt.untilDue))

			if count != tt.wantCount {
				t.Errorf("Expected %d reminders scheduled, got %d", tt.wantCount, count)
			}
			if got := s.PendingCount(id); got != tt.wantCount {
				t.Errorf("Expected %d pending, got %d", tt.wantCount, got)
			}
			if notifier.count() != 0 {
				t.Errorf("Expected no reminders fired at schedule time, got %d", notifier.count())
			}
		})
	}
}

func TestScheduleRemindersDelays(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	s := NewScheduler(defaultOffsets(), StaticGate(PermissionGranted), &recordingNotifier{}, WithClock(clock))

	s.ScheduleReminders(uuid.New(), "stretch", base.Add(2*time.Hour))

	want := []time.Duration{
		60 * time.Minute,
		90 * time.Minute,
		110 * time.Minute,
		115 * time.Minute,
		119 * time.Minute,
		120 * time.Minute,
	}
	if len(clock.delays) != len(want) {
		t.Fatalf("Expected %d timers, got %d", len(want), len(clock.delays))
	}
	for i, d := range want {
		if clock.delays[i] != d {
			t.Errorf("Timer %d: expected delay %v, got %v", i, d, clock.delays[i])
		}
	}
}

func TestRescheduleReplacesLadder(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	s := NewScheduler(defaultOffsets(), StaticGate(PermissionGranted), &recordingNotifier{}, WithClock(clock))

	id := uuid.New()
	s.ScheduleReminders(id, "stretch", base.Add(2*time.Hour))
	first := clock.timers[:6]

	s.ScheduleReminders(id, "stretch", base.Add(3*time.Hour))

	for i, timer := range first {
		timer.mu.Lock()
		stopped := timer.stopped
		timer.mu.Unlock()
		if !stopped {
			t.Errorf("Timer %d from the first ladder was not stopped", i)
		}
	}
	if got := s.PendingCount(id); got != 6 {
		t.Errorf("Expected 6 pending after reschedule, got %d", got)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	s := NewScheduler(defaultOffsets(), StaticGate(PermissionGranted), &recordingNotifier{}, WithClock(clock))

	id := uuid.New()
	s.ScheduleReminders(id, "stretch", base.Add(2*time.Hour))

	if got := s.Cancel(id); got != 6 {
		t.Errorf("Expected 6 cancelled, got %d", got)
	}
	if got := s.PendingCount(id); got != 0 {
		t.Errorf("Expected 0 pending after cancel, got %d", got)
	}
	if got := s.Cancel(id); got != 0 {
		t.Errorf("Expected cancel of unknown id to report 0, got %d", got)
	}
}

func TestGateCheckedAtFireTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		gate      Permission
		wantShown int
	}{
		{name: "granted fires", gate: PermissionGranted, wantShown: 1},
		{name: "denied suppresses", gate: PermissionDenied, wantShown: 0},
		{name: "default suppresses", gate: PermissionDefault, wantShown: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
			clock := &fakeClock{now: base}
			notifier := &recordingNotifier{}
			s := NewScheduler([]time.Duration{0}, StaticGate(tt.gate), notifier, WithClock(clock))

			id := uuid.New()
			s.ScheduleReminders(id, "stretch", base.Add(time.Minute))

			if len(clock.timers) != 1 {
				t.Fatalf("Expected 1 timer, got %d", len(clock.timers))
			}
			clock.timers[0].firedManually()

			if notifier.count() != tt.wantShown {
				t.Errorf("Expected %d shown, got %d", tt.wantShown, notifier.count())
			}
		})
	}
}

func TestFiredReminderContent(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	notifier := &recordingNotifier{}
	s := NewScheduler([]time.Duration{30 * time.Minute, 0}, StaticGate(PermissionGranted), notifier, WithClock(clock))

	id := uuid.New()
	s.ScheduleReminders(id, "call the dentist", base.Add(time.Hour))

	for _, timer := range clock.timers {
		timer.firedManually()
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.shown) != 2 {
		t.Fatalf("Expected 2 shown, got %d", len(notifier.shown))
	}

	early := notifier.shown[0]
	if early.title != "Upcoming commitment - 30 minutes" {
		t.Errorf("Unexpected early title: %q", early.title)
	}
	if early.body != "call the dentist is due in 30 minutes" {
		t.Errorf("Unexpected early body: %q", early.body)
	}
	if early.tag != "commitment-"+id.String() {
		t.Errorf("Unexpected tag: %q", early.tag)
	}

	due := notifier.shown[1]
	if due.title != "Commitment due" {
		t.Errorf("Unexpected due title: %q", due.title)
	}
	if due.body != "Time to complete: call the dentist" {
		t.Errorf("Unexpected due body: %q", due.body)
	}
}

func TestScheduleAllPending(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	s := NewScheduler(defaultOffsets(), StaticGate(PermissionGranted), &recordingNotifier{},
		WithClock(clock),
		WithLocation(time.UTC),
	)

	commitments := []*models.Commitment{
		{ID: uuid.New(), Title: "a", DueDate: "2025-06-02", DueTime: "12:00"},
		{ID: uuid.New(), Title: "b", DueDate: "2025-06-02", DueTime: "10:30", Completed: true},
		{ID: uuid.New(), Title: "c", DueDate: "2025-06-02", DueTime: "bad-time"},
		{ID: uuid.New(), Title: "d", DueDate: "2025-06-02", DueTime: "09:20"},
	}

	total := s.ScheduleAllPending(commitments)

	// a at 12:00 gets all 6 offsets, d at 09:20 gets 10m/5m/1m/0.
	// b is completed and c does not parse.
	if total != 10 {
		t.Errorf("Expected 10 reminders scheduled, got %d", total)
	}
	if got := s.PendingCount(commitments[1].ID); got != 0 {
		t.Errorf("Expected completed commitment to have no reminders, got %d", got)
	}
}

func TestOffsetLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		offset time.Duration
		want   string
	}{
		{time.Minute, "1 minute"},
		{5 * time.Minute, "5 minutes"},
		{time.Hour, "1 hour"},
		{2 * time.Hour, "2 hours"},
		{90 * time.Minute, "1 hour"},
	}

	for _, tt := range tests {
		if got := offsetLabel(tt.offset); got != tt.want {
			t.Errorf("offsetLabel(%v): expected %q, got %q", tt.offset, tt.want, got)
		}
	}
}
