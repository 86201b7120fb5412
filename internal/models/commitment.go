package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the calendar-date format used for due dates (YYYY-MM-DD)
	DateLayout = "2006-01-02"
	// TimeLayout is the 24h clock format used for due times (HH:MM)
	TimeLayout = "15:04"
)

// Commitment represents a user-defined task with a due date and time
type Commitment struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     string     `json:"due_date"` // YYYY-MM-DD
	DueTime     string     `json:"due_time"` // HH:MM (24h)
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Category    *string    `json:"category,omitempty"`
	ImageRef    *string    `json:"image_ref,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DueAt combines DueDate and DueTime into a single instant in the given location.
// Notification offsets are computed against this instant.
func (c *Commitment) DueAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, c.DueDate+" "+c.DueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date/time %q %q: %w", c.DueDate, c.DueTime, err)
	}
	return t, nil
}

// DueHour returns the integer hour component (0-23) of DueTime.
func (c *Commitment) DueHour() (int, error) {
	t, err := time.Parse(TimeLayout, c.DueTime)
	if err != nil {
		return 0, fmt.Errorf("invalid due time %q: %w", c.DueTime, err)
	}
	return t.Hour(), nil
}

// DueWeekday returns the lowercase weekday name of DueDate.
func (c *Commitment) DueWeekday() (string, error) {
	t, err := time.Parse(DateLayout, c.DueDate)
	if err != nil {
		return "", fmt.Errorf("invalid due date %q: %w", c.DueDate, err)
	}
	switch t.Weekday() {
	case time.Sunday:
		return "sunday", nil
	case time.Monday:
		return "monday", nil
	case time.Tuesday:
		return "tuesday", nil
	case time.Wednesday:
		return "wednesday", nil
	case time.Thursday:
		return "thursday", nil
	case time.Friday:
		return "friday", nil
	default:
		return "saturday", nil
	}
}
