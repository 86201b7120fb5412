package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/quietgrove/intently/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	dueTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and due date/time formats
	// These should never fail in normal operation, but panic loudly if they do
	if err := Validate.RegisterValidation("mood", validateMood); err != nil {
		panic(fmt.Sprintf("failed to register mood validator: %v", err))
	}
	if err := Validate.RegisterValidation("urgency_level", validateUrgencyLevel); err != nil {
		panic(fmt.Sprintf("failed to register urgency_level validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_date", validateDueDateField); err != nil {
		panic(fmt.Sprintf("failed to register due_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_time", validateDueTimeField); err != nil {
		panic(fmt.Sprintf("failed to register due_time validator: %v", err))
	}
}

func validateMood(fl validator.FieldLevel) bool {
	return ValidateMood(fl.Field().String()) == nil
}

func validateUrgencyLevel(fl validator.FieldLevel) bool {
	return ValidateUrgencyLevel(fl.Field().String()) == nil
}

func validateDueDateField(fl validator.FieldLevel) bool {
	return ValidateDueDate(fl.Field().String()) == nil
}

func validateDueTimeField(fl validator.FieldLevel) bool {
	return ValidateDueTime(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateMood validates a Mood string value
func ValidateMood(value string) error {
	switch models.Mood(value) {
	case models.MoodHappy, models.MoodNeutral, models.MoodStressed,
		models.MoodEnergized, models.MoodTired, models.MoodOverwhelmed:
		return nil
	default:
		return fmt.Errorf("invalid mood: %s (must be 'happy', 'neutral', 'stressed', 'energized', 'tired', or 'overwhelmed')", value)
	}
}

// ValidateUrgencyLevel validates an UrgencyLevel string value
func ValidateUrgencyLevel(value string) error {
	switch models.UrgencyLevel(value) {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical:
		return nil
	default:
		return fmt.Errorf("invalid urgency_level: %s (must be 'low', 'medium', 'high', or 'critical')", value)
	}
}

// ValidateDueDate validates a calendar date in YYYY-MM-DD form
func ValidateDueDate(value string) error {
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return fmt.Errorf("invalid due_date: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}

// ValidateDueTime validates a 24h clock time in HH:MM form
func ValidateDueTime(value string) error {
	if !dueTimeRe.MatchString(value) {
		return fmt.Errorf("invalid due_time: %s (must be HH:MM, 24h)", value)
	}
	return nil
}

// ValidateEnergyLevel validates an energy level report
func ValidateEnergyLevel(value int) error {
	if value < models.MinEnergyLevel || value > models.MaxEnergyLevel {
		return fmt.Errorf("invalid energy_level: %d (must be between %d and %d)", value, models.MinEnergyLevel, models.MaxEnergyLevel)
	}
	return nil
}
