package models

import (
	"time"

	"github.com/google/uuid"
)

// Mood represents a self-reported emotional state
type Mood string

const (
	MoodHappy       Mood = "happy"
	MoodNeutral     Mood = "neutral"
	MoodStressed    Mood = "stressed"
	MoodEnergized   Mood = "energized"
	MoodTired       Mood = "tired"
	MoodOverwhelmed Mood = "overwhelmed"
)

const (
	// MinEnergyLevel is the lowest reportable energy level
	MinEnergyLevel = 1
	// MaxEnergyLevel is the highest reportable energy level
	MaxEnergyLevel = 5
)

// MoodLog is an append-only record of a user's mood and energy at a point in time.
// The latest log by LoggedAt is treated as the user's current state.
type MoodLog struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Mood        Mood      `json:"mood"`
	EnergyLevel int       `json:"energy_level"` // 1-5
	Notes       *string   `json:"notes,omitempty"`
	LoggedAt    time.Time `json:"logged_at"`
}
