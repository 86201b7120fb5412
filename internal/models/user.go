package models

import (
	"github.com/google/uuid"
)

// User is the authenticated owner extracted from a verified bearer token.
// Every persisted entity is exclusively scoped to one user.
type User struct {
	ID      uuid.UUID `json:"id"`
	Subject string    `json:"subject"`
	Email   string    `json:"email,omitempty"`
}
