package handlers

import (
	"net/http"

	"github.com/quietgrove/intently/internal/request"
)

// Me returns the authenticated user's profile
func Me(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
