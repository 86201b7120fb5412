package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quietgrove/intently/internal/apperr"
)

func TestRespondAppError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "auth required maps to 401", err: apperr.ErrAuthRequired, wantStatus: http.StatusUnauthorized},
		{name: "wrapped not found maps to 404", err: apperr.NotFoundf("commitment abc"), wantStatus: http.StatusNotFound},
		{name: "validation maps to 400", err: apperr.Validationf("bad due_time"), wantStatus: http.StatusBadRequest},
		{name: "transport maps to 502", err: apperr.Transport(errors.New("dial tcp: refused")), wantStatus: http.StatusBadGateway},
		{name: "malformed response maps to 502", err: apperr.Malformedf("missing reasoning"), wantStatus: http.StatusBadGateway},
		{name: "unclassified maps to 500", err: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			respondAppError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var body map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if success, ok := body["success"].(bool); !ok || success {
				t.Error("Expected success to be false")
			}
			if _, ok := body["error"].(string); !ok {
				t.Error("Expected error field to be present")
			}
		})
	}
}

func TestRespondAppErrorHidesProviderDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondAppError(rec, apperr.Transport(errors.New("api key sk-secret rejected")))

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	msg, _ := body["message"].(string)
	if msg != "AI provider unreachable" {
		t.Errorf("Expected generic transport message, got %q", msg)
	}
}
