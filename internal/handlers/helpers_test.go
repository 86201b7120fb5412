package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	t.Run("wraps data in a success envelope", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusOK, map[string]string{"message": "hello"})

		resp := w.Result()
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		body := decodeEnvelope(t, resp)
		if success, _ := body["success"].(bool); !success {
			t.Error("success = false, want true")
		}
		data, ok := body["data"].(map[string]any)
		if !ok {
			t.Fatalf("data missing from envelope: %v", body)
		}
		if data["message"] != "hello" {
			t.Errorf("data.message = %v, want hello", data["message"])
		}
	})

	t.Run("nil data stays nil", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusCreated, nil)

		resp := w.Result()
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Errorf("status = %d, want 201", resp.StatusCode)
		}
		if body := decodeEnvelope(t, resp); body["data"] != nil {
			t.Errorf("data = %v, want nil", body["data"])
		}
	})

	t.Run("slices survive as arrays", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusOK, []string{"a", "b", "c"})

		resp := w.Result()
		defer resp.Body.Close()

		body := decodeEnvelope(t, resp)
		data, ok := body["data"].([]any)
		if !ok {
			t.Fatalf("data is %T, want array", body["data"])
		}
		if len(data) != 3 {
			t.Errorf("len(data) = %d, want 3", len(data))
		}
	})

	t.Run("timestamp is RFC3339", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusOK, "test")

		resp := w.Result()
		defer resp.Body.Close()

		body := decodeEnvelope(t, resp)
		ts, ok := body["timestamp"].(string)
		if !ok {
			t.Fatal("timestamp missing from envelope")
		}
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			t.Errorf("timestamp %q is not RFC3339: %v", ts, err)
		}
	})
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		errorType string
		message   string
	}{
		{"bad request", http.StatusBadRequest, "Bad Request", "Invalid input"},
		{"internal error", http.StatusInternalServerError, "Internal Server Error", "Database connection failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, tt.status, tt.errorType, tt.message)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decodeEnvelope(t, resp)
			if success, _ := body["success"].(bool); success {
				t.Error("success = true, want false")
			}
			if body["error"] != tt.errorType {
				t.Errorf("error = %v, want %q", body["error"], tt.errorType)
			}
			if body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
			if _, ok := body["timestamp"].(string); !ok {
				t.Error("timestamp missing from envelope")
			}
		})
	}
}
