package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]string{"message": "created"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["message"] != "created" {
		t.Errorf("message = %q, want %q", body["message"], "created")
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		userMsg string
		err     error
	}{
		{
			name:    "error with underlying cause",
			status:  http.StatusInternalServerError,
			userMsg: "Server error",
			err:     errors.New("db connection lost"),
		},
		{
			name:    "user-facing error only",
			status:  http.StatusBadRequest,
			userMsg: "Invalid request body",
			err:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondError(w, tt.status, tt.userMsg, "", tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}

			var body errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Message != tt.userMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.userMsg)
			}
		})
	}
}
