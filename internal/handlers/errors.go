package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorResponse is the JSON body returned on any failure
type errorResponse struct {
	Message string `json:"message"`
}

// respondJSON writes v as a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondError writes a JSON error body with a user-safe message and logs
// the underlying error server-side
func respondError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Message: userMsg})
}
