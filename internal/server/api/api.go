// Package api provides HTTP API handlers for the tapflow gesture detection
// system.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/tapflow/internal/session"
)

// Pipeline is the slice of the detection engine the API drives.
type Pipeline interface {
	Mode() session.Mode
	SetMode(m session.Mode)
	StartRecording(label string) error
	Recording() bool
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
