package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/tapflow/internal/session"
)

// ModeHandler handles HTTP requests for the operating mode.
type ModeHandler struct {
	pipeline Pipeline
}

// NewModeHandler creates a new ModeHandler driving the given pipeline.
func NewModeHandler(p Pipeline) *ModeHandler {
	return &ModeHandler{pipeline: p}
}

type modeResponse struct {
	Mode      string `json:"mode"`
	Recording bool   `json:"recording"`
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

// ServeHTTP implements the http.Handler interface.
func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.set(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ModeHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modeResponse{
		Mode:      string(h.pipeline.Mode()),
		Recording: h.pipeline.Recording(),
	})
}

func (h *ModeHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode := session.Mode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "mode must be 'recording' or 'inference'")
		return
	}

	h.pipeline.SetMode(mode)

	writeJSON(w, http.StatusOK, modeResponse{
		Mode:      string(h.pipeline.Mode()),
		Recording: h.pipeline.Recording(),
	})
}
