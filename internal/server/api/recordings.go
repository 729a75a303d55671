package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/tapflow/internal/classifier"
	"github.com/ayusman/tapflow/internal/session"
	"github.com/ayusman/tapflow/internal/store"
)

// RecordingsHandler handles HTTP requests for recorded training windows.
type RecordingsHandler struct {
	store    *store.Store
	pipeline Pipeline
}

// NewRecordingsHandler creates a new RecordingsHandler.
func NewRecordingsHandler(s *store.Store, p Pipeline) *RecordingsHandler {
	return &RecordingsHandler{store: s, pipeline: p}
}

type recordingResponse struct {
	ID         string               `json:"id"`
	Label      string               `json:"label"`
	CapturedAt string               `json:"captured_at"`
	Samples    []store.WindowSample `json:"samples,omitempty"`
}

type listRecordingsResponse struct {
	Recordings []recordingResponse `json:"recordings"`
	Counts     map[string]int      `json:"counts"`
}

type startRecordingRequest struct {
	Label string `json:"label"`
}

func toRecordingResponse(w *store.Window, withSamples bool) recordingResponse {
	resp := recordingResponse{
		ID:         w.ID,
		Label:      w.Label,
		CapturedAt: w.CapturedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if withSamples {
		resp.Samples = w.Samples
	}
	return resp
}

// ServeHTTP implements the http.Handler interface and routes requests.
// Expected paths: /api/recordings, /api/recordings/start, /api/recordings/{id}
func (h *RecordingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recordings")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case path == "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case path == "export":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.export(w, r)
	default:
		id := path
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// list handles GET /api/recordings.
func (h *RecordingsHandler) list(w http.ResponseWriter, r *http.Request) {
	windows, err := h.store.Windows().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}

	counts, err := h.store.Windows().CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count recordings")
		return
	}

	resp := listRecordingsResponse{
		Recordings: make([]recordingResponse, 0, len(windows)),
		Counts:     counts,
	}
	for i := range windows {
		resp.Recordings = append(resp.Recordings, toRecordingResponse(&windows[i], false))
	}

	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/recordings/{id} and returns the window with its
// samples in the training dataset format.
func (h *RecordingsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	window, err := h.store.Windows().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load recording")
		return
	}

	writeJSON(w, http.StatusOK, toRecordingResponse(window, true))
}

// export handles GET /api/recordings/export. It emits every window with its
// samples in the JSON form the training script consumes, one dataset entry
// per window.
func (h *RecordingsHandler) export(w http.ResponseWriter, r *http.Request) {
	windows, err := h.store.Windows().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}

	type exportEntry struct {
		Label   string               `json:"label"`
		Samples []store.WindowSample `json:"samples"`
	}

	entries := make([]exportEntry, 0, len(windows))
	for i := range windows {
		full, err := h.store.Windows().GetByID(windows[i].ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load recording")
			return
		}
		entries = append(entries, exportEntry{Label: full.Label, Samples: full.Samples})
	}

	writeJSON(w, http.StatusOK, entries)
}

// delete handles DELETE /api/recordings/{id}.
func (h *RecordingsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Windows().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete recording")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// start handles POST /api/recordings/start. While a window is filling,
// further starts are rejected with 409 and no state changes.
func (h *RecordingsHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Label != classifier.LabelTap && req.Label != classifier.LabelBackground {
		writeError(w, http.StatusBadRequest, "label must be 'tap' or 'background'")
		return
	}

	if h.pipeline.Mode() != session.ModeRecording {
		writeError(w, http.StatusConflict, "pipeline is not in recording mode")
		return
	}

	if err := h.pipeline.StartRecording(req.Label); err != nil {
		if errors.Is(err, session.ErrRecordingInProgress) {
			writeError(w, http.StatusConflict, "recording already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start recording")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
