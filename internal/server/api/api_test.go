package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/tapflow/internal/session"
	"github.com/ayusman/tapflow/internal/store"
)

// stubPipeline implements Pipeline for handler tests.
type stubPipeline struct {
	mu        sync.Mutex
	mode      session.Mode
	recording bool
	startErr  error
	started   []string
}

func newStubPipeline(mode session.Mode) *stubPipeline {
	return &stubPipeline{mode: mode}
}

func (p *stubPipeline) Mode() session.Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *stubPipeline) SetMode(m session.Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = m
}

func (p *stubPipeline) StartRecording(label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startErr != nil {
		return p.startErr
	}
	p.started = append(p.started, label)
	return nil
}

func (p *stubPipeline) Recording() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recording
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestModeHandler(t *testing.T) {
	t.Run("GET returns current mode", func(t *testing.T) {
		h := NewModeHandler(newStubPipeline(session.ModeInference))

		req := httptest.NewRequest(http.MethodGet, "/api/mode", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp modeResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Mode != string(session.ModeInference) {
			t.Errorf("expected mode %q, got %q", session.ModeInference, resp.Mode)
		}
		if resp.Recording {
			t.Error("expected recording false")
		}
	})

	t.Run("POST switches mode", func(t *testing.T) {
		p := newStubPipeline(session.ModeInference)
		h := NewModeHandler(p)

		body := bytes.NewBufferString(`{"mode":"recording"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/mode", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if p.Mode() != session.ModeRecording {
			t.Errorf("expected pipeline mode recording, got %s", p.Mode())
		}
	})

	t.Run("POST rejects unknown mode", func(t *testing.T) {
		p := newStubPipeline(session.ModeInference)
		h := NewModeHandler(p)

		body := bytes.NewBufferString(`{"mode":"turbo"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/mode", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if p.Mode() != session.ModeInference {
			t.Errorf("mode should be unchanged, got %s", p.Mode())
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		h := NewModeHandler(newStubPipeline(session.ModeInference))

		req := httptest.NewRequest(http.MethodDelete, "/api/mode", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestRecordingsHandler_Start(t *testing.T) {
	t.Run("accepts start in recording mode", func(t *testing.T) {
		p := newStubPipeline(session.ModeRecording)
		h := NewRecordingsHandler(testStore(t), p)

		body := bytes.NewBufferString(`{"label":"tap"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/recordings/start", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
		}
		if len(p.started) != 1 || p.started[0] != "tap" {
			t.Errorf("expected one start with label tap, got %v", p.started)
		}
	})

	t.Run("rejects start outside recording mode", func(t *testing.T) {
		p := newStubPipeline(session.ModeInference)
		h := NewRecordingsHandler(testStore(t), p)

		body := bytes.NewBufferString(`{"label":"tap"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/recordings/start", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
		if len(p.started) != 0 {
			t.Errorf("expected no starts, got %v", p.started)
		}
	})

	t.Run("rejects concurrent recording", func(t *testing.T) {
		p := newStubPipeline(session.ModeRecording)
		p.startErr = session.ErrRecordingInProgress
		h := NewRecordingsHandler(testStore(t), p)

		body := bytes.NewBufferString(`{"label":"background"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/recordings/start", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("rejects unknown label", func(t *testing.T) {
		p := newStubPipeline(session.ModeRecording)
		h := NewRecordingsHandler(testStore(t), p)

		body := bytes.NewBufferString(`{"label":"wave"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/recordings/start", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})
}

func TestRecordingsHandler_ListGetDelete(t *testing.T) {
	s := testStore(t)
	p := newStubPipeline(session.ModeRecording)
	h := NewRecordingsHandler(s, p)

	samples := []store.WindowSample{
		{RelativeYVelocity: -0.05, RelativeYAcceleration: -0.05, StabilityRatio: 0.01},
	}
	window, err := s.Windows().Create("tap", samples)
	if err != nil {
		t.Fatalf("failed to seed window: %v", err)
	}

	t.Run("list returns recordings with counts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp listRecordingsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Recordings) != 1 {
			t.Fatalf("expected 1 recording, got %d", len(resp.Recordings))
		}
		if resp.Recordings[0].ID != window.ID {
			t.Errorf("expected id %s, got %s", window.ID, resp.Recordings[0].ID)
		}
		if len(resp.Recordings[0].Samples) != 0 {
			t.Error("list should not include samples")
		}
		if resp.Counts["tap"] != 1 {
			t.Errorf("expected tap count 1, got %d", resp.Counts["tap"])
		}
	})

	t.Run("get returns samples", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings/"+window.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp recordingResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Samples) != 1 {
			t.Fatalf("expected 1 sample, got %d", len(resp.Samples))
		}
		if resp.Samples[0].RelativeYVelocity != -0.05 {
			t.Errorf("expected velocity -0.05, got %f", resp.Samples[0].RelativeYVelocity)
		}
	})

	t.Run("export emits dataset entries", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings/export", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var entries []struct {
			Label   string               `json:"label"`
			Samples []store.WindowSample `json:"samples"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Label != "tap" {
			t.Errorf("expected label tap, got %s", entries[0].Label)
		}
		if len(entries[0].Samples) != 1 {
			t.Errorf("expected 1 sample, got %d", len(entries[0].Samples))
		}

		// The training script reads these exact field names.
		raw, _ := json.Marshal(entries[0].Samples[0])
		for _, key := range []string{"relativeYVelocity", "relativeYAcceleration", "stabilityRatio"} {
			if !bytes.Contains(raw, []byte(key)) {
				t.Errorf("exported sample missing key %q: %s", key, raw)
			}
		}
	})

	t.Run("get unknown id returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings/missing", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("delete removes the recording", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/recordings/"+window.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}

		if _, err := s.Windows().GetByID(window.ID); err == nil {
			t.Error("expected window to be deleted")
		}
	})
}

func TestActionsHandler(t *testing.T) {
	s := testStore(t)
	h := NewActionsHandler(s)

	var created actionResponse

	t.Run("create action", func(t *testing.T) {
		body := bytes.NewBufferString(`{"plugin_name":"keyboard","action_name":"press_key","config":{"key":"space"}}`)
		req := httptest.NewRequest(http.MethodPost, "/api/actions", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}
		if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if created.ID == "" {
			t.Error("expected an assigned id")
		}
		if !created.Enabled {
			t.Error("expected enabled to default to true")
		}
	})

	t.Run("create requires plugin and action names", func(t *testing.T) {
		body := bytes.NewBufferString(`{"plugin_name":"keyboard"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/actions", body)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("list actions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/actions", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp listActionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Actions) != 1 {
			t.Fatalf("expected 1 action, got %d", len(resp.Actions))
		}
		if resp.Actions[0].PluginName != "keyboard" {
			t.Errorf("expected plugin keyboard, got %s", resp.Actions[0].PluginName)
		}
	})

	t.Run("delete action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/actions/"+created.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
	})

	t.Run("delete unknown action returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/actions/missing", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}
