package session

import "testing"

func TestModeController_Defaults(t *testing.T) {
	c := NewModeController()
	if c.Mode() != ModeInference {
		t.Errorf("initial mode = %q, want %q", c.Mode(), ModeInference)
	}
}

func TestModeController_TransitionNotifiesObservers(t *testing.T) {
	c := NewModeController()

	var seen []Mode
	c.Observe(func(m Mode) {
		seen = append(seen, m)
	})

	if !c.Set(ModeRecording) {
		t.Fatal("Set(recording) = false, want true")
	}
	if c.Mode() != ModeRecording {
		t.Errorf("mode = %q, want %q", c.Mode(), ModeRecording)
	}
	if len(seen) != 1 || seen[0] != ModeRecording {
		t.Errorf("observed = %v, want [recording]", seen)
	}
}

func TestModeController_RedundantSetIsNoop(t *testing.T) {
	c := NewModeController()

	notified := 0
	c.Observe(func(Mode) { notified++ })

	if c.Set(ModeInference) {
		t.Error("Set to active mode = true, want false")
	}
	if notified != 0 {
		t.Errorf("observer notified %d times for redundant transition, want 0", notified)
	}
}

func TestMode_Valid(t *testing.T) {
	if !ModeRecording.Valid() || !ModeInference.Valid() {
		t.Error("known modes should be valid")
	}
	if Mode("calibration").Valid() {
		t.Error("unknown mode should be invalid")
	}
}
