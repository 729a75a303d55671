package session

import "github.com/ayusman/tapflow/internal/feature"

// Sink durably stores one completed labeled window. Failures are independent
// per call and never retried by the pipeline.
type Sink interface {
	SaveWindow(label string, samples []feature.Sample) error
}

// CompletedWindow is one finalized recording handed to the persistence sink.
type CompletedWindow struct {
	Label   string
	Samples []feature.Sample
}

// Recorder accumulates one labeled training window at a time.
// It is a pure state machine (Idle -> Filling -> Idle); dispatching the
// completed window to the sink is the engine's responsibility.
type Recorder struct {
	label   string
	samples []feature.Sample
	filling bool
}

// NewRecorder creates a Recorder in the idle state.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start begins filling a new window for the given label.
// While a window is filling, further starts fail with ErrRecordingInProgress
// and leave the buffer and label untouched.
func (r *Recorder) Start(label string) error {
	if r.filling {
		return ErrRecordingInProgress
	}
	r.label = label
	r.samples = make([]feature.Sample, 0, feature.WindowSize)
	r.filling = true
	return nil
}

// Filling reports whether a window is currently being filled.
func (r *Recorder) Filling() bool {
	return r.filling
}

// Label returns the label chosen at start. Valid while filling.
func (r *Recorder) Label() string {
	return r.label
}

// Len returns the number of samples accumulated so far.
func (r *Recorder) Len() int {
	return len(r.samples)
}

// Push appends one sample to the filling window. The append that reaches
// capacity finalizes the window in the same step: the Recorder returns to
// idle and hands back the completed window for persistence. Pushes while idle
// are ignored.
func (r *Recorder) Push(s feature.Sample) *CompletedWindow {
	if !r.filling {
		return nil
	}

	r.samples = append(r.samples, s)
	if len(r.samples) < feature.WindowSize {
		return nil
	}

	done := &CompletedWindow{Label: r.label, Samples: r.samples}
	r.samples = nil
	r.filling = false
	return done
}

// Reset discards any partially filled window and returns to idle.
func (r *Recorder) Reset() {
	r.samples = nil
	r.filling = false
}
