package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/tapflow/internal/classifier"
	"github.com/ayusman/tapflow/internal/detector"
	"github.com/ayusman/tapflow/internal/feature"
)

// Config holds the collaborators and tuning for an Engine.
type Config struct {
	// Sink persists completed recording windows. May be nil (recordings are
	// then discarded).
	Sink Sink
	// Classifier runs tap-model inference. May be nil; the inference session
	// then reports not-ready and never classifies.
	Classifier classifier.Classifier
	// OnAction receives fired action events, one goroutine per event; a slow
	// handler never stalls frame processing.
	OnAction func(ActionEvent)
	// OnStatus receives human-readable session status lines.
	OnStatus func(string)
	// Threshold is the fire threshold on the classifier's confidence scale.
	Threshold float64
	// Cooldown is the suppression period after a fire.
	Cooldown time.Duration
}

// Engine is the serialization point for all core mutable state. Frame
// observations, mode commands, classification results, and cooldown expiries
// are funneled into one goroutine, so the extractor memory, the recording
// window, the inference window, and the cooldown are only ever mutated from a
// single context. Classification and persistence run on their own goroutines
// and report back through the same funnel; the engine never waits on them.
type Engine struct {
	config    Config
	extractor *feature.Extractor
	modes     *ModeController
	recorder  *Recorder
	gate      *Gate
	mu        sync.Mutex

	observations chan detector.Observation
	commands     chan func()
	results      chan classifyOutcome
	expiries     chan struct{}
	stopCh       chan struct{}
	doneCh       chan struct{}

	// Engine-goroutine state.
	classifying bool
	lastStatus  string
}

type classifyOutcome struct {
	res classifier.Result
	err error
}

// NewEngine creates an Engine. Call Start before feeding observations.
func NewEngine(config Config) *Engine {
	return &Engine{
		config:       config,
		extractor:    feature.NewExtractor(),
		modes:        NewModeController(),
		recorder:     NewRecorder(),
		gate:         NewGate(config.Threshold, config.Cooldown),
		observations: make(chan detector.Observation),
		commands:     make(chan func()),
		results:      make(chan classifyOutcome, 1),
		expiries:     make(chan struct{}, 1),
	}
}

// Start launches the engine goroutine. Starting a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopCh != nil {
		return
	}
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.run(e.stopCh, e.doneCh)
}

// Stop halts the engine goroutine and waits for it to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	stopCh, doneCh := e.stopCh, e.doneCh
	e.stopCh = nil
	e.doneCh = nil
	e.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

// stopped returns the stop channel of the current run, or a closed channel if
// the engine is not running.
func (e *Engine) stopped() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopCh == nil {
		return closedCh
	}
	return e.stopCh
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Observe submits one frame observation. The detector delivery contract keeps
// at most one observation in flight, so this never queues more than a frame.
func (e *Engine) Observe(obs detector.Observation) {
	select {
	case e.observations <- obs:
	case <-e.stopped():
	}
}

// Mode returns the current operating mode.
func (e *Engine) Mode() Mode {
	return e.modes.Mode()
}

// ObserveMode registers a presentation callback for mode transitions.
func (e *Engine) ObserveMode(fn func(Mode)) {
	e.modes.Observe(fn)
}

// SetMode switches the operating mode and returns once the transition has
// been applied. The transition clears the extractor memory, any partial
// recording, and the inference window, so no stale samples leak across
// sessions.
func (e *Engine) SetMode(m Mode) {
	done := make(chan struct{})
	e.do(func() {
		if e.modes.Set(m) {
			e.resetBuffers()
		}
		close(done)
	})
	select {
	case <-done:
	case <-e.stopped():
	}
}

// StartRecording begins capturing one labeled window. It fails with
// ErrRecordingInProgress while a window is filling, leaving state untouched.
func (e *Engine) StartRecording(label string) error {
	errCh := make(chan error, 1)
	e.do(func() {
		errCh <- e.recorder.Start(label)
	})
	select {
	case err := <-errCh:
		return err
	case <-e.stopped():
		return fmt.Errorf("engine stopped")
	}
}

// Recording reports whether a recording window is currently filling.
func (e *Engine) Recording() bool {
	filling := make(chan bool, 1)
	e.do(func() {
		filling <- e.recorder.Filling()
	})
	select {
	case f := <-filling:
		return f
	case <-e.stopped():
		return false
	}
}

// do runs fn on the engine goroutine.
func (e *Engine) do(fn func()) {
	select {
	case e.commands <- fn:
	case <-e.stopped():
	}
}

func (e *Engine) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// A previous run may have stopped with a classification or a cooldown
	// timer in flight; their outcomes were dropped on the old stop channel.
	// Clear the transient state so this run starts able to classify and fire.
	e.classifying = false
	e.gate.ExpireCooldown()
drain:
	for {
		select {
		case <-e.results:
		case <-e.expiries:
		default:
			break drain
		}
	}

	for {
		select {
		case <-stopCh:
			return
		case fn := <-e.commands:
			fn()
		case obs := <-e.observations:
			e.handleObservation(obs)
		case out := <-e.results:
			e.handleResult(out)
		case <-e.expiries:
			e.gate.ExpireCooldown()
		}
	}
}

func (e *Engine) handleObservation(obs detector.Observation) {
	s := e.extractor.Step(obs.Hand)

	switch e.modes.Mode() {
	case ModeRecording:
		if !e.recorder.Filling() {
			return
		}
		label := e.recorder.Label()
		if done := e.recorder.Push(s); done != nil {
			e.status(fmt.Sprintf("captured %s window", done.Label))
			go e.persist(done)
			return
		}
		e.status(fmt.Sprintf("recording %s: %d/%d", label, e.recorder.Len(), feature.WindowSize))

	case ModeInference:
		e.gate.Push(s)

		if e.config.Classifier == nil {
			e.status("classifier not ready")
			return
		}

		if !e.gate.WarmedUp() {
			cur, target := e.gate.Fill()
			e.status(fmt.Sprintf("accumulating %d/%d", cur, target))
			return
		}

		// During cooldown we keep updating the window but stay quiet.
		if e.gate.CoolingDown() {
			return
		}

		e.status("waiting for tap")

		if e.classifying {
			// Previous call still in flight; the next frame retries naturally.
			return
		}

		tensor, ok := e.gate.Tensor()
		if !ok {
			return
		}
		e.classifying = true
		stop := e.stopped()
		go func() {
			res, err := e.config.Classifier.Classify(tensor)
			select {
			case e.results <- classifyOutcome{res: res, err: err}:
			case <-stop:
			}
		}()
	}
}

func (e *Engine) handleResult(out classifyOutcome) {
	e.classifying = false

	// A mode switch or reset may have landed while the call was in flight.
	if e.modes.Mode() != ModeInference || !e.gate.WarmedUp() {
		return
	}

	if out.err != nil {
		log.Printf("classification failed: %v", out.err)
		e.status("classification error")
		return
	}

	now := time.Now()
	ev, fired := e.gate.Evaluate(out.res, now)
	if !fired {
		return
	}

	e.status(fmt.Sprintf("tap detected (%.2f)", ev.Confidence))
	if e.config.OnAction != nil {
		// Action dispatch may run plugin subprocesses; like persistence it
		// gets its own goroutine so frames keep flowing during a slow action.
		go e.config.OnAction(ev)
	}

	remaining := e.gate.CooldownRemaining(now)
	stop := e.stopped()
	time.AfterFunc(remaining, func() {
		select {
		case e.expiries <- struct{}{}:
		case <-stop:
		}
	})
}

// persist writes one completed window on its own goroutine; the pipeline never
// waits on sink latency. A failed window is discarded, not retried.
func (e *Engine) persist(w *CompletedWindow) {
	if e.config.Sink == nil {
		return
	}
	if err := e.config.Sink.SaveWindow(w.Label, w.Samples); err != nil {
		log.Printf("persist %s window: %v", w.Label, err)
		e.do(func() {
			e.status(fmt.Sprintf("failed to save %s window", w.Label))
		})
	}
}

func (e *Engine) resetBuffers() {
	e.extractor.Reset()
	e.recorder.Reset()
	e.gate.Reset()
	e.lastStatus = ""
}

// status forwards a status line to the observer, suppressing repeats.
func (e *Engine) status(s string) {
	if s == e.lastStatus {
		return
	}
	e.lastStatus = s
	if e.config.OnStatus != nil {
		e.config.OnStatus(s)
	}
}
