// Package feature derives per-frame kinematic features from consecutive hand
// landmark observations. Each observation yields one Sample of vertical motion
// of the index fingertip relative to the wrist, plus a palm stability score.
package feature

import (
	"math"

	"github.com/ayusman/tapflow/internal/detector"
)

// Window dimensions shared by the recording and inference sessions.
const (
	// WindowSize is the number of samples in one classification window.
	WindowSize = 25
	// NumChannels is the number of feature channels per sample.
	NumChannels = 3
)

// Sample holds the three kinematic features derived from one frame.
// The JSON field names match the training dataset format.
type Sample struct {
	RelativeVelocityY     float64 `json:"relativeYVelocity"`
	RelativeAccelerationY float64 `json:"relativeYAcceleration"`
	PalmStability         float64 `json:"stabilityRatio"`
}

// Extractor computes feature samples from consecutive present landmark sets.
// It exclusively owns the previous landmarks and previous relative velocity;
// both are cleared whenever the hand becomes absent, so velocity and
// acceleration are never computed across a detection gap.
type Extractor struct {
	prev    *detector.HandLandmarks
	prevVel float64
}

// NewExtractor creates an Extractor with empty memory.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Step consumes one observation and returns its feature sample.
//
// An absent hand clears the memory and yields a zero sample. A present hand
// with no stored predecessor primes the memory and also yields a zero sample.
// Otherwise the sample is computed against the previous present landmarks:
//
//	relativeVelocityY     = indexTip Δy − wrist Δy
//	relativeAccelerationY = relativeVelocityY − previous relativeVelocityY
//	palmStability         = Σ |Δy| over wrist, middle/ring/pinky knuckles
//
// Subtracting the wrist velocity cancels whole-hand translation, isolating
// fingertip motion relative to the wrist. A low stability score means the palm
// held still, a precondition for a clean tap.
func (e *Extractor) Step(hand *detector.HandLandmarks) Sample {
	if !hand.Present() {
		e.Reset()
		return Sample{}
	}

	if e.prev == nil {
		cur := *hand
		e.prev = &cur
		e.prevVel = 0
		return Sample{}
	}

	indexVel := hand.Points[detector.IndexTip].Y - e.prev.Points[detector.IndexTip].Y
	wristVel := hand.Points[detector.Wrist].Y - e.prev.Points[detector.Wrist].Y

	relVel := indexVel - wristVel
	relAcc := relVel - e.prevVel

	stability := math.Abs(wristVel) +
		math.Abs(hand.Points[detector.MiddleMCP].Y-e.prev.Points[detector.MiddleMCP].Y) +
		math.Abs(hand.Points[detector.RingMCP].Y-e.prev.Points[detector.RingMCP].Y) +
		math.Abs(hand.Points[detector.PinkyMCP].Y-e.prev.Points[detector.PinkyMCP].Y)

	cur := *hand
	e.prev = &cur
	e.prevVel = relVel

	return Sample{
		RelativeVelocityY:     relVel,
		RelativeAccelerationY: relAcc,
		PalmStability:         stability,
	}
}

// Reset clears the extractor memory. The next present observation will yield
// a zero sample regardless of what came before.
func (e *Extractor) Reset() {
	e.prev = nil
	e.prevVel = 0
}
