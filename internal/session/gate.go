package session

import (
	"time"

	"github.com/ayusman/tapflow/internal/classifier"
	"github.com/ayusman/tapflow/internal/feature"
)

// Default gate parameters. The fire threshold is on the tap model's native
// confidence scale.
const (
	DefaultFireThreshold = 1.9
	DefaultCooldown      = time.Second
)

// ActionEvent is the discrete "tap detected" signal emitted when the gate
// fires, with the triggering confidence.
type ActionEvent struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Time       time.Time `json:"time"`
}

// Gate maintains the inference sliding window: three parallel rolling streams
// of capacity feature.WindowSize, plus the threshold/cooldown logic that turns
// classification results into at most one action per cooldown period.
//
// The gate is a pure state machine. The engine pushes samples, pulls the
// tensor once warmed up, feeds back classification results, and delivers the
// cooldown-expiry timer event, all from a single goroutine.
type Gate struct {
	velocity     ring
	acceleration ring
	stability    ring

	threshold   float64
	cooldown    time.Duration
	coolingDown bool
	cooldownEnd time.Time
}

// NewGate creates a Gate with the given fire threshold and cooldown duration.
func NewGate(threshold float64, cooldown time.Duration) *Gate {
	if threshold == 0 {
		threshold = DefaultFireThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{threshold: threshold, cooldown: cooldown}
}

// Push appends one sample's components to the three rolling streams, evicting
// the oldest entries once at capacity.
func (g *Gate) Push(s feature.Sample) {
	g.velocity.push(s.RelativeVelocityY)
	g.acceleration.push(s.RelativeAccelerationY)
	g.stability.push(s.PalmStability)
}

// WarmedUp reports whether all three streams hold a full window.
func (g *Gate) WarmedUp() bool {
	return g.velocity.full() && g.acceleration.full() && g.stability.full()
}

// Fill returns the current and target stream lengths for warm-up status.
func (g *Gate) Fill() (current, target int) {
	return g.velocity.len(), feature.WindowSize
}

// Tensor builds the classification input from the three streams, channel-major
// in the order velocity, acceleration, stability, each time-ordered oldest to
// newest. It returns false until the gate is warmed up.
func (g *Gate) Tensor() (classifier.Tensor, bool) {
	if !g.WarmedUp() {
		return classifier.Tensor{}, false
	}
	var t classifier.Tensor
	t[0] = g.velocity.ordered()
	t[1] = g.acceleration.ordered()
	t[2] = g.stability.ordered()
	return t, true
}

// Evaluate applies the gate rule to one classification result. An action fires
// iff the label is "tap", its confidence meets the threshold, and the cooldown
// is inactive. Firing activates the cooldown; the caller must arrange a timer
// for CooldownRemaining and deliver its expiry via ExpireCooldown.
func (g *Gate) Evaluate(res classifier.Result, now time.Time) (ActionEvent, bool) {
	if res.Label != classifier.LabelTap {
		return ActionEvent{}, false
	}
	if res.Confidence < g.threshold {
		return ActionEvent{}, false
	}
	if g.coolingDown {
		return ActionEvent{}, false
	}

	g.coolingDown = true
	g.cooldownEnd = now.Add(g.cooldown)

	return ActionEvent{
		Label:      res.Label,
		Confidence: res.Confidence,
		Time:       now,
	}, true
}

// CoolingDown reports whether action firing is currently suppressed.
func (g *Gate) CoolingDown() bool {
	return g.coolingDown
}

// CooldownRemaining returns how long the active cooldown has left.
func (g *Gate) CooldownRemaining(now time.Time) time.Duration {
	if !g.coolingDown {
		return 0
	}
	return g.cooldownEnd.Sub(now)
}

// ExpireCooldown clears the cooldown. Called when the deadline timer fires,
// through the same serialization point as frame processing.
func (g *Gate) ExpireCooldown() {
	g.coolingDown = false
	g.cooldownEnd = time.Time{}
}

// Reset clears the three streams and the cooldown.
func (g *Gate) Reset() {
	g.velocity.reset()
	g.acceleration.reset()
	g.stability.reset()
	g.ExpireCooldown()
}
