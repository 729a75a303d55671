// Package detector provides hand landmark detection interfaces and types for the
// tap recognition pipeline.
package detector

import "time"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// MinPresentLandmarks is the minimum number of indexed landmarks a detection must
// carry for the hand to count as present. Detections below this threshold are
// treated as an absent hand.
const MinPresentLandmarks = 18

// Point3D represents a normalized 3D point with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents one detected hand's landmark set.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Detected   int                   `json:"detected"` // how many indexed points the detector filled
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Present reports whether this detection counts as a present hand.
func (h *HandLandmarks) Present() bool {
	return h != nil && h.Detected >= MinPresentLandmarks
}

// Observation is one frame's detection outcome: either a present hand's landmark
// set, or an absence signal when Hand is nil or below the presence threshold.
type Observation struct {
	Hand *HandLandmarks
	Time time.Time
}
