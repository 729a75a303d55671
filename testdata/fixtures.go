// Package testdata provides synthetic landmark sequences for pipeline tests.
package testdata

import (
	"github.com/ayusman/tapflow/internal/detector"
)

// StillHand returns a fully detected hand at rest.
func StillHand() *detector.HandLandmarks {
	hand := detector.RestingHandLandmarks()
	return &hand
}

// StillSequence returns n frames of a motionless hand.
func StillSequence(n int) []*detector.HandLandmarks {
	frames := make([]*detector.HandLandmarks, n)
	for i := range frames {
		frames[i] = StillHand()
	}
	return frames
}

// TapSequence returns n frames of a hand whose index finger descends by step
// per frame while the palm stays put. With the default step the motion reads
// as a sharp downward strike.
func TapSequence(n int, step float64) []*detector.HandLandmarks {
	frames := make([]*detector.HandLandmarks, n)
	for i := range frames {
		hand := detector.RestingHandLandmarks()
		hand.Points[detector.IndexTip].Y += float64(i) * step
		frames[i] = &hand
	}
	return frames
}

// DriftSequence returns n frames of the whole hand drifting down by step per
// frame. Relative features should stay near zero for this motion.
func DriftSequence(n int, step float64) []*detector.HandLandmarks {
	frames := make([]*detector.HandLandmarks, n)
	for i := range frames {
		hand := detector.RestingHandLandmarks()
		for j := range hand.Points {
			hand.Points[j].Y += float64(i) * step
		}
		frames[i] = &hand
	}
	return frames
}

// WithGap returns the given sequence with m absent frames (nil hands)
// inserted at index at.
func WithGap(frames []*detector.HandLandmarks, at, m int) []*detector.HandLandmarks {
	out := make([]*detector.HandLandmarks, 0, len(frames)+m)
	out = append(out, frames[:at]...)
	for i := 0; i < m; i++ {
		out = append(out, nil)
	}
	out = append(out, frames[at:]...)
	return out
}

// PartialHand returns a hand with too few detected landmarks to count as
// present.
func PartialHand() *detector.HandLandmarks {
	hand := detector.RestingHandLandmarks()
	hand.Detected = detector.MinPresentLandmarks - 1
	return &hand
}
