// Package classifier provides the tap-model inference interface for the
// tapflow gesture pipeline.
package classifier

import "github.com/ayusman/tapflow/internal/feature"

// Labels the tap model can produce.
const (
	LabelTap        = "tap"
	LabelBackground = "background"
)

// Tensor is one classification input: three feature channels of one window,
// channel-major, each channel time-ordered oldest to newest.
// Channel order is velocity, acceleration, stability.
type Tensor [feature.NumChannels][feature.WindowSize]float64

// Result is one classification outcome. Confidence is the score for Label on
// the model's native scale; Confidences carries the per-label scores.
type Result struct {
	Label       string             `json:"label"`
	Confidence  float64            `json:"confidence"`
	Confidences map[string]float64 `json:"confidences"`
}

// Classifier defines the interface for tap-model inference implementations.
type Classifier interface {
	// Classify runs the model on one window tensor.
	Classify(t Tensor) (Result, error)

	// Close releases any resources held by the classifier.
	Close() error
}
