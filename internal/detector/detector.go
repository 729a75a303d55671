package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark detection implementations.
// The pipeline submits frames one at a time and never has more than one
// detection outstanding.
type Detector interface {
	// Detect analyzes a video frame and returns the most prominent hand's
	// landmarks, or nil if no hand was detected.
	Detect(frame *gocv.Mat) (*HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
