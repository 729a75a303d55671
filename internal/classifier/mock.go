package classifier

import "sync"

// MockClassifier is a test implementation of the Classifier interface.
// It records its inputs and returns pre-configured results. Safe for
// concurrent use: Classify may still be in flight when a test reconfigures
// or inspects it.
type MockClassifier struct {
	mu         sync.Mutex
	result     Result
	err        error
	calls      int
	lastTensor Tensor
}

// NewMockClassifier creates a MockClassifier that labels everything background.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		result: Result{
			Label:      LabelBackground,
			Confidence: 1.0,
			Confidences: map[string]float64{
				LabelBackground: 1.0,
				LabelTap:        0.0,
			},
		},
	}
}

// SetResult sets the result returned by Classify.
func (m *MockClassifier) SetResult(label string, confidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = Result{
		Label:       label,
		Confidence:  confidence,
		Confidences: map[string]float64{label: confidence},
	}
	m.err = nil
}

// SetError sets the error returned by Classify.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Classify returns the pre-configured result or error.
func (m *MockClassifier) Classify(t Tensor) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTensor = t
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

// Calls returns the number of Classify invocations.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastTensor returns the most recent Classify input.
func (m *MockClassifier) LastTensor() Tensor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTensor
}

// Close is a no-op for the mock classifier.
func (m *MockClassifier) Close() error {
	return nil
}
