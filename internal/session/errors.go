package session

import "errors"

// ErrRecordingInProgress is returned when a recording start is requested while
// a window is still filling. The request is rejected without mutating state.
var ErrRecordingInProgress = errors.New("recording already in progress")
