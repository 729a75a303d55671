package app

import (
	"log"
	"time"

	"github.com/ayusman/tapflow/internal/detector"
)

// runPipeline is the frame loop. It reads frames at the current rate, runs
// the motion prefilter, and feeds one observation per frame into the engine.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS)
// 2. On motion detected, switch to active mode (ActiveFPS)
// 3. In active mode, run hand detection and observe the result
// 4. Outside active mode, observe an absent hand so feature memory resets
// 5. After 2s without motion, switch back to idle mode
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			d := a.Detector()
			if !activeMode || d == nil {
				frame.Close()
				// An idle frame is an absent hand from the engine's view.
				a.engine.Observe(detector.Observation{Time: time.Now()})
				continue
			}

			hand, err := d.Detect(frame)
			frame.Close()

			if err != nil {
				log.Printf("Error detecting hand: %v", err)
				continue
			}

			a.engine.Observe(detector.Observation{Hand: hand, Time: time.Now()})
		}
	}
}
