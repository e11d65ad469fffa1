package app

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

// runPipeline is the tracking loop. Each tick reads one frame, runs body
// selection (which drives the controller synchronously) and publishes the
// resulting status.
//
// The loop starts at the idle rate and switches to the capture rate while
// bodies move or a subject is tracked. After IdleTimeout without either it
// drops back to the idle rate. Settings arrive on settingsCh and are applied
// between frames.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	a.setRunning(true)
	defer a.setRunning(false)

	activeMode := false
	lastActivity := time.Now()
	wasEnabled := true
	var lastTrackingID uint64
	var frames uint64

	fps := a.config.IdleFPS
	ticker := time.NewTicker(frameInterval(fps))
	defer ticker.Stop()

	setRate := func(active bool) {
		activeMode = active
		fps = a.config.IdleFPS
		if active {
			fps = a.config.CaptureFPS
		}
		a.sensor.SetFPS(fps)
		ticker.Reset(frameInterval(fps))
	}

	notifyTracking := func(id uint64) {
		if id == lastTrackingID {
			return
		}
		lastTrackingID = id
		a.mu.RLock()
		fn := a.onTracking
		a.mu.RUnlock()
		if fn != nil {
			fn(id)
		}
	}

	for {
		select {
		case <-stopCh:
			return

		case s := <-a.settingsCh:
			a.selector.SetConfig(s.Tracking)
			a.controller.SetGeometry(s.Tracking.Geometry())
			a.controller.SetSettings(s.Control)
			log.Printf("Applied settings (mode %s)", s.Control.Mode)

		case <-ticker.C:
			if !a.IsEnabled() {
				if wasEnabled {
					wasEnabled = false
					a.suspend()
					notifyTracking(0)
					if activeMode {
						setRate(false)
					}
					log.Println("Tracking disabled")
				}
				continue
			}
			if !wasEnabled {
				wasEnabled = true
				lastActivity = time.Now()
				log.Println("Tracking enabled")
			}

			frame, err := a.sensor.ReadFrame()
			if err != nil {
				if errors.Is(err, sensor.ErrEndOfStream) {
					log.Println("Sensor stream ended")
					a.suspend()
					notifyTracking(0)
					return
				}
				log.Printf("Error reading frame: %v", err)
				continue
			}
			frames++

			if r := a.config.Recorder; r != nil {
				if err := r.Record(frame); err != nil {
					log.Printf("Error recording frame: %v", err)
				}
			}

			moving, activity := a.activity.Detect(frame)
			ev := a.selector.ProcessFrame(frame)
			trackingID := a.selector.ActiveTrackingID()

			if moving || trackingID != 0 {
				lastActivity = time.Now()
				if !activeMode {
					setRate(true)
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastActivity) > a.config.IdleTimeout {
				setRate(false)
				log.Println("Switched to idle mode")
			}

			notifyTracking(trackingID)
			a.publish(frame, Status{
				Active:           activeMode,
				FPS:              fps,
				Frames:           frames,
				Sequence:         frame.Sequence,
				Event:            ev.Kind.String(),
				ActiveTrackingID: trackingID,
				Bodies:           frame.TrackedCount(),
				Activity:         activity,
			})
		}
	}
}

// suspend drops the subject as if it had been lost and forgets the movement
// baseline. It runs on the pipeline goroutine.
func (a *App) suspend() {
	lost := a.selector.ActiveTrackingID() != 0
	if lost {
		a.selector.Reset()
		a.onLost()
	}
	a.activity.Reset()

	a.stateMu.Lock()
	a.status.ActiveTrackingID = 0
	if lost {
		a.status.Event = gesture.EventLost.String()
	} else {
		a.status.Event = gesture.EventNone.String()
	}
	a.status.Control = a.controller.Snapshot()
	a.status.UpdatedAt = time.Now()
	a.stateMu.Unlock()
}

// publish stores the frame and status and hands the status to the publisher.
func (a *App) publish(frame skeleton.Frame, s Status) {
	s.Running = true
	s.Enabled = a.IsEnabled()
	s.Control = a.controller.Snapshot()
	s.Dispatcher = a.dispatcher.Stats()
	s.UpdatedAt = time.Now()

	a.stateMu.Lock()
	a.status = s
	a.latest = frame
	a.haveFrame = true
	a.stateMu.Unlock()

	a.mu.RLock()
	p := a.publisher
	a.mu.RUnlock()
	if p != nil {
		p.Publish(s)
	}
}

func (a *App) setRunning(running bool) {
	a.stateMu.Lock()
	a.status.Running = running
	a.stateMu.Unlock()
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = sensor.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
