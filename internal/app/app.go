// Package app wires the sensor, body selection, cursor control and action
// dispatch into the running application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultIdleTimeout is how long the pipeline stays at the capture rate after
// the last movement.
const DefaultIdleTimeout = 2 * time.Second

// Config holds configuration options for the application.
type Config struct {
	// Store persists settings and tracking sessions. It may be nil.
	Store    *store.Store
	Sensor   sensor.Sensor
	Plugins  control.PluginLookup
	Executor control.Executor

	Tracking   gesture.Config
	Control    control.Settings
	Dispatcher control.DispatcherConfig

	CaptureFPS        int
	IdleFPS           int
	IdleTimeout       time.Duration
	ActivityThreshold float64

	// Recorder, when set, receives every frame read while enabled.
	Recorder *sensor.Recorder
}

// Settings are the parameters that can be changed while the pipeline runs.
type Settings struct {
	Tracking gesture.Config   `json:"tracking"`
	Control  control.Settings `json:"control"`
}

// Validate checks both halves of the settings.
func (s Settings) Validate() error {
	if err := s.Tracking.Validate(); err != nil {
		return err
	}
	return s.Control.Validate()
}

// Status is a snapshot of the pipeline, published after every processed frame.
type Status struct {
	Enabled          bool                    `json:"enabled"`
	Running          bool                    `json:"running"`
	Active           bool                    `json:"active"`
	FPS              int                     `json:"fps"`
	Frames           uint64                  `json:"frames"`
	Sequence         uint64                  `json:"sequence"`
	Event            string                  `json:"event"`
	ActiveTrackingID uint64                  `json:"active_tracking_id"`
	Bodies           int                     `json:"bodies"`
	Activity         float64                 `json:"activity"`
	Control          control.Status          `json:"control"`
	Dispatcher       control.DispatcherStats `json:"dispatcher"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// Publisher receives the status after each processed frame. Publish is called
// on the pipeline goroutine and must not block.
type Publisher interface {
	Publish(s Status)
}

// App is the main application that turns sensor frames into cursor control.
type App struct {
	config     Config
	sensor     sensor.Sensor
	selector   *gesture.Selector
	controller *control.Controller
	dispatcher *control.Dispatcher
	activity   *sensor.ActivityDetector

	mu         sync.RWMutex
	enabled    bool
	settings   Settings
	publisher  Publisher
	onTracking func(trackingID uint64)
	stopCh     chan struct{}
	doneCh     chan struct{}
	cancel     context.CancelFunc
	settingsCh chan Settings

	// owned by the pipeline goroutine while it runs
	sessions *SessionTracker

	stateMu   sync.RWMutex
	status    Status
	latest    skeleton.Frame
	haveFrame bool
}

// New creates a new App. The app starts enabled.
func New(config Config) *App {
	if config.CaptureFPS <= 0 {
		config.CaptureFPS = sensor.DefaultFPS
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = sensor.IdleFPS
	}
	if config.IdleFPS > config.CaptureFPS {
		config.IdleFPS = config.CaptureFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.ActivityThreshold <= 0 {
		config.ActivityThreshold = sensor.DefaultActivityThreshold
	}
	if config.Tracking == (gesture.Config{}) {
		config.Tracking = gesture.DefaultConfig()
	}
	if config.Control == (control.Settings{}) {
		config.Control = control.DefaultSettings()
	}
	if config.Dispatcher == (control.DispatcherConfig{}) {
		config.Dispatcher = control.DefaultDispatcherConfig()
	}
	if config.Plugins == nil {
		config.Plugins = plugin.NewManager("")
	}
	if config.Executor == nil {
		config.Executor = plugin.NewExecutor(plugin.DefaultTimeout)
	}

	var bindings control.BindingResolver
	if config.Store != nil {
		bindings = config.Store.Actions()
	}

	a := &App{
		config:     config,
		sensor:     config.Sensor,
		dispatcher: control.NewDispatcher(config.Dispatcher, config.Executor, config.Plugins, bindings),
		activity:   sensor.NewActivityDetector(config.ActivityThreshold),
		enabled:    true,
		settings:   Settings{Tracking: config.Tracking, Control: config.Control},
		settingsCh: make(chan Settings, 1),
	}
	a.controller = control.NewController(config.Control, config.Tracking.Geometry(), a.dispatcher)
	a.selector = gesture.NewSelector(config.Tracking, gesture.ListenerFuncs{
		Subject: a.onSubject,
		Lost:    a.onLost,
	})
	a.status = Status{Enabled: true, Control: a.controller.Snapshot()}
	return a
}

// SetPublisher sets the receiver of per-frame status updates.
func (a *App) SetPublisher(p Publisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publisher = p
}

// OnTrackingChange registers fn to be called with the new active tracking id
// whenever it changes; 0 means nobody is tracked. fn runs on the pipeline
// goroutine.
func (a *App) OnTrackingChange(fn func(trackingID uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTracking = fn
}

// SetEnabled enables or disables tracking and persists the choice. A disabled
// app stops reading frames and releases the cursor.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	a.stateMu.Lock()
	a.status.Enabled = enabled
	a.stateMu.Unlock()

	if st := a.config.Store; st != nil {
		if err := st.Settings().SetEnabled(enabled); err != nil {
			log.Printf("Error saving enabled state: %v", err)
		}
	}
}

// IsEnabled returns whether tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning returns whether the pipeline is reading frames. It turns false
// after Stop or when a finite replay runs out.
func (a *App) IsRunning() bool {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.status.Running
}

// Settings returns the settings most recently applied.
func (a *App) Settings() Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// ApplySettings validates and persists s, then hands it to the pipeline.
// The new settings take effect between two frames.
func (a *App) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if st := a.config.Store; st != nil {
		if err := st.Settings().SaveTrackingConfig(s.Tracking); err != nil {
			return fmt.Errorf("save tracking config: %w", err)
		}
		if err := st.Settings().SaveControlSettings(s.Control); err != nil {
			return fmt.Errorf("save control settings: %w", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s

	// Keep only the newest pending settings.
	select {
	case a.settingsCh <- s:
	default:
		select {
		case <-a.settingsCh:
		default:
		}
		a.settingsCh <- s
	}
	return nil
}

// Status returns the most recent status snapshot.
func (a *App) Status() Status {
	a.stateMu.RLock()
	s := a.status
	a.stateMu.RUnlock()

	s.Enabled = a.IsEnabled()
	s.Dispatcher = a.dispatcher.Stats()
	return s
}

// LatestFrame returns the last frame read from the sensor and the tracking id
// of the subject selected in it.
func (a *App) LatestFrame() (skeleton.Frame, uint64, bool) {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.latest, a.status.ActiveTrackingID, a.haveFrame
}

// Dispatcher returns the action dispatcher.
func (a *App) Dispatcher() *control.Dispatcher {
	return a.dispatcher
}

// Start opens the sensor and begins the tracking pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}
	if a.sensor == nil {
		return errors.New("no sensor configured")
	}

	if err := a.sensor.Open(); err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	a.sensor.SetFPS(a.config.IdleFPS)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.dispatcher.Start(ctx)

	if a.config.Store != nil {
		a.sessions = NewSessionTracker(a.config.Store.Sessions(), DefaultSessionBuffer)
		a.sessions.Start()
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Tracking pipeline started")
	return nil
}

// Stop halts the pipeline, closes the open tracking session and releases the
// sensor. It is safe to call more than once.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh, cancel := a.stopCh, a.doneCh, a.cancel
	a.stopCh, a.doneCh, a.cancel = nil, nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}

	// Signal the pipeline to stop and wait for the current frame to finish
	close(stopCh)
	<-doneCh

	if a.controller.Snapshot().Tracking {
		a.controller.OnTrackingLost()
	}
	a.selector.Reset()

	if a.sessions != nil {
		a.sessions.Stop(store.EndReasonStopped)
		a.sessions = nil
	}

	a.dispatcher.Stop()
	cancel()

	if err := a.sensor.Close(); err != nil {
		log.Printf("Error closing sensor: %v", err)
	}
	if r := a.config.Recorder; r != nil {
		if err := r.Flush(); err != nil {
			log.Printf("Error flushing recording: %v", err)
		}
	}

	log.Println("Tracking pipeline stopped")
}

func (a *App) onSubject(body *skeleton.Body) {
	a.controller.OnTrackedSubject(body)
	if a.sessions != nil {
		a.sessions.OnTrackedSubject(body)
	}
}

func (a *App) onLost() {
	a.controller.OnTrackingLost()
	if a.sessions != nil {
		a.sessions.OnTrackingLost()
	}
}
