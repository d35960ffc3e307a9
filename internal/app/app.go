// Package app wires the Kathakali avatar animation service together:
// camera, detector, animation session, clip library, hooks and streams.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/kathakali/internal/capture"
	"github.com/ayusman/kathakali/internal/clip"
	"github.com/ayusman/kathakali/internal/config"
	"github.com/ayusman/kathakali/internal/detector"
	"github.com/ayusman/kathakali/internal/hook"
	"github.com/ayusman/kathakali/internal/rig"
	"github.com/ayusman/kathakali/internal/server"
	"github.com/ayusman/kathakali/internal/session"
	"github.com/ayusman/kathakali/internal/store"
	"github.com/ayusman/kathakali/internal/tracking"
	"github.com/google/uuid"
)

// Defaults.
const (
	DefaultRenderFPS = 60
	eventQueueSize   = 64
)

// Config holds configuration options for the application.
type Config struct {
	Store  *store.Store
	Tuning *config.Tuning

	// Camera overrides the webcam opened from CameraID.
	Camera   capture.Camera
	CameraID int

	// Detector overrides the holistic detector. When nil and the
	// holistic service is unavailable the mock detector is used.
	Detector detector.Detector

	HookDir      string
	MotionThresh float64
	Rate         capture.RateConfig
	RenderFPS    int

	// Clock drives the tracking timeouts. Nil means wall time.
	Clock tracking.Clock

	Logger *log.Logger
}

// App owns the animation session and the goroutines that feed it.
type App struct {
	config    Config
	tuning    *config.Tuning
	aliases   rig.AliasTable
	logger    *log.Logger
	sessionID string

	session  *session.Session
	camera   capture.Camera
	detector detector.Detector

	hooks      *hook.Manager
	dispatcher *hook.Dispatcher

	frames    *server.FrameBuffer
	landmarks *server.LandmarksHub
	rig       *server.RigStream

	eventsMu sync.Mutex
	events   chan session.Event
	onEvent  func(session.Event)

	mu         sync.RWMutex
	feedStop   chan struct{}
	renderStop chan struct{}
	wg         sync.WaitGroup
	started    bool
}

// New creates the application. Nothing runs until Start.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = &config.Tuning{}
	}
	if cfg.RenderFPS <= 0 {
		cfg.RenderFPS = DefaultRenderFPS
	}

	sc, err := tuning.SessionConfig()
	if err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	sc.Logger = logger
	if cfg.Clock != nil {
		sc.Tracking.Clock = cfg.Clock
	}

	a := &App{
		config:    cfg,
		tuning:    tuning,
		aliases:   sc.Aliases,
		logger:    logger,
		sessionID: uuid.New().String(),
		session:   session.New(sc, nil),
		camera:    cfg.Camera,
		detector:  cfg.Detector,
		hooks:     hook.NewManager(cfg.HookDir, logger),
		frames:    server.NewFrameBuffer(),
		landmarks: server.NewLandmarksHub(logger),
		rig:       server.NewRigStream(1, logger),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Config{DeviceID: cfg.CameraID})
	}
	if a.detector == nil {
		if hd, err := detector.NewHolisticDetector(detector.DefaultConfig(), logger); err == nil {
			a.detector = hd
			logger.Println("Using holistic landmark detection")
		} else {
			logger.Printf("Holistic detector not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	a.dispatcher = hook.NewDispatcher(a.hooks, hook.NewExecutor(hook.DefaultTimeout), hook.DefaultQueueSize, logger)

	a.session.SetFeed(&cameraFeed{app: a})
	a.session.SetRenderer(a.rig)
	a.session.OnEvent(a.queueEvent)
	return a, nil
}

// Session returns the animation session.
func (a *App) Session() *session.Session { return a.session }

// SessionID identifies this run in the event log.
func (a *App) SessionID() string { return a.sessionID }

// Aliases returns the joint alias table the session resolves with.
func (a *App) Aliases() rig.AliasTable { return a.aliases }

// Frames returns the MJPEG frame buffer.
func (a *App) Frames() *server.FrameBuffer { return a.frames }

// Landmarks returns the raw landmark stream.
func (a *App) Landmarks() *server.LandmarksHub { return a.landmarks }

// RigStream returns the per-frame pose stream.
func (a *App) RigStream() *server.RigStream { return a.rig }

// Hooks returns the hook manager.
func (a *App) Hooks() *hook.Manager { return a.hooks }

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera { return a.camera }

// OnEvent registers a callback for session events. It runs on the
// event goroutine, never under the session lock.
func (a *App) OnEvent(fn func(session.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEvent = fn
}

// SetDetector sets the landmark detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// DiscoverHooks scans the hook directory.
func (a *App) DiscoverHooks() error {
	if a.config.HookDir == "" {
		return nil
	}
	return a.hooks.Discover()
}

// LoadClips replaces the session's clip library with the stored clips,
// in upload order. Clips that fail to decode are skipped.
func (a *App) LoadClips() error {
	if a.config.Store == nil {
		return nil
	}

	stored, err := a.config.Store.Clips().List()
	if err != nil {
		return err
	}

	clips := make([]*clip.Clip, 0, len(stored))
	for _, c := range stored {
		decoded, err := clip.Decode(c.Data)
		if err != nil {
			a.logger.Printf("Skipping clip %s: %v", c.Name, err)
			continue
		}
		decoded.ID = c.ID
		clips = append(clips, decoded)
	}
	a.session.SetClips(clips)

	a.logger.Printf("Loaded %d clips from database", len(clips))
	return nil
}

// ApplySignTable switches the mapper to variant with the tuning file's
// overrides on top.
func (a *App) ApplySignTable(variant string) error {
	cfg, err := a.tuning.MapperConfig(variant)
	if err != nil {
		return err
	}
	a.session.UseMapper(cfg)
	a.logger.Printf("Using %s sign table", variant)
	return nil
}

// restoreSettings applies the persisted sign table and tracking switch.
func (a *App) restoreSettings() {
	if a.config.Store == nil {
		return
	}
	settings := a.config.Store.Settings()

	if v, err := settings.Get(store.SettingSignTable); err == nil {
		if err := a.ApplySignTable(v); err != nil {
			a.logger.Printf("Ignoring saved sign table: %v", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		a.logger.Printf("Failed to read settings: %v", err)
	}

	if v, _ := settings.GetOr(store.SettingTrackingEnabled, "false"); v == "true" {
		if err := a.session.Enable(); err != nil {
			a.logger.Printf("Could not resume tracking: %v", err)
		}
	}
}

// Start loads the library, restores saved settings and starts the
// render loop. Starting a running app is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.renderStop = make(chan struct{})
	a.mu.Unlock()

	if err := a.DiscoverHooks(); err != nil {
		a.logger.Printf("Hook discovery failed: %v", err)
	}
	if err := a.LoadClips(); err != nil {
		return fmt.Errorf("load clips: %w", err)
	}

	events := make(chan session.Event, eventQueueSize)
	a.eventsMu.Lock()
	a.events = events
	a.eventsMu.Unlock()

	a.wg.Add(2)
	go a.runEvents(events)
	go a.runRender(a.renderStop)

	a.restoreSettings()
	a.logger.Println("Animation session started")
	return nil
}

// Stop turns tracking off, stops the loops and releases the camera,
// detector and hook dispatcher.
func (a *App) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	close(a.renderStop)
	a.mu.Unlock()

	a.session.Disable()

	a.eventsMu.Lock()
	close(a.events)
	a.events = nil
	a.eventsMu.Unlock()

	a.wg.Wait()
	a.dispatcher.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Printf("Error closing detector: %v", err)
		}
	}
	a.logger.Println("Animation session stopped")
}

// queueEvent runs under the session lock and must not block. Events
// outside Start and Stop are dropped.
func (a *App) queueEvent(e session.Event) {
	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()
	if a.events == nil {
		return
	}
	select {
	case a.events <- e:
	default:
		a.logger.Printf("Event queue full, dropping %s", e.Name)
	}
}

// runEvents records events and forwards them to hooks.
func (a *App) runEvents(events <-chan session.Event) {
	defer a.wg.Done()
	for e := range events {
		state := e.State.String()
		if e.Name == session.EventTrackingFallback {
			state = "fallback"
		}

		if a.config.Store != nil {
			rec := &store.Event{SessionID: a.sessionID, Name: e.Name, State: state, Clip: e.Clip, CreatedAt: e.At}
			if err := a.config.Store.Events().Record(rec); err != nil {
				a.logger.Printf("Failed to record event %s: %v", e.Name, err)
			}
		}

		a.dispatcher.Notify(hook.Request{
			Event:     e.Name,
			State:     state,
			Clip:      e.Clip,
			SessionID: a.sessionID,
			At:        e.At,
		})

		a.mu.RLock()
		fn := a.onEvent
		a.mu.RUnlock()
		if fn != nil {
			fn(e)
		}
	}
}

// runRender ticks the session at RenderFPS with the measured frame time.
func (a *App) runRender(stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			a.session.Tick(now.Sub(last))
			last = now
		}
	}
}
