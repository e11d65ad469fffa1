package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	replay := flag.String("replay", "", "play a recorded session (JSON lines) instead of the sensor bridge")
	loop := flag.Bool("loop", false, "restart the replay when it ends")
	flag.Parse()

	fmt.Println("Mudra - Body Tracking Cursor Control")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	// Initialize the store
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if n, err := st.Sessions().CloseOpen(time.Now()); err != nil {
		log.Printf("Failed to close stale sessions: %v", err)
	} else if n > 0 {
		log.Printf("Closed %d stale tracking sessions", n)
	}

	tracking, err := st.Settings().LoadTrackingConfig(gesture.DefaultConfig())
	if err != nil {
		log.Printf("Invalid stored tracking config, using defaults: %v", err)
	}
	controlSettings, err := st.Settings().LoadControlSettings(control.DefaultSettings())
	if err != nil {
		log.Printf("Invalid stored control settings, using defaults: %v", err)
	}
	enabled, err := st.Settings().Enabled(true)
	if err != nil {
		log.Printf("Invalid stored enabled state: %v", err)
	}

	// Discover plugins
	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	log.Printf("Loaded %d plugins from %s", len(plugins.List()), plugins.PluginDir())

	src, err := openSensor(cfg, *replay, *loop)
	if err != nil {
		log.Fatalf("Failed to open sensor: %v", err)
	}

	recorder, closeRecording, err := openRecording(cfg.RecordDir)
	if err != nil {
		log.Fatalf("Failed to start recording: %v", err)
	}
	defer closeRecording()

	a := app.New(app.Config{
		Store:       st,
		Sensor:      src,
		Plugins:     plugins,
		Executor:    plugin.NewExecutor(cfg.PluginTimeout),
		Tracking:    tracking,
		Control:     controlSettings,
		Dispatcher:  control.DefaultDispatcherConfig(),
		CaptureFPS:  cfg.CaptureFPS,
		IdleFPS:     cfg.IdleFPS,
		IdleTimeout: cfg.IdleTimeout,
		Recorder:    recorder,
	})
	a.SetEnabled(enabled)

	hub := server.NewHub()
	a.SetPublisher(hub)

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Tracker:   a,
		Plugins:   plugins,
		Hub:       hub,
		Renderer:  render.New(render.DefaultOptions()),
	})
	httpServer := srv.Handler(cfg.Addr)

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start tracking: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tray {
		runTray(ctx, a, cfg.Addr)
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	hub.Close()
	a.Stop()
}

// runTray shows the tray menu until Quit is chosen or ctx is cancelled.
func runTray(ctx context.Context, a *app.App, addr string) {
	tr := tray.New(a.IsEnabled())
	tr.OnToggle(a.SetEnabled)
	tr.OnSettings(func() {
		if err := openBrowser(settingsURL(addr)); err != nil {
			log.Printf("Failed to open settings: %v", err)
		}
	})
	a.OnTrackingChange(tr.SetTracking)

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()
	tr.Run()
}

// openSensor returns a replay of the recorded session at replayPath, or the
// sensor bridge when replayPath is empty.
func openSensor(cfg config.Config, replayPath string, loop bool) (sensor.Sensor, error) {
	if replayPath != "" {
		s, err := sensor.OpenReplay(replayPath, loop)
		if err != nil {
			return nil, err
		}
		log.Printf("Replaying %d frames from %s", s.Remaining(), replayPath)
		return s, nil
	}
	return sensor.NewBridgeSensor(cfg.BridgePath, cfg.BridgeArgs...)
}

// openRecording creates a session file in dir. A blank dir disables recording.
func openRecording(dir string) (*sensor.Recorder, func(), error) {
	if dir == "" {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}

	name := "session-" + time.Now().Format("20060102-150405") + ".jsonl"
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Recording frames to %s", f.Name())

	r := sensor.NewRecorder(f)
	return r, func() {
		if err := r.Flush(); err != nil {
			log.Printf("Failed to flush recording: %v", err)
		}
		f.Close()
	}, nil
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and dataDir/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}

// settingsURL returns a browsable URL for the server listening on addr.
func settingsURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
