package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/kathakali/internal/app"
	"github.com/ayusman/kathakali/internal/capture"
	"github.com/ayusman/kathakali/internal/config"
	"github.com/ayusman/kathakali/internal/server"
	"github.com/ayusman/kathakali/internal/session"
	"github.com/ayusman/kathakali/internal/store"
	"github.com/ayusman/kathakali/internal/tray"
	"gocv.io/x/gocv"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	fmt.Println("Kathakali - Avatar Animation")

	if err := os.MkdirAll(flags.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(flags.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	tuning, err := config.LoadTuning(flags.TuningPath)
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	appCfg := app.Config{
		Store:    st,
		Tuning:   tuning,
		CameraID: flags.CameraID,
		HookDir:  flags.HookDir,
	}
	if flags.MockCamera {
		blank := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		defer blank.Close()
		appCfg.Camera = capture.NewMockCamera([]*gocv.Mat{&blank}, true)
	}

	application, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	webDir := flags.FindWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:      webDir,
		Store:          st,
		Session:        application.Session(),
		Aliases:        application.Aliases(),
		Frames:         application.Frames(),
		Landmarks:      application.Landmarks(),
		Rig:            application.RigStream(),
		ApplySignTable: application.ApplySignTable,
		ReloadClips:    application.LoadClips,
	})
	httpSrv := srv.Handler(flags.Addr)

	go func() {
		fmt.Printf("Starting server on %s\n", flags.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
		application.Stop()
	}

	if flags.Tray {
		runTray(application, st, uiURL(flags.Addr), shutdown)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("Shutting down")
	shutdown()
}

// runTray blocks on the tray menu until Quit.
func runTray(application *app.App, st *store.Store, url string, shutdown func()) {
	t := tray.New()
	sess := application.Session()
	t.SetEnabled(sess.Status().Enabled)
	t.SetState(sess.Status().State)

	application.OnEvent(func(e session.Event) {
		st := sess.Status()
		t.SetEnabled(st.Enabled)
		if e.Name == session.EventTrackingFallback {
			t.SetState("fallback")
		} else {
			t.SetState(st.State)
		}
	})

	t.OnToggle(func(enabled bool) {
		if enabled {
			if err := sess.Enable(); err != nil {
				log.Printf("Enable tracking: %v", err)
			}
		} else {
			sess.Disable()
		}
		on := sess.Status().Enabled
		t.SetEnabled(on)
		if err := st.Settings().Set(store.SettingTrackingEnabled, fmt.Sprint(on)); err != nil {
			log.Printf("Save tracking setting: %v", err)
		}
	})
	t.OnNextClip(func() {
		if err := sess.NextClip(); err != nil {
			log.Printf("Next clip: %v", err)
		}
	})
	t.OnStopClip(func() { sess.StopClip(false) })
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Open browser: %v", err)
		}
	})
	t.OnQuit(shutdown)

	t.Run()
}

func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
