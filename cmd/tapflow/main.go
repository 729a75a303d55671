package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ayusman/tapflow/internal/app"
	"github.com/ayusman/tapflow/internal/config"
	"github.com/ayusman/tapflow/internal/server"
	"github.com/ayusman/tapflow/internal/session"
	"github.com/ayusman/tapflow/internal/store"
	"github.com/ayusman/tapflow/internal/tray"
)

func main() {
	fmt.Println("Tapflow - Tap Gesture Detection")

	dataDir, err := config.DataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "tapflow.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	pluginDir := cfg.PluginDir
	if pluginDir == "" {
		pluginDir = filepath.Join(dataDir, "plugins")
	}

	var srv *server.Server
	trayApp := tray.New()

	a := app.New(app.Config{
		Store:        st,
		PluginDir:    pluginDir,
		CameraID:     cfg.CameraID,
		MotionThresh: cfg.MotionThreshold,
		Threshold:    cfg.FireThreshold,
		Cooldown:     cfg.Cooldown(),
		OnStatus: func(status string) {
			srv.Events().BroadcastStatus(status)
		},
		OnAction: func(ev session.ActionEvent) {
			srv.Events().BroadcastAction(ev)
			trayApp.SetLastTap(ev.Confidence)
		},
	})

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	} else {
		log.Printf("Discovered %d plugins", len(a.PluginManager().List()))
	}

	engine := a.Engine()
	engine.ObserveMode(func(m session.Mode) {
		srv.Events().BroadcastMode(m)
		trayApp.SetMode(m)
	})

	webDir := findWebDir(dataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv = server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Camera:    a.Camera(),
		Pipeline:  engine,
	})

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start detection pipeline: %v", err)
	}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	trayApp.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	trayApp.OnModeChange(func(m session.Mode) {
		engine.SetMode(m)
	})
	trayApp.OnSettings(func() {
		openBrowser("http://localhost" + cfg.ListenAddr)
	})
	trayApp.OnQuit(func() {
		a.Stop()
	})

	// Blocks until quit is chosen from the menu.
	trayApp.Run()
}

// findWebDir searches for the web directory in common locations.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
