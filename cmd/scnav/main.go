package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/browser"

	"github.com/mkrigman/scnav/internal/config"
	"github.com/mkrigman/scnav/internal/debug"
	"github.com/mkrigman/scnav/internal/hw/spacectl"
	"github.com/mkrigman/scnav/internal/logic/session"
	"github.com/mkrigman/scnav/internal/viewport"
	"github.com/mkrigman/scnav/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start control panel on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	mock := flag.Bool("mock", false, "use the mock driver with a scripted motion sweep (no hardware)")
	openPanel := flag.Bool("open", false, "open the control panel in the default browser (needs -web)")
	moveSensitivity := flag.Float64("move_sensitivity", 0, "override move sensitivity")
	rotateSensitivity := flag.Float64("rotate_sensitivity", 0, "override rotate sensitivity")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	if err := validateCLIOverrides(*moveSensitivity, *rotateSensitivity); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	if *moveSensitivity > 0 {
		cfg.Motion.MoveSensitivity = *moveSensitivity
	}
	if *rotateSensitivity > 0 {
		cfg.Motion.RotateSensitivity = *rotateSensitivity
	}
	cfg.Motion = cfg.Motion.Clamped()
	if *mock {
		cfg.Device.Mock = true
	}

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Mock driver", cfg.Device.Mock)
	debug.Value("App name", cfg.Device.AppName)
	debug.PrintStruct("Motion settings", cfg.Motion)

	// Live settings store + hot reload of the config file
	settings := config.NewStore(cfg.Motion)
	if err := config.Watch(ctx, *cfgPath, settings); err != nil {
		debug.Error(fmt.Errorf("config watch disabled: %w", err))
	}

	// In-process host with one 3D view
	host := viewport.NewMemoryHost()

	// Device channel opener
	opener := session.DriverOpener(cfg.Device)
	if cfg.Device.Mock {
		opener = mockOpener(cfg.Device.AppName)
	}

	sess := session.New(cfg, settings, host, opener)

	if port := webPort.port(); port > 0 {
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		srv := web.NewServer(fmt.Sprintf(":%d", port), broadcaster, sess, settings)
		if *openPanel {
			url := fmt.Sprintf("http://localhost:%d/", port)
			go func() {
				if err := browser.OpenURL(url); err != nil {
					debug.Error(fmt.Errorf("open browser: %w", err))
				}
			}()
		}

		go sess.Run(ctx)
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("control panel: %v", err)
		}
		sess.Stop()
	} else {
		sess.Run(ctx)
	}

	if cfg.Device.Mock {
		state, redraws := host.Snapshot()
		debug.Summary("Final view state")
		debug.Value("Pivot", fmt.Sprintf("(%.4f, %.4f, %.4f)", state.Location.X, state.Location.Y, state.Location.Z))
		debug.Value("Rotation", fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f)",
			state.Rotation.Real, state.Rotation.Imag, state.Rotation.Jmag, state.Rotation.Kmag))
		debug.Value("Redraws", redraws)
	}
}

// mockOpener opens a channel over a mock driver that replays a small
// motion sweep forever: a dolly forward, a pan right, then a gentle yaw.
func mockOpener(appName string) session.Opener {
	return func() (session.Channel, error) {
		drv := spacectl.NewMockDriver()
		drv.Loop = true
		drv.Data = []spacectl.RawData{
			{Z: 50},
			{Z: 50},
			{X: 80},
			{X: 80},
			{B: 40},
			{B: 40},
			{},
		}
		ch, err := spacectl.Open(drv, appName)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

// validateCLIOverrides checks that non-zero CLI overrides are within the
// declared sensitivity bounds. Zero values are ignored.
func validateCLIOverrides(move, rotate float64) error {
	if move != 0 {
		if math.IsNaN(move) || math.IsInf(move, 0) || move < config.MinSensitivity || move > config.MaxSensitivity {
			return fmt.Errorf("move_sensitivity must be between %g and %g, got %g",
				config.MinSensitivity, config.MaxSensitivity, move)
		}
	}
	if rotate != 0 {
		if math.IsNaN(rotate) || math.IsInf(rotate, 0) || rotate < config.MinSensitivity || rotate > config.MaxSensitivity {
			return fmt.Errorf("rotate_sensitivity must be between %g and %g, got %g",
				config.MinSensitivity, config.MaxSensitivity, rotate)
		}
	}
	return nil
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
