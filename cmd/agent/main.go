package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/RMHEDGE/screens-native/internal/config"
	"github.com/RMHEDGE/screens-native/internal/control"
	"github.com/RMHEDGE/screens-native/internal/display"
	"github.com/RMHEDGE/screens-native/internal/notify"
	"github.com/RMHEDGE/screens-native/internal/resolver"
	"github.com/RMHEDGE/screens-native/internal/session"
	"github.com/RMHEDGE/screens-native/internal/store"
	"github.com/RMHEDGE/screens-native/internal/telemetry"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "screens-agent.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Local state store
	kv, err := store.NewFileKV(cfg.GetDataDir())
	if err != nil {
		fmt.Printf("Failed to initialize local store: %v\n", err)
		os.Exit(1)
	}
	cfgStore := store.NewConfigStore(kv)

	// Remote config resolver
	res := resolver.New(cfg.Remote.ConfigBaseURL,
		time.Duration(cfg.Remote.FetchTimeoutSeconds)*time.Second)

	// Telemetry client
	tele, err := telemetry.NewClient(telemetry.Options{
		BaseURL: cfg.Telemetry.BaseURL,
		Timeout: time.Duration(cfg.Telemetry.RequestTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		fmt.Printf("Failed to initialize telemetry client: %v\n", err)
		os.Exit(1)
	}

	notifier := notify.NewConsole(50)
	renderer := display.New(display.HeadlessFactory)

	// Zero-touch provisioning: a provision file beats the config preset.
	defaultID := cfg.Remote.DefaultDeviceID
	if prov, err := config.LoadProvision(cfg.Remote.ProvisionFile); err != nil {
		fmt.Printf("Warning: ignoring provision file: %v\n", err)
	} else if prov != nil {
		defaultID = prov.DeviceID
	}

	controller := session.New(session.Options{
		Store:           cfgStore,
		Resolver:        res,
		Telemetry:       tele,
		Renderer:        renderer,
		Notifier:        notifier,
		LoggerID:        cfg.Telemetry.LoggerID,
		DefaultDeviceID: defaultID,
		Restart: func() {
			// The host supervisor restarts the process.
			fmt.Println("[Agent] Restart requested, exiting")
			os.Exit(0)
		},
	})

	go controller.Run(context.Background())

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/health") ||
				strings.HasSuffix(path, "/status")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	control.RegisterRoutes(e, control.NewHandler(controller, notifier, Version))

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Screens Display Agent                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Control:   http://%-38s║\n", cfg.GetControlAddr())
	fmt.Printf("║  Collector: %-46s║\n", cfg.Telemetry.BaseURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.Start(cfg.GetControlAddr()))
}
