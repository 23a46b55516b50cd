package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kartoza/restaurant-bot/internal/catalog"
	"github.com/kartoza/restaurant-bot/internal/config"
	"github.com/kartoza/restaurant-bot/internal/feedback"
	"github.com/kartoza/restaurant-bot/internal/logging"
	"github.com/kartoza/restaurant-bot/internal/menus"
	"github.com/kartoza/restaurant-bot/internal/model"
	"github.com/kartoza/restaurant-bot/internal/server"
	"github.com/kartoza/restaurant-bot/internal/shell"
)

var version = "dev"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Optional YAML configuration file")
	mode := flag.String("mode", "shell", "Run mode: shell (interactive console) or serve (HTTP API)")
	port := flag.Int("port", 0, "HTTP server port (serve mode)")
	dataDir := flag.String("data-dir", "", "Directory for feedback history and saved menus")
	menuPath := flag.String("menu", "", "Catalog JSON file")
	weightsPath := flag.String("weights", "", "Model weights JSON file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Restaurant Bot v%s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Explicit flags take priority over file and environment
	if *port != 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *menuPath != "" {
		cfg.MenuPath = *menuPath
	}
	if *weightsPath != "" {
		cfg.WeightsPath = *weightsPath
	}
	cfg.Version = version

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	cat, err := catalog.LoadFile(cfg.MenuPath)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.MenuPath).Msg("could not load catalog, using placeholders")
		cat = catalog.Build(nil)
	}

	m := model.New(cfg.LearningRate)
	if err := m.Load(cfg.WeightsPath); err != nil {
		logging.Error().Err(err).Str("path", cfg.WeightsPath).Msg("could not load weights, using defaults")
	}

	switch *mode {
	case "shell":
		runShell(cfg, cat, m)
	case "serve":
		runServer(cfg, cat, m)
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode %q (want shell or serve)\n", *mode)
		os.Exit(2)
	}
}

// runShell runs one interactive session on stdin/stdout
func runShell(cfg config.Config, cat *catalog.Catalog, m *model.SatisfactionModel) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := &feedback.Loop{Model: m, WeightsPath: cfg.WeightsPath}

	history, err := feedback.OpenHistory(cfg.ResolvedHistoryPath())
	if err != nil {
		logging.Warn().Err(err).Msg("feedback history not available")
	} else {
		defer history.Close()
		loop.History = history
	}

	store, err := menus.NewStore(cfg.DataDir)
	if err != nil {
		logging.Warn().Err(err).Msg("menu store not available")
		store = nil
	}

	sh := shell.New(os.Stdin, os.Stdout, cat, loop, store)
	sh.Samples = cfg.Samples
	if err := sh.Run(ctx); err != nil {
		logging.Info().Err(err).Msg("session interrupted")
	}
}

// runServer serves the HTTP API until SIGINT/SIGTERM
func runServer(cfg config.Config, cat *catalog.Catalog, m *model.SatisfactionModel) {
	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to find available port")
	}
	if availablePort != cfg.Port {
		logging.Info().Msgf("Port %d in use, using port %d instead", cfg.Port, availablePort)
	}
	cfg.Port = availablePort

	logging.Info().Msgf("Restaurant Bot v%s starting on port %d", version, cfg.Port)
	logging.Info().Str("data_dir", cfg.DataDir).Int("catalog_entries", cat.Len()).Msg("data loaded")

	srv, err := server.New(cfg, cat, m)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create server")
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	waitForServer(fmt.Sprintf("http://localhost:%d", cfg.Port), 10*time.Second)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-stop:
		logging.Info().Msgf("Received %v signal, shutting down...", sig)
		if err := srv.Stop(); err != nil {
			logging.Error().Err(err).Msg("error during shutdown")
		}
	}
}

// waitForServer polls until the server is accepting connections
func waitForServer(url string, timeout time.Duration) {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			logging.Info().Msgf("Ready at %s/api", url)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	logging.Warn().Msgf("server may not be ready at %s", url)
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
