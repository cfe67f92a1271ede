package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/renovo/internal/api"
	"github.com/kalambet/renovo/internal/config"
	"github.com/kalambet/renovo/internal/gateway"
	"github.com/kalambet/renovo/internal/gemini"
	"github.com/kalambet/renovo/internal/media"
	"github.com/kalambet/renovo/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the renovo server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running renovo server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show renovo system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "renovo", "renovo.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "renovo version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	token, err := loadOrCreateToken(cfg)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	if cfg.Gemini.APIKey == "" {
		printWarning("no Gemini API key configured; AI calls will fail until RENOVO_GEMINI_API_KEY is set")
	}

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath()
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("renovo is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("renovo is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build provider, gateway, and the session.
	var provider *gemini.Client
	if cfg.Gemini.BaseURL != "" {
		provider = gemini.NewWithBaseURL(cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
	} else {
		provider = gemini.New(cfg.Gemini.APIKey)
	}

	pollInterval, err := time.ParseDuration(cfg.Video.PollInterval)
	if err != nil {
		return fmt.Errorf("parsing video poll interval: %w", err)
	}
	pollCeiling, err := time.ParseDuration(cfg.Video.PollCeiling)
	if err != nil {
		return fmt.Errorf("parsing video poll ceiling: %w", err)
	}
	if err := os.MkdirAll(cfg.Video.Dir, 0o755); err != nil {
		return fmt.Errorf("creating video dir: %w", err)
	}

	gw := gateway.New(provider,
		gateway.WithPollInterval(pollInterval),
		gateway.WithPollCeiling(pollCeiling),
		gateway.WithVideoDir(cfg.Video.Dir),
	)

	sess := session.New(ctx, session.Deps{
		Analyzer:      gw,
		Visualizer:    gw,
		Feed:          gw,
		Documents:     gw,
		Planner:       gw,
		Shopper:       gw,
		Frames:        media.NewFrameExtractor(),
		APIKeyPresent: cfg.Gemini.APIKey != "",
	})

	appHandler := api.NewAppHandler(api.AppDeps{
		Session: sess,
		Token:   token,
	})

	topRouter := chi.NewRouter()
	topRouter.Mount("/", api.NewHealthHandler())
	topRouter.Mount("/v1", appHandler)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: topRouter,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{Session: sess})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "renovo listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout; let in-flight pipelines settle.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		sess.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("pipelines still running at shutdown deadline")
	}
	return nil
}

func stopServer() error {
	pidPath := pidFilePath()
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("renovo is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop renovo (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to renovo (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.Gemini.APIKey != "" {
		printStatus("Gemini key", "configured")
	} else {
		printStatus("Gemini key", "missing")
	}
	printStatus("Video dir", "%s", cfg.Video.Dir)
	printStatus("Video polling", "every %s, up to %s", cfg.Video.PollInterval, cfg.Video.PollCeiling)

	// Show session counts if the server is up.
	if resp != nil && resp.StatusCode == 200 {
		if c, cerr := newAPIClient(); cerr == nil {
			stateResp, serr := c.get(context.Background(), "/v1/state")
			if serr == nil {
				var snap struct {
					Analyses []any `json:"analyses"`
					Projects []any `json:"projects"`
					Feed     []any `json:"feed"`
				}
				if decodeJSON(stateResp, &snap) == nil {
					printStatus("Analyses", "%d", len(snap.Analyses))
					printStatus("Projects", "%d", len(snap.Projects))
					printStatus("Feed items", "%d", len(snap.Feed))
				}
			}
		}
	}

	return nil
}
