package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/api"
	"github.com/heimdex/heimdex-annotate/internal/logging"
	"github.com/heimdex/heimdex-annotate/internal/playback"
	"github.com/heimdex/heimdex-annotate/internal/probe"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
	"github.com/heimdex/heimdex-annotate/internal/ui"
	"github.com/heimdex/heimdex-annotate/internal/watcher"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timeline API, the commit runner and the tray",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Bool("headless", false, "run without the system tray")
	cmd.Flags().Bool("auth", false, "require the bearer token on API requests")
	cmd.Flags().Duration("commit-poll-interval", 0, "how often queued segment commits are applied")
	return cmd
}

// logNotifier forwards commit runner notices to the log when no editor is
// attached.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(level timeline.NoticeLevel, text string) {
	if level == timeline.NoticeError {
		n.logger.Error("commit notice", "text", text)
		return
	}
	n.logger.Info("commit notice", "level", string(level), "text", text)
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	a, err := openApp(cmd, logToStdout)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger
	logger.Info("starting heimdex annotate", "version", Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	authToken, err := ensureAuthToken(cmd.Context(), a.repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                 HEIMDEX ANNOTATE v%-24s║\n", Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-28d║\n", cfg.Port())
	if cfg.AuthEnabled() {
		fmt.Printf("║  Auth Token: %-45s║\n", authToken)
	} else {
		fmt.Printf("║  Auth:       %-45s║\n", "disabled")
	}
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	runner := annotation.NewRunner(a.svc, a.repo, logging.WithComponent(logger, "commits"))
	if d := cfg.CommitPollInterval(); d > 0 {
		runner.SetPollInterval(d)
	}
	runner.SetNotifier(logNotifier{logger: logger})
	go runner.Start(ctx)

	fw := watcher.NewFileWatcher(logging.WithComponent(logger, "watcher"))
	defer fw.Stop()
	if err := a.palette.Watch(ctx, fw, func() {
		if err := a.syncLabels(ctx); err != nil {
			logger.Warn("failed to sync reloaded labels", "error", err)
		}
		logger.Info("label palette reloaded", "labels", len(a.palette.Names()))
	}); err != nil {
		logger.Warn("label palette not watched", "error", err)
	}

	prober := probe.NewFFprobe(cfg.FFprobePath(), logging.WithComponent(logger, "probe"))
	if !prober.Available() {
		logger.Warn("ffprobe not found, video durations must be given explicitly", "binary", cfg.FFprobePath())
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Version:        Version,
		Service:        a.svc,
		Repository:     a.repo,
		Runner:         runner,
		Media:          playback.NewServer(logger),
		Clocks:         playback.NewRegistry(),
		Palette:        a.palette,
		Prober:         prober,
		AuthEnabled:    cfg.AuthEnabled(),
		MarkerInterval: cfg.MarkerBaseInterval(),
		Logger:         logger,
		StartTime:      startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
		<-ctx.Done()
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Service: a.svc,
			Queue:   runner,
			Logger:  logging.WithComponent(logger, "tray"),
			Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Port()),
			OnQuit:  cancel,
		})
		tray.Run(ctx)
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	if n := runner.Drain(shutdownCtx); n > 0 {
		logger.Info("applied remaining commits", "count", n)
	}

	logger.Info("shutdown complete")
	return nil
}
