package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/config"
	"github.com/heimdex/heimdex-annotate/internal/db"
	"github.com/heimdex/heimdex-annotate/internal/labels"
	"github.com/heimdex/heimdex-annotate/internal/logging"
)

// app holds what every command opens: config, logger, database and the
// label palette.
type app struct {
	cfg     *config.ViperConfig
	logger  *slog.Logger
	db      *db.DB
	repo    *annotation.SQLiteRepository
	svc     *annotation.Service
	palette *labels.Palette
	closers []io.Closer
}

type logTarget int

const (
	logToStderr logTarget = iota
	logToStdout
	// logToFile keeps the terminal free for the editor.
	logToFile
)

func openApp(cmd *cobra.Command, target logTarget) (*app, error) {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	a := &app{cfg: cfg}
	logFile := cfg.LogFile()
	if target == logToFile && logFile == "" {
		logFile = filepath.Join(cfg.DataDir(), "annotate.log")
	}
	switch {
	case logFile != "":
		logger, closer, err := logging.OpenFile(logFile, cfg.LogLevel(), cfg.LogFormat())
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.closers = append(a.closers, closer)
	case target == logToStdout:
		a.logger = logging.NewLoggerTo(os.Stdout, cfg.LogLevel(), cfg.LogFormat())
	default:
		a.logger = logging.NewLoggerTo(os.Stderr, cfg.LogLevel(), cfg.LogFormat())
	}

	database, err := db.New(cfg.DBPath(), a.logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = database
	a.closers = append(a.closers, database)
	a.repo = annotation.NewRepository(database.Conn())
	a.svc = annotation.NewService(a.repo, a.logger)

	a.palette, err = labels.Load(cfg.LabelsFile(), logging.WithComponent(a.logger, "labels"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if err := a.syncLabels(cmd.Context()); err != nil {
		a.logger.Warn("failed to sync labels", "error", err)
	}
	return a, nil
}

// syncLabels mirrors the palette into the labels table.
func (a *app) syncLabels(ctx context.Context) error {
	entries := a.palette.Entries()
	out := make([]*annotation.Label, len(entries))
	for i, e := range entries {
		out[i] = &annotation.Label{Name: e.Name, DisplayName: e.DisplayName, Color: a.palette.Color(e.Name), Position: i}
	}
	return a.svc.SyncLabels(ctx, out)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func ensureAuthToken(ctx context.Context, repo annotation.Repository) (string, error) {
	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}
	return token, nil
}
