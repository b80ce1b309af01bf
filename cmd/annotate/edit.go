package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/logging"
	"github.com/heimdex/heimdex-annotate/internal/tui"
	"github.com/heimdex/heimdex-annotate/internal/watcher"
)

func newEditCommand() *cobra.Command {
	var defaultLabel string
	cmd := &cobra.Command{
		Use:   "edit <video>",
		Short: "Open the terminal timeline editor",
		Long: `Open the terminal timeline editor for a video, given by id or filename.

Drag segments with the mouse to move them, drag their edges to resize,
right-click for the segment menu. Press s and drag over the track to
create a segment. Changes are saved as soon as a gesture ends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], defaultLabel)
		},
	}
	cmd.Flags().StringVar(&defaultLabel, "label", "", "label new selections with this label instead of prompting")
	return cmd
}

func runEdit(cmd *cobra.Command, ref, defaultLabel string) error {
	a, err := openApp(cmd, logToFile)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := logging.WithComponent(a.logger, "editor")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	video, err := resolveVideo(ctx, a.svc, ref)
	if err != nil {
		return err
	}
	logger = logging.WithVideoID(logger, video.ID)
	if defaultLabel != "" && !a.palette.Known(defaultLabel) {
		logger.Warn("default label is not in the palette", "label", defaultLabel)
	}

	runner := annotation.NewRunner(a.svc, a.repo, logging.WithComponent(a.logger, "commits"))
	model, err := tui.New(ctx, tui.Options{
		VideoID:        video.ID,
		Store:          a.svc,
		Committer:      runner,
		Palette:        a.palette,
		Logger:         logger,
		MarkerInterval: a.cfg.MarkerBaseInterval(),
		DefaultLabel:   defaultLabel,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	fw := watcher.NewFileWatcher(logging.WithComponent(a.logger, "watcher"))
	defer fw.Stop()
	if err := a.palette.Watch(ctx, fw, func() {
		if err := a.syncLabels(ctx); err != nil {
			logger.Warn("failed to sync reloaded labels", "error", err)
		}
		p.Send(tui.PaletteChangedMsg{})
	}); err != nil {
		logger.Warn("label palette not watched", "error", err)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	if n := runner.Drain(context.Background()); n > 0 {
		logger.Info("applied remaining commits", "count", n)
	}
	return nil
}
