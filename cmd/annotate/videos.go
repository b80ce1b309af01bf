package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/logging"
	"github.com/heimdex/heimdex-annotate/internal/probe"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

func newVideosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "videos",
		Aliases: []string{"video"},
		Short:   "Manage registered videos",
	}
	cmd.AddCommand(newVideosAddCommand(), newVideosListCommand(), newVideosRemoveCommand())
	return cmd
}

func newVideosAddCommand() *cobra.Command {
	var duration, frameRate float64
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a video file",
		Long: `Register a video file. Its duration and frame rate are read with
ffprobe unless --duration is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			if duration <= 0 {
				prober := probe.NewFFprobe(a.cfg.FFprobePath(), logging.WithComponent(a.logger, "probe"))
				res, err := prober.Probe(ctx, args[0])
				if err != nil {
					return fmt.Errorf("could not read the video duration, pass --duration: %w", err)
				}
				duration = res.Duration
				if frameRate <= 0 {
					frameRate = res.FrameRate
				}
			}

			video, err := a.svc.AddVideo(ctx, args[0], duration, frameRate)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFlag, video, func(tw *tabwriter.Writer) {
				row(tw, "ID", "FILE", "DURATION", "FPS", "ADDED")
				videoRow(tw, video)
			})
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 0, "duration in seconds; skips ffprobe")
	cmd.Flags().Float64Var(&frameRate, "frame-rate", 0, "frame rate used for exports")
	return cmd
}

func newVideosListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered videos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			videos, err := a.svc.GetVideos(cmd.Context())
			if err != nil {
				return err
			}
			if videos == nil {
				videos = []*annotation.Video{}
			}
			return writeOutput(cmd.OutOrStdout(), outputFlag, videos, func(tw *tabwriter.Writer) {
				row(tw, "ID", "FILE", "DURATION", "FPS", "ADDED")
				for _, v := range videos {
					videoRow(tw, v)
				}
			})
		},
	}
}

func newVideosRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <video>",
		Aliases: []string{"rm"},
		Short:   "Forget a video and its segments",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			video, err := resolveVideo(cmd.Context(), a.svc, args[0])
			if err != nil {
				return err
			}
			if err := a.svc.RemoveVideo(cmd.Context(), video.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%s)\n", video.Filename, video.ID)
			return nil
		},
	}
}

func videoRow(tw *tabwriter.Writer, v *annotation.Video) {
	fps := "-"
	if v.FrameRate > 0 {
		fps = strconv.FormatFloat(v.FrameRate, 'f', -1, 64)
	}
	row(tw, v.ID, v.Filename, timeline.FormatTime(v.Duration), fps, formatAge(v.CreatedAt))
}

// formatAge renders a creation time for tables.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
