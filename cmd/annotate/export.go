package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-annotate/internal/export"
)

func newExportCommand() *cobra.Command {
	var (
		outDir    string
		title     string
		frameRate float64
		labels    []string
	)
	cmd := &cobra.Command{
		Use:   "export <video>",
		Short: "Export segments as a CMX3600 edit decision list",
		Long: `Export the segments of a video as a CMX3600 EDL. Without --out the EDL
is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			video, err := resolveVideo(ctx, a.svc, args[0])
			if err != nil {
				return err
			}
			segs, err := a.svc.GetSegments(ctx, video.ID)
			if err != nil {
				return err
			}
			clips := export.ClipsFromSegments(video, segs, labels, a.palette.DisplayName)
			if len(clips) == 0 {
				return fmt.Errorf("nothing to export for %s", video.Filename)
			}

			if title == "" {
				title = strings.TrimSuffix(video.Filename, filepath.Ext(video.Filename))
			}
			if frameRate <= 0 {
				frameRate = video.FrameRate
			}
			content := export.GenerateEDL(clips, title, frameRate)

			if outDir == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			if err := export.ValidateOutputDir(outDir); err != nil {
				return err
			}
			path, err := export.WriteEDL(outDir, title, content)
			if err != nil {
				return err
			}
			a.logger.Info("edl exported", "video_id", video.ID, "path", path, "clips", len(clips))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d clips to %s\n", len(clips), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write the .edl file into")
	cmd.Flags().StringVar(&title, "title", "", "EDL title (default: video filename)")
	cmd.Flags().Float64Var(&frameRate, "fps", 0, "timecode frame rate (default: video frame rate or 25)")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "only export these labels")
	return cmd
}
