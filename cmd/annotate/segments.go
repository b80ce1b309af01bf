package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

func newSegmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "segments",
		Aliases: []string{"segment", "seg"},
		Short:   "List, add, import and delete segments",
	}
	cmd.AddCommand(
		newSegmentsListCommand(),
		newSegmentsAddCommand(),
		newSegmentsImportCommand(),
		newSegmentsDeleteCommand(),
	)
	return cmd
}

func newSegmentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list <video>",
		Aliases: []string{"ls"},
		Short:   "List the segments of a video",
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
			segs, err := a.svc.GetSegments(cmd.Context(), video.ID)
			if err != nil {
				return err
			}
			if segs == nil {
				segs = []*annotation.SegmentRecord{}
			}
			return writeOutput(cmd.OutOrStdout(), outputFlag, segs, func(tw *tabwriter.Writer) {
				row(tw, "ID", "LABEL", "START", "END", "CONFIDENCE")
				for _, s := range segs {
					conf := "-"
					if s.AvgConfidence != nil {
						conf = strconv.FormatFloat(*s.AvgConfidence, 'f', 2, 64)
					}
					row(tw, strconv.FormatInt(s.ID, 10), a.palette.DisplayName(s.Label),
						timeline.FormatTime(s.Start), timeline.FormatTime(s.End), conf)
				}
			})
		},
	}
}

func newSegmentsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <video> <label> <start> <end>",
		Short: "Add a segment; times are in seconds",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid start %q: %w", args[2], err)
			}
			end, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid end %q: %w", args[3], err)
			}

			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			video, err := resolveVideo(cmd.Context(), a.svc, args[0])
			if err != nil {
				return err
			}
			seg, err := a.svc.CreateSegment(cmd.Context(), annotation.SegmentInput{
				VideoID: video.ID, Label: args[1], Start: start, End: end,
			})
			if err != nil {
				return err
			}
			if !a.palette.Known(seg.Label) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: label %q is not in the palette\n", seg.Label)
			}
			return writeOutput(cmd.OutOrStdout(), outputFlag, seg, func(tw *tabwriter.Writer) {
				row(tw, "ID", "LABEL", "START", "END")
				row(tw, strconv.FormatInt(seg.ID, 10), seg.Label, timeline.FormatTime(seg.Start), timeline.FormatTime(seg.End))
			})
		},
	}
}

// segmentFile is the import format: either a bare list of segments or an
// object with a segments key. JSON files parse as YAML.
type segmentFile struct {
	Segments []annotation.SegmentInput `yaml:"segments"`
}

func readSegmentFile(path string) ([]annotation.SegmentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []annotation.SegmentInput
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var file segmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return file.Segments, nil
}

func newSegmentsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <video> <file>",
		Short: "Import segments from a JSON or YAML file",
		Long: `Import segments from a JSON or YAML file. Each entry needs label,
start_time and end_time in seconds; avg_confidence is optional.
Invalid entries are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readSegmentFile(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			video, err := resolveVideo(cmd.Context(), a.svc, args[0])
			if err != nil {
				return err
			}
			created, err := a.svc.ImportSegments(cmd.Context(), video.ID, inputs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d segments into %s\n", created, len(inputs), video.Filename)
			return nil
		},
	}
}

func newSegmentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <segment-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a segment",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid segment id %q: %w", args[0], err)
			}
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.DeleteSegment(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted segment %d\n", id)
			return nil
		},
	}
}
