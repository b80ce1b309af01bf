package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-annotate/internal/config"
)

// Version is set during build with -ldflags.
var Version = "0.1.0"

var (
	configFile string
	outputFlag string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "annotate",
		Short: "Label segments of medical videos on a timeline",
		Long: `annotate keeps labeled time segments of videos in a local database.

It serves a timeline API for browser editors, opens a terminal timeline
editor, and exports segments as edit decision lists.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default: search XDG config dir and cwd)")
	pf.StringVarP(&outputFlag, "output", "o", formatText, "output format: text, json or yaml")
	pf.Int("port", config.DefaultPort, "HTTP API port")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", config.DefaultLogFormat, "log format: json or text")
	pf.String("log-file", "", "write logs to this file")
	pf.String("data-dir", "", "directory holding the database")
	pf.String("labels-file", "", "YAML label palette")
	pf.String("ffprobe-path", config.DefaultFFprobePath, "ffprobe binary")
	pf.Float64("marker-base-interval", config.DefaultMarkerBaseInterval, "seconds between ruler markers at zoom 1")

	root.AddCommand(
		newServeCommand(),
		newEditCommand(),
		newVideosCommand(),
		newSegmentsCommand(),
		newExportCommand(),
		newLabelsCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "annotate version %s\n", Version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
