package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLabelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Show the label palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.palette.Entries()
			return writeOutput(cmd.OutOrStdout(), outputFlag, entries, func(tw *tabwriter.Writer) {
				row(tw, "NAME", "DISPLAY NAME", "COLOR")
				for _, e := range entries {
					row(tw, e.Name, a.palette.DisplayName(e.Name), a.palette.Color(e.Name))
				}
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current palette to the labels file for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, logToStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.palette.Path() == "" {
				return fmt.Errorf("no labels file configured, set --labels-file or labels_file")
			}
			if err := a.palette.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d labels to %s\n", len(a.palette.Entries()), a.palette.Path())
			return nil
		},
	})
	return cmd
}
