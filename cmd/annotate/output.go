package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeOutput encodes data as JSON or YAML. For text output it calls table
// with a tab-aligned writer.
func writeOutput(w io.Writer, format string, data any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case formatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case formatText, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func row(tw *tabwriter.Writer, values ...string) {
	fmt.Fprintln(tw, strings.Join(values, "\t"))
}

// resolveVideo accepts a video id or a unique filename.
func resolveVideo(ctx context.Context, svc annotation.AnnotationService, ref string) (*annotation.Video, error) {
	v, err := svc.GetVideo(ctx, ref)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, annotation.ErrNotFound) {
		return nil, err
	}
	videos, err := svc.GetVideos(ctx)
	if err != nil {
		return nil, err
	}
	var match *annotation.Video
	for _, v := range videos {
		if v.Filename != ref {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%q matches more than one video, use its id", ref)
		}
		match = v
	}
	if match == nil {
		return nil, fmt.Errorf("video %q: %w", ref, annotation.ErrNotFound)
	}
	return match, nil
}
