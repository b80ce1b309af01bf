// Package labels holds the label palette: display names, colours and the
// preferred row order of the timeline. The palette starts from built-in
// defaults and may be overridden by a YAML file, which is reloaded when it
// changes on disk.
package labels

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FallbackColor is used for labels with no palette entry.
const FallbackColor = "#95a5a6"

// Entry is one label of the palette.
type Entry struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
}

// File is the on-disk palette format.
type File struct {
	Labels []Entry `yaml:"labels"`
}

// Defaults are the built-in endoscopy labels in display order.
func Defaults() []Entry {
	return []Entry{
		{Name: "appendix", DisplayName: "Appendix", Color: "#f1c40f"},
		{Name: "blood", DisplayName: "Blut", Color: "#e74c3c"},
		{Name: "diverticule", DisplayName: "Divertikel", Color: "#34495e"},
		{Name: "grasper", DisplayName: "Greifer", Color: "#2ecc71"},
		{Name: "ileocaecalvalve", DisplayName: "Ileozäkalklappe", Color: "#95a5a6"},
		{Name: "ileum", DisplayName: "Ileum", Color: "#e67e22"},
		{Name: "low_quality", DisplayName: "Niedrige Bildqualität", Color: "#7f8c8d"},
		{Name: "nbi", DisplayName: "Narrow Band Imaging", Color: "#8e44ad"},
		{Name: "needle", DisplayName: "Nadel", Color: "#3498db"},
		{Name: "outside", DisplayName: "Außerhalb", Color: "#e74c3c"},
		{Name: "polyp", DisplayName: "Polyp", Color: "#f39c12"},
		{Name: "snare", DisplayName: "Snare", Color: "#9b59b6"},
		{Name: "water_jet", DisplayName: "Wasserstrahl", Color: "#1abc9c"},
		{Name: "wound", DisplayName: "Wunde", Color: "#c0392b"},
	}
}

// Palette is safe for concurrent use.
type Palette struct {
	mu      sync.RWMutex
	entries []Entry
	byName  map[string]Entry
	path    string
	logger  *slog.Logger
}

// New returns a palette with the built-in defaults.
func New(logger *slog.Logger) *Palette {
	p := &Palette{logger: logger}
	p.set(Defaults())
	return p
}

// Load returns a palette from path layered over the defaults. An empty path
// or a missing file yields the defaults alone.
func Load(path string, logger *slog.Logger) (*Palette, error) {
	p := New(logger)
	p.path = path
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return p, nil
}

// Path is the backing YAML file, if any.
func (p *Palette) Path() string { return p.path }

// Reload re-reads the backing file. On a parse error the current palette is
// kept.
func (p *Palette) Reload() error {
	if p.path == "" {
		return nil
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse label palette %s: %w", p.path, err)
	}

	merged := Defaults()
	index := make(map[string]int, len(merged))
	for i, e := range merged {
		index[e.Name] = i
	}
	// File entries come first in the order given; remaining defaults follow.
	ordered := make([]Entry, 0, len(merged)+len(f.Labels))
	used := make(map[string]bool)
	for _, e := range f.Labels {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" || used[e.Name] {
			continue
		}
		if i, ok := index[e.Name]; ok {
			if e.DisplayName == "" {
				e.DisplayName = merged[i].DisplayName
			}
			if e.Color == "" {
				e.Color = merged[i].Color
			}
		}
		used[e.Name] = true
		ordered = append(ordered, e)
	}
	for _, e := range merged {
		if !used[e.Name] {
			ordered = append(ordered, e)
		}
	}
	p.set(ordered)
	if p.logger != nil {
		p.logger.Info("label palette loaded", "path", p.path, "labels", len(ordered))
	}
	return nil
}

func (p *Palette) set(entries []Entry) {
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}
	p.mu.Lock()
	p.entries = entries
	p.byName = byName
	p.mu.Unlock()
}

// Color returns the colour of label, or FallbackColor.
func (p *Palette) Color(label string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if e, ok := p.byName[label]; ok && e.Color != "" {
		return e.Color
	}
	return FallbackColor
}

// DisplayName returns the human name of label, or label itself.
func (p *Palette) DisplayName(label string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if e, ok := p.byName[label]; ok && e.DisplayName != "" {
		return e.DisplayName
	}
	return label
}

// Entries returns a copy of the palette in display order.
func (p *Palette) Entries() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Names returns the label names in display order.
func (p *Palette) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Name
	}
	return out
}

// Known reports whether label is in the palette.
func (p *Palette) Known(label string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byName[label]
	return ok
}

// Save writes the palette to its backing file atomically.
func (p *Palette) Save() error {
	if p.path == "" {
		return errors.New("palette has no file")
	}
	data, err := yaml.Marshal(File{Labels: p.Entries()})
	if err != nil {
		return fmt.Errorf("failed to marshal label palette: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write label palette: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save label palette: %w", err)
	}
	return nil
}

// SortedNames returns names in alphabetical order.
func SortedNames(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}
