package labels

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-annotate/internal/watcher"
)

func TestDefaults(t *testing.T) {
	p := New(nil)
	assert.Equal(t, "#f39c12", p.Color("polyp"))
	assert.Equal(t, "Nadel", p.DisplayName("needle"))
	assert.Equal(t, FallbackColor, p.Color("unknown"))
	assert.Equal(t, "unknown", p.DisplayName("unknown"))
	assert.Len(t, p.Names(), 14)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "labels.yaml"), nil)
	require.NoError(t, err)
	assert.True(t, p.Known("wound"))
}

func TestLoad_OverridesAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`labels:
  - name: polyp
    color: "#ff0000"
  - name: tattoo
    display_name: Tätowierung
    color: "#123456"
`), 0o644))

	p, err := Load(path, nil)
	require.NoError(t, err)
	names := p.Names()
	assert.Equal(t, []string{"polyp", "tattoo", "appendix"}, names[:3])
	assert.Equal(t, "#ff0000", p.Color("polyp"))
	assert.Equal(t, "Polyp", p.DisplayName("polyp"), "display name falls back to default")
	assert.Equal(t, "Tätowierung", p.DisplayName("tattoo"))
}

func TestReload_KeepsPaletteOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  - name: polyp\n    color: \"#000000\"\n"), 0o644))
	p, err := Load(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("labels: [:::"), 0o644))
	assert.Error(t, p.Reload())
	assert.Equal(t, "#000000", p.Color("polyp"))
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	p, err := Load(path, nil)
	require.NoError(t, err)
	require.NoError(t, p.Save())

	again, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, p.Entries(), again.Entries())
}

type fakeWatcher struct {
	watched string
	cb      func(string, watcher.EventType)
}

func (f *fakeWatcher) Watch(_ context.Context, path string) error {
	f.watched = path
	return nil
}
func (f *fakeWatcher) Stop() error { return nil }
func (f *fakeWatcher) OnChange(cb func(string, watcher.EventType)) {
	f.cb = cb
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	p, err := Load(path, nil)
	require.NoError(t, err)

	fw := &fakeWatcher{}
	reloaded := 0
	require.NoError(t, p.Watch(context.Background(), fw, func() { reloaded++ }))
	assert.Equal(t, path, fw.watched)

	require.NoError(t, os.WriteFile(path, []byte("labels:\n  - name: polyp\n    color: \"#abcdef\"\n"), 0o644))
	fw.cb(path, watcher.EventModify)
	assert.Equal(t, 1, reloaded)
	assert.Equal(t, "#abcdef", p.Color("polyp"))

	fw.cb(path, watcher.EventDelete)
	assert.Equal(t, 1, reloaded)
}
