package labels

import (
	"context"

	"github.com/heimdex/heimdex-annotate/internal/watcher"
)

// Watch reloads the palette whenever its file changes and then calls
// onReload, if set. A palette without a file is not watched.
func (p *Palette) Watch(ctx context.Context, w watcher.Watcher, onReload func()) error {
	if p.path == "" {
		return nil
	}
	w.OnChange(func(path string, event watcher.EventType) {
		if event == watcher.EventDelete {
			if p.logger != nil {
				p.logger.Warn("label palette removed, keeping current labels", "path", path)
			}
			return
		}
		if err := p.Reload(); err != nil {
			if p.logger != nil {
				p.logger.Warn("label palette reload failed", "path", path, "error", err)
			}
			return
		}
		if onReload != nil {
			onReload()
		}
	})
	return w.Watch(ctx, p.path)
}
