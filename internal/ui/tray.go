package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
)

const statusRefreshInterval = 2 * time.Second

// CommitQueue is the part of the commit runner the tray controls.
type CommitQueue interface {
	Pause()
	Resume()
	IsPaused() bool
	ActiveJobCount(ctx context.Context) int
}

type Tray struct {
	service annotation.AnnotationService
	queue   CommitQueue
	logger  *slog.Logger

	statusItem *systray.MenuItem
	videosItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	addr   string
	onQuit func()
}

type TrayConfig struct {
	Service annotation.AnnotationService
	Queue   CommitQueue
	Logger  *slog.Logger
	// Addr is the API address shown in the menu.
	Addr   string
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		service: cfg.Service,
		queue:   cfg.Queue,
		logger:  cfg.Logger,
		addr:    cfg.Addr,
		onQuit:  cfg.OnQuit,
	}
}

// Run blocks until the tray exits. It must be called from the main
// goroutine on macOS.
func (t *Tray) Run(ctx context.Context) {
	systray.Run(func() { t.onReady(ctx) }, t.onExit)
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Annotate")
	systray.SetTooltip("Heimdex segment annotation")

	t.statusItem = systray.AddMenuItem(statusTitle(false, 0), "Segment commits")
	t.statusItem.Disable()

	t.videosItem = systray.AddMenuItem("Videos: 0", "Registered videos")
	t.videosItem.Disable()

	if t.addr != "" {
		apiItem := systray.AddMenuItem("API: http://"+t.addr, "Timeline API address")
		apiItem.Disable()
	}

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem(pauseTitle(false), "Pause saving segment edits")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Annotate")

	go func() {
		ticker := time.NewTicker(statusRefreshInterval)
		defer ticker.Stop()
		t.refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				systray.Quit()
				return
			case <-ticker.C:
				t.refresh(ctx)
			case <-t.pauseItem.ClickedCh:
				t.togglePause(ctx)
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause(ctx context.Context) {
	t.mu.Lock()
	if t.queue == nil {
		t.mu.Unlock()
		return
	}
	if t.queue.IsPaused() {
		t.queue.Resume()
		t.logger.Info("segment commits resumed from tray")
	} else {
		t.queue.Pause()
		t.logger.Info("segment commits paused from tray")
	}
	t.pauseItem.SetTitle(pauseTitle(t.queue.IsPaused()))
	t.mu.Unlock()
	t.refresh(ctx)
}

func (t *Tray) refresh(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.queue != nil {
		t.statusItem.SetTitle(statusTitle(t.queue.IsPaused(), t.queue.ActiveJobCount(ctx)))
	}
	if t.service != nil {
		if videos, err := t.service.GetVideos(ctx); err == nil {
			t.videosItem.SetTitle(fmt.Sprintf("Videos: %d", len(videos)))
		}
	}
}

func statusTitle(paused bool, pending int) string {
	switch {
	case paused && pending > 0:
		return fmt.Sprintf("Status: Paused (%d unsaved)", pending)
	case paused:
		return "Status: Paused"
	case pending == 1:
		return "Status: Saving 1 edit"
	case pending > 1:
		return fmt.Sprintf("Status: Saving %d edits", pending)
	}
	return "Status: All edits saved"
}

func pauseTitle(paused bool) string {
	if paused {
		return "Resume Saving"
	}
	return "Pause Saving"
}

func (t *Tray) Quit() {
	systray.Quit()
}
