package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jplatte/hinoki/internal/config"
)

// Options for the development server.
type Options struct {
	Port int
	Open bool
}

// Run builds the site, serves the output directory over HTTP and rebuilds
// whenever the content, asset or template trees change. Blocks until ctx
// is cancelled.
func Run(ctx context.Context, cfg *config.Config, opts Options, buildSite func() error) error {
	if err := buildSite(); err != nil {
		// The server still comes up so the next edit can fix the build.
		slog.Error("Initial build failed", "error", err)
	}

	watcher, err := setupWatcher(cfg)
	if err != nil {
		return err
	}
	defer watcher.Close()

	debouncer := newRebuildDebouncer(100*time.Millisecond, time.Second)
	startRebuildWorker(ctx, debouncer.Requests(), buildSite)

	addr := fmt.Sprintf("localhost:%d", opts.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: http.FileServer(http.Dir(cfg.OutputRoot()))}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	url := "http://" + addr
	slog.Info("Serving site", "url", url)
	if opts.Open {
		openBrowser(url)
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, debouncer.Trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// setupWatcher watches the content, asset and template trees recursively.
// Trees that do not exist are skipped; they may appear later but only get
// picked up on restart.
func setupWatcher(cfg *config.Config) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, root := range []string{cfg.ContentRoot(), cfg.AssetRoot(), cfg.TemplateRoot()} {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := addDirsRecursive(watcher, root); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return watcher, nil
}

// rebuildDebouncer coalesces bursts of filesystem events into single
// rebuild requests: a request fires once events have been quiet for
// quietWindow, or maxDelay after the first event of a burst, so a steady
// stream of events cannot postpone rebuilding indefinitely.
type rebuildDebouncer struct {
	quietWindow time.Duration
	maxDelay    time.Duration

	mu         sync.Mutex
	quietTimer *time.Timer
	maxTimer   *time.Timer
	requests   chan struct{}
}

func newRebuildDebouncer(quietWindow, maxDelay time.Duration) *rebuildDebouncer {
	return &rebuildDebouncer{
		quietWindow: quietWindow,
		maxDelay:    maxDelay,
		requests:    make(chan struct{}, 1),
	}
}

// Requests delivers at most one pending rebuild request at a time.
func (d *rebuildDebouncer) Requests() <-chan struct{} {
	return d.requests
}

// Trigger records one filesystem event.
func (d *rebuildDebouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quietTimer != nil {
		d.quietTimer.Stop()
	}
	d.quietTimer = time.AfterFunc(d.quietWindow, d.fire)
	if d.maxTimer == nil {
		d.maxTimer = time.AfterFunc(d.maxDelay, d.fire)
	}
}

func (d *rebuildDebouncer) fire() {
	d.mu.Lock()
	if d.quietTimer != nil {
		d.quietTimer.Stop()
		d.quietTimer = nil
	}
	if d.maxTimer != nil {
		d.maxTimer.Stop()
		d.maxTimer = nil
	}
	d.mu.Unlock()

	select {
	case d.requests <- struct{}{}:
	default:
	}
}

// startRebuildWorker rebuilds on request. A request arriving during a
// build queues exactly one follow-up build instead of piling up.
func startRebuildWorker(ctx context.Context, rebuildReq <-chan struct{}, buildSite func() error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				slog.Info("Change detected, rebuilding site")
				if err := buildSite(); err != nil {
					slog.Error("Rebuild failed", "error", err)
				}
			}
		}
	}()
}

// handleFileEvent triggers a rebuild for relevant events and starts
// watching newly created directories.
func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent filters out events for hidden files and editor temp or
// swap files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

// openBrowser makes a best-effort attempt at opening the served site in
// the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("Opening browser failed", "error", err)
	}
}
