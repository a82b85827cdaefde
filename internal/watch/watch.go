// Package watch analyses conversation transcripts as they appear in a
// directory.
//
// Every *.txt file that is created or written is run through the analysis
// pipeline once it has been quiet for the debounce interval, and the
// response body is written next to it as <name>.analysis.json.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/output"
)

// ResultSuffix replaces the transcript extension in the output file name.
const ResultSuffix = ".analysis.json"

// DefaultDebounce is how long a file must be quiet before it is analysed.
const DefaultDebounce = 500 * time.Millisecond

// Analyzer runs one analysis. *analysis.Pipeline satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, log string) analysis.Result
}

// Options configures the watcher behavior.
type Options struct {
	Dir          string        // Directory to watch (not recursive)
	SkipExisting bool          // Ignore transcripts present at startup
	Debounce     time.Duration // Quiet period before a changed file is processed
	Logger       *slog.Logger

	// OnResult, if set, is called after each result file is written.
	OnResult func(transcript, resultPath string, r analysis.Result)
}

// fileState identifies one version of a transcript.
type fileState struct {
	size    int64
	modTime time.Time
}

// Watcher turns transcripts in a directory into analysis result files.
type Watcher struct {
	analyzer Analyzer
	opts     Options

	mu   sync.Mutex
	done map[string]fileState
}

// New creates a Watcher for opts.Dir.
func New(a Analyzer, opts Options) (*Watcher, error) {
	if a == nil {
		return nil, errors.New("analyzer cannot be nil")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", opts.Dir)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		analyzer: a,
		opts:     opts,
		done:     make(map[string]fileState),
	}, nil
}

// ResultPath returns the output path for a transcript.
func ResultPath(transcript string) string {
	return strings.TrimSuffix(transcript, filepath.Ext(transcript)) + ResultSuffix
}

// Run processes existing transcripts (unless SkipExisting) and then follows
// the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer fw.Close()

	// Register before the initial scan so nothing written in between is missed.
	if err := fw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}

	existing, err := w.scan()
	if err != nil {
		return err
	}
	for _, path := range existing {
		if w.opts.SkipExisting {
			w.markDone(path)
			continue
		}
		if _, err := w.ProcessFile(ctx, path); err != nil {
			w.opts.Logger.Error("failed to process transcript", "path", path, "error", err)
		}
	}

	w.opts.Logger.Info("watching for transcripts", "dir", w.opts.Dir, "skip_existing", w.opts.SkipExisting)
	return w.loop(ctx, fw)
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	ticker := time.NewTicker(w.opts.Debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			if !config.IsTranscript(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
				w.forget(event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.opts.Logger.Warn("watcher error", "error", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.opts.Debounce {
					continue
				}
				delete(pending, path)
				if _, err := w.ProcessFile(ctx, path); err != nil {
					w.opts.Logger.Error("failed to process transcript", "path", path, "error", err)
				}
			}
		}
	}
}

// scan lists the transcripts currently in the directory.
func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", w.opts.Dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && config.IsTranscript(e.Name()) {
			paths = append(paths, filepath.Join(w.opts.Dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ProcessFile analyses one transcript and writes its result file. It
// reports false without doing anything when the file has not changed since
// it was last processed.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	state := fileState{size: info.Size(), modTime: info.ModTime()}
	if !w.changed(path, state) {
		w.opts.Logger.Debug("transcript unchanged, skipping", "path", path)
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	start := time.Now()
	result := w.analyzer.Analyze(ctx, string(data))
	if ctx.Err() != nil {
		// A cancelled run may be incomplete; leave the file for the next start.
		return false, ctx.Err()
	}

	var buf bytes.Buffer
	if err := output.New(&buf, output.FormatJSON).WriteJSON(output.BuildResponse(result)); err != nil {
		return false, err
	}
	out := ResultPath(path)
	if err := writeFileAtomic(out, buf.Bytes()); err != nil {
		return false, err
	}

	w.mu.Lock()
	w.done[path] = state
	w.mu.Unlock()

	w.opts.Logger.Info("transcript analysed",
		"path", path,
		"output", out,
		"risks", len(result.Risks),
		"duration", time.Since(start))

	if w.opts.OnResult != nil {
		w.opts.OnResult(path, out, result)
	}
	return true, nil
}

func (w *Watcher) changed(path string, state fileState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, ok := w.done[path]
	return !ok || prev.size != state.size || !prev.modTime.Equal(state.modTime)
}

func (w *Watcher) markDone(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.done[path] = fileState{size: info.Size(), modTime: info.ModTime()}
	w.mu.Unlock()
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.done, path)
	w.mu.Unlock()
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it into place so readers never see a partial result.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jigyokei-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
