package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sambeau/pyfront/config"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) seen() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	for _, b := range r.batches {
		for _, p := range b {
			seen[p] = true
		}
	}
	return seen
}

func startWatcher(t *testing.T, dir string, rec *recorder) *Watcher {
	t.Helper()
	cfg := config.Defaults()
	cfg.Sources.Roots = []string{dir}
	cfg.Watch.Debounce = "50ms"

	w, err := New(cfg, rec.onChange, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return w
}

func waitFor(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		seen := rec.seen()
		all := true
		for _, p := range want {
			if !seen[p] {
				all = false
			}
		}
		if all {
			return
		}
		select {
		case <-rec.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %v, saw %v", want, seen)
		}
	}
}

func TestWatcherReportsSourceChanges(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, rec)

	a := filepath.Join(dir, "a.py")
	b := filepath.Join(dir, "b.pyi")
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)
	os.WriteFile(a, []byte("x = 1\n"), 0644)
	os.WriteFile(b, []byte("y: int\n"), 0644)

	waitFor(t, rec, a, b)

	if rec.seen()[filepath.Join(dir, "notes.txt")] {
		t.Errorf("non-source file reported")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, rec)

	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// give the watcher time to add the new directory
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "mod.py")
	os.WriteFile(path, []byte("z = 3\n"), 0644)
	waitFor(t, rec, path)
}

func TestWatcherSkipsExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	cache := filepath.Join(dir, "__pycache__")
	os.Mkdir(cache, 0755)

	rec := newRecorder()
	startWatcher(t, dir, rec)

	os.WriteFile(filepath.Join(cache, "skip.py"), []byte(""), 0644)
	keep := filepath.Join(dir, "keep.py")
	os.WriteFile(keep, []byte(""), 0644)

	waitFor(t, rec, keep)
	if rec.seen()[filepath.Join(cache, "skip.py")] {
		t.Errorf("file in excluded directory reported")
	}
}

func TestDebounceBatchesBursts(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := startWatcher(t, dir, rec)

	path := filepath.Join(dir, "burst.py")
	for i := 0; i < 10; i++ {
		os.WriteFile(path, []byte(strings.Repeat("x = 1\n", i+1)), 0644)
	}
	waitFor(t, rec, path)

	if got := w.Batches(); got > 3 {
		t.Errorf("Batches() = %d, want the burst coalesced", got)
	}
}

func TestCloseWithoutStartReturnsImmediately(t *testing.T) {
	cfg := config.Defaults()
	cfg.Sources.Roots = []string{t.TempDir()}

	w, err := New(cfg, newRecorder().onChange, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	begin := time.Now()
	if err := w.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if elapsed := time.Since(begin); elapsed > 200*time.Millisecond {
		t.Errorf("Close() took %v without Start", elapsed)
	}
}
