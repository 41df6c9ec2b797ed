package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/config"
)

func watchConfig(t *testing.T, debounce string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
intake:
  record_files: ["records/*.yaml"]
watch:
  debounce: ` + debounce + `
`))
	require.NoError(t, err)
	return cfg
}

func TestWatcher_TriggersOnRecordFileChange(t *testing.T) {
	dir := t.TempDir()
	recordsDir := filepath.Join(dir, "records")
	require.NoError(t, os.MkdirAll(recordsDir, 0o755))

	var runs atomic.Int32
	ran := make(chan struct{}, 4)
	w, err := New(watchConfig(t, "20ms"), dir, func(context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(recordsDir, "core.yaml"), []byte("records: []\n"), 0o644))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a regeneration run after file change")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	recordsDir := filepath.Join(dir, "records")
	require.NoError(t, os.MkdirAll(recordsDir, 0o755))

	var runs atomic.Int32
	ran := make(chan struct{}, 16)
	w, err := New(watchConfig(t, "150ms"), dir, func(context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// A burst of writes inside the debounce window coalesces into one run.
	path := filepath.Join(recordsDir, "core.yaml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("records: []\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a regeneration run after burst")
	}
	// Allow any stray timer to fire before counting.
	time.Sleep(300 * time.Millisecond)
	require.LessOrEqual(t, runs.Load(), int32(2))
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	recordsDir := filepath.Join(dir, "records")
	require.NoError(t, os.MkdirAll(recordsDir, 0o755))

	var runs atomic.Int32
	w, err := New(watchConfig(t, "20ms"), dir, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(recordsDir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, int32(0), runs.Load())
}

func TestWatcher_TriggersOnNestedPackageChange(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "internal", "core")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := config.Parse([]byte(`
intake:
  go_packages: ["./..."]
watch:
  debounce: 20ms
`))
	require.NoError(t, err)

	ran := make(chan struct{}, 4)
	w, err := New(cfg, dir, func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Edits two levels below the configured root must still trigger.
	require.NoError(t, os.WriteFile(filepath.Join(nested, "core.go"), []byte("package core\n"), 0o644))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a regeneration run after nested file change")
	}
}

func TestWatcher_WatchesDirectoriesCreatedAfterStart(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Parse([]byte(`
intake:
  go_packages: ["./..."]
watch:
  debounce: 20ms
`))
	require.NoError(t, err)

	ran := make(chan struct{}, 4)
	w, err := New(cfg, dir, func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	nested := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	// Give the watch loop a moment to pick up the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(nested, "pkg.go"), []byte("package pkg\n"), 0o644))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a regeneration run after change in new directory")
	}
}

func TestWatcher_DoubleStartFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "records"), 0o755))

	w, err := New(watchConfig(t, "20ms"), dir, func(context.Context) error { return nil })
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	require.Error(t, w.Start(ctx))
}

func TestGlobDir(t *testing.T) {
	require.Equal(t, "/a/b", globDir("/a/b/*.yaml"))
	require.Equal(t, "/a", globDir("/a/*/records/*.yaml"))
	require.Equal(t, "/a/b", globDir("/a/b/core.yaml"))
}
