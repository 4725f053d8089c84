package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/validate"
)

func setup(t *testing.T) (string, *validate.Engine) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("exclude_dirs: [build]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, rule.FileName),
		[]byte("rule:\n  - forbidden_texts: {label: t, message: no dump, keywords: [var_dump]}\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))

	cfg, err := config.Load(root)
	require.NoError(t, err)
	e, err := validate.New(cfg)
	require.NoError(t, err)
	return root, e
}

func TestWatcherRevalidatesOnChange(t *testing.T) {
	root, e := setup(t)

	var mu sync.Mutex
	var results []*validate.Result
	w, err := New(e, []string{root}, func(res *validate.Result, err error) {
		assert.NoError(t, err)
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.php"), []byte("var_dump(1);\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) > 0 && len(results[len(results)-1].Violations) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestHandleEventFiltersExcluded(t *testing.T) {
	root, e := setup(t)
	w, err := New(e, []string{root}, func(*validate.Result, error) {})
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.False(t, w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "build", "out.php"), Op: fsnotify.Write}))
	assert.False(t, w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "a.php"), Op: fsnotify.Chmod}))
	assert.True(t, w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "a.php"), Op: fsnotify.Write}))
	assert.True(t, w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "src", rule.FileName), Op: fsnotify.Remove}))
}

func TestWatcherReloadsRootConfig(t *testing.T) {
	root, e := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.php"), []byte("var_dump(1);\n"), 0o644))

	var mu sync.Mutex
	var results []*validate.Result
	w, err := New(e, []string{root}, func(res *validate.Result, err error) {
		assert.NoError(t, err)
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	assert.False(t, w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "build", "out.php"), Op: fsnotify.Write}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("exclude_dirs: []\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(results) == 0 {
			return false
		}
		vs := results[len(results)-1].Violations
		return len(vs) == 1 && vs[0].File == "build/out.php"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Empty(t, e.Config().ExcludeDirs)
}
