package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"markdown", "/src/a.md", false},
		{"hidden", "/src/.hidden.md", true},
		{"swap", "/src/a.md.swp", true},
		{"backup", "/src/a.md~", true},
		{"emacs lock", "/src/#a.md#", true},
		{"fragment dir", "/src/sub/.docpress-temp/a.md.toc.json", true},
		{"destination", "/src/out/a.html", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldIgnoreEvent(tt.path, "/src/out"))
		})
	}
}

func TestIsWithin(t *testing.T) {
	assert.True(t, isWithin("/a/b/c", "/a/b"))
	assert.True(t, isWithin("/a/b", "/a/b"))
	assert.False(t, isWithin("/a/bc", "/a/b"))
	assert.False(t, isWithin("/a", "/a/b"))
	assert.False(t, isWithin("/a", ""))
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	req, trigger := newDebouncer(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		trigger()
	}
	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("debounced signal not delivered")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one signal")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	src := t.TempDir()
	var builds atomic.Int32
	w := New(Options{SourceRoot: src, Debounce: 10 * time.Millisecond}, func(context.Context) error {
		builds.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return builds.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	// Give the watcher time to register the directory before writing.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(src, "page.md"), []byte("# Hi\n"), 0o600)
		return builds.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_SchedulerFailureReturnsPromptly(t *testing.T) {
	w := New(Options{SourceRoot: t.TempDir(), Interval: time.Minute}, func(context.Context) error { return nil })
	w.newScheduler = func() (gocron.Scheduler, error) { return nil, errors.New("no scheduler") }

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorContains(t, err, "no scheduler")
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked after the scheduler failed")
	}
}
