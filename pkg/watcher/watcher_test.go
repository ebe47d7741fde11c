package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestWatcher_DetectsSnapshotWrite(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir,
		WithDebounceDuration(30*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "snapshot.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("change was never signaled")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	var changes atomic.Int32
	w, err := New(dir,
		WithDebounceDuration(30*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if got := changes.Load(); got != 0 {
		t.Errorf("a .txt write should not notify, got %d changes", got)
	}
}

func TestWatcher_PollingMode(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir,
		WithForcePoll(true),
		WithDebounceDuration(30*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("forced polling mode should report IsPolling")
	}

	if err := os.WriteFile(filepath.Join(dir, "snapshot.db"), []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("polling never detected the new export")
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second start should return ErrAlreadyStarted, got %v", err)
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "gone"))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("starting on a missing directory should fail")
		w.Stop()
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Stop()
	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should report stopped")
	}
}
