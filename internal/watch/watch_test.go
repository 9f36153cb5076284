package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, []string{".fits", ".fit"}, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "light_0001.FITS")
	if err := os.WriteFile(want, make([]byte, 2880), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events:
		if ev.Path != want {
			t.Fatalf("got %s, want %s", ev.Path, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for new FITS file")
	}

	select {
	case ev := <-w.Events:
		t.Fatalf("unexpected event %s", ev.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherClosesEventsOnCancel(t *testing.T) {
	w, err := New([]string{t.TempDir()}, nil, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case _, ok := <-w.Events:
		if ok {
			t.Fatal("event after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events not closed")
	}
}

func TestStartMissingDirectory(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "absent")}, nil, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("want error for missing directory")
	}
}
