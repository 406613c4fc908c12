package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// collect closes the watcher and returns everything it delivered. Close
// drains the kernel queue before the events channel closes, so no sleeps are
// needed as long as the opens happened before the call.
func collect(t *testing.T, w *Watcher) []Event {
	t.Helper()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	var events []Event
	for ev := range w.Events() {
		events = append(events, ev)
	}
	return events
}

func hasPath(events []Event, path string) bool {
	for _, ev := range events {
		if ev.Path == path && !ev.IsDir {
			return true
		}
	}
	return false
}

func TestWatcherObservesOpens(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.tex")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "sub", "b.png")
	if err := os.MkdirAll(filepath.Dir(nested), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(nested, []byte("y"), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := os.ReadFile(file); err != nil {
		t.Fatal(err)
	}
	if _, err := os.ReadFile(nested); err != nil {
		t.Fatal(err)
	}

	events := collect(t, w)
	if !hasPath(events, file) {
		t.Errorf("open of %s not observed in %v", file, events)
	}
	if !hasPath(events, nested) {
		t.Errorf("open of nested %s not observed in %v", nested, events)
	}
}

func TestWatcherFlagsDirectoryOpens(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}

	w, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := os.ReadDir(sub); err != nil {
		t.Fatal(err)
	}

	sawDir := false
	for _, ev := range collect(t, w) {
		if ev.Path == sub && ev.IsDir {
			sawDir = true
		}
		if ev.Path == sub && !ev.IsDir {
			t.Error("directory open delivered without IsDir flag")
		}
	}
	if !sawDir {
		t.Error("directory open not observed")
	}
}

func TestWatcherFollowsCreatedDirectories(t *testing.T) {
	root := t.TempDir()
	w, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// The watch for a directory created mid-run is registered
	// asynchronously, so retry the open until it is observed.
	created := filepath.Join(root, "cache")
	if err := os.MkdirAll(created, 0o750); err != nil {
		t.Fatal(err)
	}
	inner := filepath.Join(created, "fig.pdf")
	if err := os.WriteFile(inner, []byte("pdf"), 0o600); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if _, err := os.ReadFile(inner); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !hasPath(collect(t, w), inner) {
		t.Errorf("open inside created directory not observed")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, open := <-w.Events(); open {
		t.Error("events channel not closed after Close")
	}
}

func TestWatcherSurfacesQueueOverflow(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// The kernel reports a dropped-events condition as a wd=-1 record with
	// mask IN_Q_OVERFLOW and no name; feed one through the event decoder.
	buf := make([]byte, unix.SizeofInotifyEvent)
	ev := (*unix.InotifyEvent)(unsafe.Pointer(&buf[0]))
	ev.Wd = -1
	ev.Mask = unix.IN_Q_OVERFLOW
	w.dispatch(buf)

	if err := w.Close(); err == nil {
		t.Fatal("Close must report lost events after a queue overflow")
	}
	for range w.Events() {
		t.Error("no events expected from an overflow record")
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected setup error for missing root")
	}
}
