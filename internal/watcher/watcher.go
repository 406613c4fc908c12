package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Event is a single observed open under the watched root.
type Event struct {
	Path  string // absolute path, built from the root passed to New
	IsDir bool
}

const (
	watchMask = unix.IN_OPEN | unix.IN_CREATE
	// eventBufSize keeps the reader goroutine from blocking on slow consumers
	// long enough for the kernel queue to overflow under normal builds.
	eventBufSize = 4096
)

// Watcher delivers open events for every file under a root directory.
// The consumer must keep receiving from Events until the channel is closed.
type Watcher struct {
	root   string
	fd     int
	wakeR  int
	wakeW  int
	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	watches map[int]string // watch descriptor -> directory path

	overflowed bool // written by the reader goroutine, read after <-done
	closeOnce  sync.Once
	closeErr   error
}

// New establishes a recursive watch over root and starts delivering events.
// It fails fast if the kernel watch cannot be established; there is no
// degraded mode, since a partial watch would silently lose dependencies.
func New(root string) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	var pipe [2]int
	if err := unix.Pipe2(pipe[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("watcher wake pipe: %w", err)
	}

	w := &Watcher{
		root:    root,
		fd:      fd,
		wakeR:   pipe[0],
		wakeW:   pipe[1],
		events:  make(chan Event, eventBufSize),
		done:    make(chan struct{}),
		watches: make(map[int]string),
	}
	if err := w.watchRecursive(root); err != nil {
		unix.Close(fd)
		unix.Close(pipe[0])
		unix.Close(pipe[1])
		return nil, err
	}
	go w.readLoop()
	return w, nil
}

// Events returns the delivery channel. It is closed once the reader goroutine
// has drained and exited.
func (w *Watcher) Events() <-chan Event { return w.events }

// Close stops observation and blocks until the reader goroutine has drained
// every buffered kernel event and exited. Safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		_, _ = unix.Write(w.wakeW, []byte{0})
		<-w.done
		unix.Close(w.fd)
		unix.Close(w.wakeR)
		unix.Close(w.wakeW)
		if w.overflowed {
			w.closeErr = fmt.Errorf("inotify queue overflowed while watching %s: open events were lost", w.root)
		}
	})
	return w.closeErr
}

// watchRecursive adds watches for dir and every subdirectory, iteratively.
// Directories that vanish mid-walk are tolerated; they were transient build
// artifacts and any file opened inside them was observed via the parent.
func (w *Watcher) watchRecursive(dir string) error {
	stack := []string{dir}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		wd, err := unix.InotifyAddWatch(w.fd, d, watchMask)
		if err != nil {
			if d != dir && os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("watch %s: %w", d, err)
		}
		w.mu.Lock()
		w.watches[wd] = d
		w.mu.Unlock()

		entries, err := os.ReadDir(d)
		if err != nil {
			if d != dir {
				continue
			}
			return fmt.Errorf("list %s: %w", d, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				stack = append(stack, filepath.Join(d, e.Name()))
			}
		}
	}
	return nil
}

// readLoop polls the inotify descriptor until woken by Close. The final drain
// happens after the wake signal, so events queued between process exit and
// shutdown are still delivered.
func (w *Watcher) readLoop() {
	defer close(w.done)
	defer close(w.events)

	buf := make([]byte, 64*1024)
	fds := []unix.PollFd{
		{Fd: int32(w.fd), Events: unix.POLLIN},
		{Fd: int32(w.wakeR), Events: unix.POLLIN},
	}
	for {
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		w.drain(buf)
		if fds[1].Revents != 0 {
			return
		}
		fds[0].Revents = 0
	}
}

// drain reads the inotify queue until empty.
func (w *Watcher) drain(buf []byte) {
	for {
		n, err := unix.Read(w.fd, buf)
		if n <= 0 || err != nil {
			return
		}
		w.dispatch(buf[:n])
	}
}

func (w *Watcher) dispatch(data []byte) {
	for off := 0; off+unix.SizeofInotifyEvent <= len(data); {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&data[off]))
		mask := raw.Mask
		nameLen := int(raw.Len)

		name := ""
		if nameLen > 0 {
			name = strings.TrimRight(string(data[off+unix.SizeofInotifyEvent:off+unix.SizeofInotifyEvent+nameLen]), "\x00")
		}
		off += unix.SizeofInotifyEvent + nameLen

		if mask&unix.IN_Q_OVERFLOW != 0 {
			w.overflowed = true
			continue
		}

		w.mu.Lock()
		dir, known := w.watches[int(raw.Wd)]
		if mask&unix.IN_IGNORED != 0 {
			delete(w.watches, int(raw.Wd))
		}
		w.mu.Unlock()
		if !known {
			continue
		}

		path := dir
		if name != "" {
			path = filepath.Join(dir, name)
		}
		isDir := mask&unix.IN_ISDIR != 0

		if mask&unix.IN_CREATE != 0 && isDir {
			// Directories created mid-build (e.g. diagram caches) must be
			// observed too. A failure here means the directory already
			// vanished again.
			_ = w.watchRecursive(path)
		}
		if mask&unix.IN_OPEN != 0 {
			w.events <- Event{Path: path, IsDir: isDir}
		}
	}
}
