// Package watcher observes file-open events under a directory tree for the
// lifetime of one build.
//
// fsnotify deliberately does not expose open/access notifications on any of
// its backends, so this package drives inotify directly (IN_OPEN, plus
// IN_CREATE to pick up watches for directories materialized mid-build, such
// as freshly created diagram caches).
//
// Lifecycle: New establishes the recursive watch before returning, so a build
// spawned afterwards cannot open a file unobserved. Close wakes the reader
// goroutine, drains every event still buffered in the kernel queue, and only
// then returns; no event is lost and none is delivered after Close returns.
// A kernel queue overflow is surfaced as an error from Close, because an
// overflowed queue means opens were dropped and the collected set cannot be
// trusted as a dependency closure.
package watcher
