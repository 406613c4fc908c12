// Package fscopy holds the iterative directory-tree helpers shared by the
// pack pipeline and the two-pass reconciler. All traversals use an explicit
// stack instead of recursion so pathological project trees cannot exhaust
// the call stack.
package fscopy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Filter decides whether the entry at rel (relative to the copy root) is
// carried over. A nil Filter copies everything.
type Filter func(rel string, isDir bool) bool

// Files returns every regular file under root, sorted, traversing iteratively.
func Files(root string) ([]string, error) {
	var files []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if e.IsDir() {
				stack = append(stack, p)
			} else if e.Type().IsRegular() {
				files = append(files, p)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// CopyTree copies the contents of src into dst, creating dst if necessary.
// Only directories and regular files are copied; sockets, devices and
// symlinks are skipped. The filter sees paths relative to src.
func CopyTree(src, dst string, filter Filter) error {
	type job struct{ src, dst string }
	stack := []job{{src, dst}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := os.MkdirAll(cur.dst, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", cur.dst, err)
		}
		entries, err := os.ReadDir(cur.src)
		if err != nil {
			return fmt.Errorf("list %s: %w", cur.src, err)
		}
		for _, e := range entries {
			sp := filepath.Join(cur.src, e.Name())
			dp := filepath.Join(cur.dst, e.Name())
			rel, err := filepath.Rel(src, sp)
			if err != nil {
				return err
			}
			if filter != nil && !filter(rel, e.IsDir()) {
				continue
			}
			switch {
			case e.IsDir():
				stack = append(stack, job{sp, dp})
			case e.Type().IsRegular():
				if err := CopyFile(sp, dp); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// MirrorDirs replicates the directory skeleton of src under dst without
// copying any files.
func MirrorDirs(src, dst string) error {
	type job struct{ src, dst string }
	stack := []job{{src, dst}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := os.MkdirAll(cur.dst, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", cur.dst, err)
		}
		entries, err := os.ReadDir(cur.src)
		if err != nil {
			return fmt.Errorf("list %s: %w", cur.src, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				stack = append(stack, job{filepath.Join(cur.src, e.Name()), filepath.Join(cur.dst, e.Name())})
			}
		}
	}
	return nil
}

// CopyFile copies a single regular file, preserving its permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
