// Package workspace manages the disposable directory tree owned by one pack
// run: the scratch copy of the project, the compiler output tree, the pass-2
// staging area and the archive staging area all live under one timestamped
// directory (e.g. texpack-20260829-122336) that is removed when the run
// completes, so stripping and rewriting never touch the caller's files.
package workspace
