package bib

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFindTargets(t *testing.T) {
	out := t.TempDir()
	writeFile(t, out, "main.aux", "\\relax\n\\bibdata{refs}\n")
	writeFile(t, out, "sub/chapter.aux", "\\bibstyle{plain}\n\\citation{knuth}\n")
	writeFile(t, out, "other.aux", "\\relax\n\\citation{lamport}\n")
	writeFile(t, out, "notes.log", "\\bibdata{refs}") // wrong extension

	targets, err := FindTargets(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", filepath.Join("sub", "chapter")}, targets)
}

func TestFindTargetsIgnoresMidLineDirectives(t *testing.T) {
	out := t.TempDir()
	writeFile(t, out, "main.aux", "\\relax \\bibdata{refs}\n")

	targets, err := FindTargets(out)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

// fakeTool writes an executable standing in for a bibliography processor.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faketool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nset -e\n"+body+"\n"), 0o755))
	return path
}

func TestProcessRunsToolPerTarget(t *testing.T) {
	projectRoot := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "sub"), 0o750))

	// Record the search-path environment and produce the processed artifact.
	p := &Processor{Tool: fakeTool(t, `echo "$BIBINPUTS" > "$1.env"
echo bbl > "$1.bbl"`)}
	err := p.Process(context.Background(), projectRoot, out, []string{"main", filepath.Join("sub", "chapter")})
	require.NoError(t, err)

	for _, stem := range []string{"main", filepath.Join("sub", "chapter")} {
		assert.FileExists(t, filepath.Join(out, stem+ProcessedExt))
	}
	env, err := os.ReadFile(filepath.Join(out, "main.env"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(env), projectRoot+":"),
		"project root missing from database search path: %q", env)
}

func TestProcessFailure(t *testing.T) {
	p := &Processor{Tool: fakeTool(t, "exit 2")}
	err := p.Process(context.Background(), t.TempDir(), t.TempDir(), []string{"main"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryBibliography))
}

func TestProcessNoTargets(t *testing.T) {
	// The tool path does not even need to exist when there is nothing to do.
	p := &Processor{Tool: "/nonexistent/tool"}
	assert.NoError(t, p.Process(context.Background(), t.TempDir(), t.TempDir(), nil))
}
