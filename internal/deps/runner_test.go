package deps

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "git.home.luguber.info/inful/texpack/internal/errors"
)

// writeScript installs a shell script standing in for the LaTeX compiler.
// Without shell-escape the argument vector is
//
//	--interaction=nonstopmode --halt-on-error --output-directory OUT ENTRY
//
// so inside the script $4 is the output directory and $5 the entry file.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakelatex")
	script := "#!/bin/sh\nset -e\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunnerArgs(t *testing.T) {
	r := &Runner{Compiler: "pdflatex"}
	got := r.Args("/tmp/out", "main.tex")
	want := []string{"--interaction=nonstopmode", "--halt-on-error", "--output-directory", "/tmp/out", "main.tex"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %v, want %v", got, want)
	}

	r = &Runner{Compiler: "lualatex", ShellEscape: true}
	got = r.Args("/tmp/out", "main.tex")
	if got[0] != "--shell-escape" {
		t.Errorf("shell escape flag missing or misplaced: %v", got)
	}
}

func TestRunnerSuccess(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	r := &Runner{Compiler: writeScript(t, `echo done > "$4/main.pdf"`)}
	if err := r.Run(context.Background(), root, "main.tex", out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "main.pdf")); err != nil {
		t.Errorf("compiler output missing: %v", err)
	}
}

func TestRunnerFailure(t *testing.T) {
	r := &Runner{Compiler: writeScript(t, "exit 3")}
	err := r.Run(context.Background(), t.TempDir(), "main.tex", t.TempDir())
	if err == nil {
		t.Fatal("expected build error")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryBuild) {
		t.Errorf("error category = %v, want build", err)
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Compiler: writeScript(t, "sleep 10")}
	err := r.Run(ctx, t.TempDir(), "main.tex", t.TempDir())
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryBuild) {
		t.Errorf("error category = %v, want build", err)
	}
}
