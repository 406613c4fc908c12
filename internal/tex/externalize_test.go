package tex

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExternalizePrefixes(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.tex", `\tikzexternalize[prefix=figures-cache/]`)
	multi := writeFile(t, dir, "multi.tex", `\tikzexternalize[mode=list and make,prefix=tikz/,up to date check=md5]`)
	plain := writeFile(t, dir, "plain.tex", `\documentclass{article}`)
	noise := writeFile(t, dir, "image.png", `prefix=not-a-tex-file/`)

	prefixes, err := ExternalizePrefixes([]string{noise, plain, multi, main})
	if err != nil {
		t.Fatalf("ExternalizePrefixes failed: %v", err)
	}
	// Input is sorted before scanning, so the order is deterministic.
	want := []string{"figures-cache/", "tikz/"}
	if len(prefixes) != len(want) {
		t.Fatalf("got %v, want %v", prefixes, want)
	}
	for i := range want {
		if prefixes[i] != want[i] {
			t.Errorf("prefix[%d] = %q, want %q", i, prefixes[i], want[i])
		}
	}
}

func TestExternalizePrefixesNoDirective(t *testing.T) {
	dir := t.TempDir()
	plain := writeFile(t, dir, "plain.tex", `\begin{document}hi\end{document}`)

	prefixes, err := ExternalizePrefixes([]string{plain})
	if err != nil {
		t.Fatalf("ExternalizePrefixes failed: %v", err)
	}
	if len(prefixes) != 0 {
		t.Errorf("expected no prefixes, got %v", prefixes)
	}
}

func TestExternalizePrefixesDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.tex", `\tikzexternalize[prefix=figs/]`)
	b := writeFile(t, dir, "b.tex", `\tikzexternalize[prefix=figs/]`)

	prefixes, err := ExternalizePrefixes([]string{a, b})
	if err != nil {
		t.Fatalf("ExternalizePrefixes failed: %v", err)
	}
	if len(prefixes) != 1 || prefixes[0] != "figs/" {
		t.Errorf("expected single deduplicated prefix, got %v", prefixes)
	}
}

func TestExternalizePrefixesUnreadableFile(t *testing.T) {
	if _, err := ExternalizePrefixes([]string{"/nonexistent/file.tex"}); err == nil {
		t.Error("expected error for unreadable file")
	}
}
