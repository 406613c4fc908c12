package tex

import (
	"strings"
	"testing"
)

func TestFilterCommentRules(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"comment line dropped", "text\n% note\nmore", "text\nmore"},
		{"indented comment line dropped", "text\n   % note\nmore", "text\nmore"},
		{"tab indented comment line dropped", "text\n\t% note\nmore", "text\nmore"},
		{"trailing comment truncated", "hi % trailing", "hi "},
		{"escaped marker kept", `50\% done`, `50\% done`},
		{"escaped escape then marker cuts", `path\\% comment`, `path\\`},
		{"triple backslash keeps marker", `a\\\% b`, `a\\\% b`},
		{"only first marker matters", `a % b % c`, `a `},
		{"escaped then unescaped", `x \% y % z`, `x \% y `},
		{"empty line kept", "a\n\nb", "a\n\nb"},
		{"marker at line start dropped even with text before newline", "%", ""},
		{"no markers untouched", "plain text", "plain text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filter(tc.in, false); got != tc.want {
				t.Errorf("Filter(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilterEscapeParity(t *testing.T) {
	// Odd backslash runs escape the marker, even runs do not.
	for n := 0; n <= 6; n++ {
		line := strings.Repeat(`\`, n) + "%tail"
		got := Filter(line, false)
		if n == 0 {
			// First non-whitespace char is the marker: whole line dropped.
			if got != "" {
				t.Errorf("n=0: expected dropped line, got %q", got)
			}
			continue
		}
		if n%2 == 0 {
			want := strings.Repeat(`\`, n)
			if got != want {
				t.Errorf("n=%d (even): got %q, want cut %q", n, got, want)
			}
		} else if got != line {
			t.Errorf("n=%d (odd): got %q, want untouched %q", n, got, line)
		}
	}
}

func TestFilterDirectiveStripping(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare activation removed", `\tikzexternalize`, ``},
		{"activation with options removed", `\tikzexternalize[prefix=figs/]`, ``},
		{"external filtered from library list", `\usetikzlibrary{external,arrows}`, `\usetikzlibrary{arrows}`},
		{"external with spaces filtered", `\usetikzlibrary{ external , arrows }`, `\usetikzlibrary{arrows}`},
		{"empty list collapses to nothing", `\usetikzlibrary{external}`, ``},
		{"unrelated libraries untouched", `\usetikzlibrary{arrows,calc}`, `\usetikzlibrary{arrows,calc}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filter(tc.in, true); got != tc.want {
				t.Errorf("Filter(%q, strip) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilterDirectivesKeptWhenStrippingDisabled(t *testing.T) {
	in := `\tikzexternalize[prefix=figures-cache/]`
	if got := Filter(in, false); got != in {
		t.Errorf("Filter without stripping changed directive: %q", got)
	}
}
