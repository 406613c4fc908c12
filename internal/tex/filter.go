// Package tex implements the pure text transforms applied to LaTeX sources:
// comment stripping and tikz-externalization directive handling.
//
// Everything in this package is a deterministic function of its input; no
// filesystem or process state is touched except where a function takes
// explicit paths to read.
package tex

import (
	"regexp"
	"strings"
)

// externalLibrary is the tikz library that only matters for externalization.
const externalLibrary = "external"

var (
	externalizeDirective = regexp.MustCompile(`\\tikzexternalize\[[^\]]*\]|\\tikzexternalize\b`)
	tikzLibraryDirective = regexp.MustCompile(`\\usetikzlibrary\{([^}]*)\}`)
)

// Filter strips comments from one LaTeX source text. Lines whose first
// non-whitespace character is a comment marker are dropped entirely; all other
// lines are truncated at their first unescaped marker. A marker counts as
// escaped only when directly preceded by an odd number of backslashes, so
// `\%` is literal text while `\\%` is a genuine comment start.
//
// When stripExternalize is set, tikz externalization directives are removed as
// well: `\tikzexternalize` activations disappear and the external library is
// filtered out of `\usetikzlibrary{...}` lists, dropping the whole directive
// when the list collapses to empty.
//
// Filter is idempotent: applying it to its own output is a no-op.
func Filter(text string, stripExternalize bool) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "%") {
			continue
		}
		// Directive removal runs before the comment cut: removal can splice a
		// backslash run up against a marker, and the cut must see the spliced
		// line or filtering its own output could cut differently.
		if stripExternalize {
			line = stripExternalizeDirectives(line)
		}
		if i := unescapedMarkerIndex(line); i >= 0 {
			line = line[:i]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// unescapedMarkerIndex returns the byte index of the first unescaped % in
// line, or -1. Only the first unescaped marker matters; everything after it
// is comment, including any further markers.
func unescapedMarkerIndex(line string) int {
	backslashes := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			backslashes++
		case '%':
			if backslashes%2 == 0 {
				return i
			}
			backslashes = 0
		default:
			backslashes = 0
		}
	}
	return -1
}

func stripExternalizeDirectives(line string) string {
	line = externalizeDirective.ReplaceAllString(line, "")
	return tikzLibraryDirective.ReplaceAllStringFunc(line, func(match string) string {
		inner := tikzLibraryDirective.FindStringSubmatch(match)[1]
		var kept []string
		for _, lib := range strings.Split(inner, ",") {
			if lib = strings.TrimSpace(lib); lib != "" && lib != externalLibrary {
				kept = append(kept, lib)
			}
		}
		if len(kept) == 0 {
			return ""
		}
		return `\usetikzlibrary{` + strings.Join(kept, ",") + `}`
	})
}
