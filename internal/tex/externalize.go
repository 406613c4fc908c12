package tex

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
)

// externalizePrefix captures the prefix option of a tikzexternalize
// activation, e.g. \tikzexternalize[mode=list and make,prefix=figures/].
var externalizePrefix = regexp.MustCompile(`\\tikzexternalize\[(?:.*,)?prefix=([^,\]]+)(?:,.*)?\]`)

// ExternalizePrefixes scans the given files for tikz externalization
// directives and returns the distinct cache-directory prefixes they declare,
// in first-seen order over the sorted input. Non-.tex files are skipped.
// A read failure is returned as-is; callers treat it as fatal because a
// partial scan could silently skip the second compilation pass.
func ExternalizePrefixes(paths []string) ([]string, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	var prefixes []string
	seen := make(map[string]bool)
	for _, p := range sorted {
		if filepath.Ext(p) != ".tex" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("scan %s for externalize directives: %w", p, err)
		}
		for _, m := range externalizePrefix.FindAllStringSubmatch(string(data), -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				prefixes = append(prefixes, m[1])
			}
		}
	}
	return prefixes, nil
}
