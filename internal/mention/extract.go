// Package mention finds @name references in free text and resolves them
// against the agent directory.
package mention

import "regexp"

// A mention is "@" followed by one or more letters, digits or underscores.
var pattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// Extract returns the distinct names mentioned in text, in order of first
// appearance. It never consults the directory.
func Extract(text string) []string {
	out := make([]string, 0)
	if text == "" {
		return out
	}
	seen := map[string]struct{}{}
	for _, match := range pattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
