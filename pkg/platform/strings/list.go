// Package strings holds small string helpers shared by config parsing.
package strings

import "strings"

// SplitList splits a comma-separated value, trimming each element and
// dropping blanks and repeats. Order of first appearance is preserved.
//
//	SplitList(" a, b,,a ") // []string{"a", "b"}
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
