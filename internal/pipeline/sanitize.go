package pipeline

import (
	"path"
	"strconv"
	"strings"
	"unicode"
)

// Sanitize reduces name to a single safe path element. Any directory part is
// dropped, characters that are illegal in file names on common filesystems
// become '_', and surrounding spaces are trimmed. When nothing usable is left
// the fallback is returned instead.
//
//	Sanitize("../../evil.stl", "result.stl") == "evil.stl"
//	Sanitize("", "result.stl") == "result.stl"
func Sanitize(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimRight(name, "/ "))

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"|?*`, r) {
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)

	switch cleaned {
	case "", ".", "..", "/":
		return fallback
	}
	return cleaned
}

// uniqueNames makes the names distinct by suffixing later duplicates with
// -2, -3 and so on before the extension. Comparison ignores case, since the
// artifacts may land on a case-insensitive filesystem.
func uniqueNames(names ...string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		candidate := n
		ext := path.Ext(n)
		stem := strings.TrimSuffix(n, ext)
		for k := 2; seen[strings.ToLower(candidate)]; k++ {
			candidate = stem + "-" + strconv.Itoa(k) + ext
		}
		seen[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}
