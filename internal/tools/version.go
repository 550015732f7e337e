package tools

import (
	"regexp"
	"strings"
)

// Matches "5.9", "5.10.1" and "lldb-1500.0.22.8" style versions. Swift often
// reports only major.minor.
var verRe = regexp.MustCompile(`(?i)\b(?:swift version |v)?(\d+\.\d+(?:\.\d+)?(?:-[\w.]+)?)\b`)

// ParseVersion extracts the first version number, preferring the first line.
func ParseVersion(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	line := strings.Split(s, "\n")[0]
	if m := verRe.FindStringSubmatch(line); len(m) > 1 {
		return m[1]
	}
	if m := verRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

// VersionLess compares two semantic versions (best-effort).
// Returns true if a < b.
func VersionLess(a, b string) bool {
	a = NormalizeVersion(a)
	b = NormalizeVersion(b)
	if a == "" || b == "" {
		return false
	}
	ap := strings.Split(strings.SplitN(a, "-", 2)[0], ".")
	bp := strings.Split(strings.SplitN(b, "-", 2)[0], ".")
	for len(ap) < 3 {
		ap = append(ap, "0")
	}
	for len(bp) < 3 {
		bp = append(bp, "0")
	}
	for i := 0; i < 3; i++ {
		av, bv := atoiSafe(ap[i]), atoiSafe(bp[i])
		if av != bv {
			return av < bv
		}
	}
	// pre-release sorts before release
	return strings.Contains(a, "-") && !strings.Contains(b, "-")
}

func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(v, "v")
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
