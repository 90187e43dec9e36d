// Package version orders SDK version tokens such as "4.3" or "5.0.1".
package version

import "golang.org/x/mod/semver"

// Compare compares two version strings and returns:
//
//	-1 if a < b
//	 0 if a == b
//	 1 if a > b
//
// Tokens that form valid semantic versions once prefixed with "v" ("4",
// "4.3", "4.3.1") are ordered by semver. Anything else falls back to a
// GNU strverscmp-style comparison of alternating non-digit and numeric
// segments.
func Compare(a, b string) int {
	va, vb := "v"+a, "v"+b
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	return sign(verrevcmp(a, b))
}

// Max returns the greatest version in vs, or "" when vs is empty.
func Max(vs []string) string {
	var max string
	for i, v := range vs {
		if i == 0 || Compare(v, max) > 0 {
			max = v
		}
	}
	return max
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
