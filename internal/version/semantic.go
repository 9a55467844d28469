// Package version orders version strings under the two schemes used by
// updsync: semantic versions for application packages and fixed-format
// timestamps for resource bundles. The two schemes are never mixed; callers
// pick the comparator for the artifact class they are handling.
package version

import (
	"strconv"
	"strings"
)

// Comparator is a three-way ordering over version strings.
// It returns a negative number if a < b, zero if equal and a positive number if a > b.
type Comparator func(a, b string) int

// IsNewer reports whether remote orders strictly after current under cmp.
func IsNewer(cmp Comparator, current, remote string) bool {
	return cmp(current, remote) < 0
}

// Semantic is a leniently parsed semantic version.
// Malformed numeric components parse as 0 instead of failing.
type Semantic struct {
	Main          []int
	Prerelease    []string
	HasPrerelease bool
}

// Normalize removes a single leading 'v' or 'V' if present.
func Normalize(s string) string {
	if strings.HasPrefix(s, "v") || strings.HasPrefix(s, "V") {
		return s[1:]
	}
	return s
}

// ParseSemantic parses a semantic version string.
// Supports formats like "2.2.0", "v2.2.0", "1.0.0-rc.1". It never fails.
func ParseSemantic(s string) Semantic {
	s = Normalize(s)

	main, pre, hasPre := strings.Cut(s, "-")

	parts := strings.Split(main, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums[i] = n
	}

	v := Semantic{Main: nums, HasPrerelease: hasPre}
	if hasPre {
		v.Prerelease = strings.Split(pre, ".")
	}
	return v
}

// Compare compares two versions
// Returns:
//   - 1 if v > other
//   - 0 if v == other
//   - -1 if v < other
func (v Semantic) Compare(other Semantic) int {
	if c := compareMain(v.Main, other.Main); c != 0 {
		return c
	}
	return comparePrerelease(v, other)
}

// CompareSemantic compares two semantic version strings.
func CompareSemantic(a, b string) int {
	if a == b {
		return 0
	}
	return ParseSemantic(a).Compare(ParseSemantic(b))
}

func compareMain(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			return compareInt(x, y)
		}
	}
	return 0
}

// comparePrerelease orders prerelease suffixes.
// A release (no suffix) is greater than any prerelease.
func comparePrerelease(a, b Semantic) int {
	switch {
	case !a.HasPrerelease && !b.HasPrerelease:
		return 0
	case !a.HasPrerelease:
		return 1
	case !b.HasPrerelease:
		return -1
	}

	ids1, ids2 := a.Prerelease, b.Prerelease
	n := max(len(ids1), len(ids2))
	for i := 0; i < n; i++ {
		if i >= len(ids1) {
			return -1
		}
		if i >= len(ids2) {
			return 1
		}
		if c := compareIdentifier(ids1[i], ids2[i]); c != 0 {
			return c
		}
	}
	return 0
}

// compareIdentifier compares a single prerelease identifier.
// Numeric identifiers sort before alphanumeric ones and compare by value
// without bounds.
func compareIdentifier(a, b string) int {
	numA, numB := isNumeric(a), isNumeric(b)

	switch {
	case numA && numB:
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := compareInt(len(a), len(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case numA:
		return -1
	case numB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// isNumeric reports whether s is made only of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
