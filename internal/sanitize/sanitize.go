// Package sanitize cleans untrusted names before they reach the filesystem.
// Job IDs supplied by agents become directory names under the output root,
// so only a conservative character set survives.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxJobIDLength is the maximum allowed length for a job ID.
const MaxJobIDLength = 128

var (
	// reRepeatedHyphens matches 2 or more consecutive hyphens.
	reRepeatedHyphens = regexp.MustCompile(`-{2,}`)

	// reRepeatedUnderscores matches 2 or more consecutive underscores.
	reRepeatedUnderscores = regexp.MustCompile(`_{2,}`)

	// reRepeatedDots matches 2 or more consecutive dots.
	reRepeatedDots = regexp.MustCompile(`\.{2,}`)
)

// JobID sanitizes a job ID, keeping only [a-zA-Z0-9-_.] and enforcing a
// maximum length of MaxJobIDLength characters. Runs of hyphens, underscores
// and dots are collapsed, and leading dots are removed so the result is never
// a hidden or parent directory. The result may be empty.
func JobID(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	s = reRepeatedHyphens.ReplaceAllString(s, "-")
	s = reRepeatedUnderscores.ReplaceAllString(s, "_")
	s = reRepeatedDots.ReplaceAllString(s, ".")
	s = strings.TrimLeft(s, ".")

	if len(s) > MaxJobIDLength {
		s = s[:MaxJobIDLength]
	}

	return s
}
