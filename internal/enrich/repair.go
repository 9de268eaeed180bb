package enrich

import (
	"regexp"
	"strings"
)

// The remote service is asked for bare JSON but is not guaranteed to
// comply: replies arrive wrapped in code fences, with trailing commas, or
// surrounded by prose. RepairJSON runs before structural validation and
// fixes exactly those three defects, in that order.

var (
	fenceOpenRe     = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe    = regexp.MustCompile("\\s*```$")
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
)

// RepairJSON normalizes a model reply into parseable JSON text.
func RepairJSON(text string) string {
	s := strings.TrimSpace(text)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")

	if arr := extractArray(s); arr != "" {
		s = arr
	}
	return strings.TrimSpace(s)
}

// extractArray returns the first balanced top-level JSON array in s, or ""
// when none exists. Bracket matching skips brackets inside string
// literals, so prose like "see [1]" before the payload cannot truncate it.
func extractArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '[':
			if start < 0 {
				start = i
			}
			depth++
		case ']':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
