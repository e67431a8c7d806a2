package chart

import (
	"fmt"
	"strings"
)

// forbidden substrings checked case-insensitively over the whole fragment.
// Any hit is a security rejection, even inside a string literal; the model
// has no legitimate reason to produce these.
var forbidden = []string{
	"import",
	"eval(",
	"exec(",
	"base64",
	"data:image/",
}

// allowedOpeners are the call names a fragment may open with, directly or on
// the right side of its first assignment.
var allowedOpeners = map[string]bool{
	"figure": true,
	"pie":    true,
	"bar":    true,
	"line":   true,
}

// Screen strips fence markup, comments and blank lines, then applies the
// two-phase static check: forbidden-construct scan (ErrUnsafeCode) and the
// opening-statement allowlist (ErrInvalidCode). It returns the cleaned
// fragment ready for sandboxed execution.
func Screen(code string) (string, error) {
	lines := cleanLines(code)
	if len(lines) == 0 {
		return "", fmt.Errorf("empty fragment: %w", ErrInvalidCode)
	}

	cleaned := strings.Join(lines, "\n")
	lower := strings.ToLower(cleaned)
	for _, pattern := range forbidden {
		if strings.Contains(lower, pattern) {
			return "", fmt.Errorf("found %q: %w", pattern, ErrUnsafeCode)
		}
	}

	if err := checkOpener(lines[0]); err != nil {
		return "", err
	}
	return cleaned, nil
}

// cleanLines drops code fences, comment-only lines and blank lines.
func cleanLines(code string) []string {
	var lines []string
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "```"):
		case strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(trimmed, "//"):
		default:
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// checkOpener is a syntactic sanity check, not a full validation: the first
// statement must be a plotting call, or an assignment whose right side is a
// plotting call or a data-table access.
func checkOpener(first string) error {
	stmt, err := parseStatement(first)
	if err != nil {
		return fmt.Errorf("first statement %q: %w", first, ErrInvalidCode)
	}

	if name, ok := stmt.callName(); ok && allowedOpeners[name] {
		return nil
	}
	if stmt.isDataAccess() {
		return nil
	}
	return fmt.Errorf("first statement %q is not an allowed opener: %w", first, ErrInvalidCode)
}
