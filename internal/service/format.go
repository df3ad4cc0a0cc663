package service

import (
	"regexp"
	"strings"
)

var (
	// separatorTokenPattern matches a token that is a markdown table
	// separator row on its own: pipes, dashes, colons and spaces only.
	separatorTokenPattern = regexp.MustCompile(`^\|?\s*[-: ]+\s*(\|\s*[-: ]+\s*)*\|?$`)

	// separatorLinePattern matches a full line made only of separator
	// characters.
	separatorLinePattern = regexp.MustCompile(`^[\s|:-]+$`)

	// columnGapPattern detects space-aligned tables: two runs of
	// non-whitespace separated by two or more spaces.
	columnGapPattern = regexp.MustCompile(`\S+\s{2,}\S+`)
)

// isSeparatorToken reports whether a single streamed token looks like a
// markdown table separator row. Best effort only: a separator split across
// token boundaries escapes this check and is caught by
// StripTableSeparators over the full buffer.
func isSeparatorToken(token string) bool {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" || !strings.ContainsAny(trimmed, "-:") {
		return false
	}
	return separatorTokenPattern.MatchString(trimmed)
}

// StripTableSeparators removes the separator row of every markdown table in
// text. Only a second table line consisting solely of pipes, dashes, colons
// and whitespace is dropped; data rows are never touched.
func StripTableSeparators(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	var block []string

	flushBlock := func() {
		if len(block) > 1 && separatorLinePattern.MatchString(block[1]) {
			block = append(block[:1], block[2:]...)
		}
		cleaned = append(cleaned, block...)
		block = nil
	}

	for _, line := range lines {
		if strings.Contains(line, "|") || columnGapPattern.MatchString(line) {
			block = append(block, line)
			continue
		}
		if len(block) > 0 {
			flushBlock()
		}
		cleaned = append(cleaned, line)
	}
	if len(block) > 0 {
		flushBlock()
	}
	return strings.Join(cleaned, "\n")
}
