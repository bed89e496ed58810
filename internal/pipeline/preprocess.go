package pipeline

import (
	"regexp"
	"strings"

	"github.com/alnah/go-mdrender/internal/section"
)

// Highlight placeholders use Unicode Private Use Area characters.
// These are guaranteed to not conflict with any standard characters
// and will pass through Goldmark unchanged (no WithUnsafe needed).
// Post-processing converts these to <mark> tags after HTML generation.
const (
	markStartPlaceholder = "" // U+E000: Private Use Area start
	markEndPlaceholder   = "" // U+E001: Private Use Area end
)

var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)

	// Highlight syntax ==text==
	highlightPattern = regexp.MustCompile(`==(.*?)==`)
)

// preprocessMarkdown applies source transformations before conversion.
func preprocessMarkdown(content string) string {
	content = normalizeLineEndings(content)
	content = convertHighlights(content)
	content = compressBlankLines(content)
	return content
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to 2 maximum.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// convertHighlights transforms ==text== to placeholder markers, skipping
// lines inside fenced code regions so highlight syntax in code samples
// survives verbatim. The placeholders become <mark> tags after conversion.
func convertHighlights(content string) string {
	lines := strings.Split(content, "\n")

	var (
		inFence   bool
		fenceChar byte
		fenceLen  int
	)
	for i, line := range lines {
		if inFence {
			if ch, length, rest := section.FenceMarker(line); ch == fenceChar &&
				length >= fenceLen && strings.TrimSpace(rest) == "" {
				inFence = false
			}
			continue
		}
		if ch, length, _ := section.FenceMarker(line); ch != 0 {
			inFence = true
			fenceChar = ch
			fenceLen = length
			continue
		}
		lines[i] = highlightPattern.ReplaceAllString(line, markStartPlaceholder+"$1"+markEndPlaceholder)
	}
	return strings.Join(lines, "\n")
}

// finalizeMarks converts placeholder markers to <mark> tags after conversion.
func finalizeMarks(htmlContent string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(htmlContent, markStartPlaceholder, "<mark>"),
		markEndPlaceholder, "</mark>",
	)
}
