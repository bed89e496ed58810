package section

import "strings"

// Marker syntax bounds.
const (
	maxHeadingLevel = 6
	minFenceLength  = 3
	maxMarkerIndent = 3
)

// Split partitions text into ordered sections at heading boundaries.
// Heading markers inside an open fenced region are ordinary content. A
// document with no boundaries yields exactly one section holding the whole
// text. Deterministic and side-effect-free.
func Split(text string) []Section {
	lines := splitLines(text)
	if len(lines) == 0 {
		return []Section{{ID: sectionID(0), StartLine: 1, EndLine: 1}}
	}

	var (
		sections  []Section
		buf       strings.Builder
		startLine = 1
		heading   string
		level     int
		inFence   bool
		fenceChar byte
		fenceLen  int
	)

	flush := func(endLine int) {
		sections = append(sections, Section{
			ID:        sectionID(len(sections)),
			Heading:   heading,
			Level:     level,
			StartLine: startLine,
			EndLine:   endLine,
			Text:      buf.String(),
		})
		buf.Reset()
	}

	for i, line := range lines {
		lineNo := i + 1

		if inFence {
			// A close requires the same fence character and a run at least
			// as long as the opening run; anything else is content.
			if ch, length, rest := FenceMarker(line); ch == fenceChar &&
				length >= fenceLen && strings.TrimSpace(rest) == "" {
				inFence = false
			}
			buf.WriteString(line)
			continue
		}

		if ch, length, _ := FenceMarker(line); ch != 0 {
			inFence = true
			fenceChar = ch
			fenceLen = length
			buf.WriteString(line)
			continue
		}

		if lvl, text, ok := headingMarker(line); ok {
			if buf.Len() > 0 {
				flush(lineNo - 1)
			}
			heading = text
			level = lvl
			startLine = lineNo
			buf.WriteString(line)
			continue
		}

		buf.WriteString(line)
	}

	flush(len(lines))
	return sections
}

// splitLines cuts text at newlines, keeping each terminator with its line so
// that concatenating the result reproduces the input byte-for-byte.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := make([]string, 0, strings.Count(text, "\n")+1)
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// trimEOL strips the line terminator for marker analysis. The stored section
// text keeps the original bytes.
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// FenceMarker reports a fence run at the start of line: the fence character,
// run length, and the remainder after the run. Up to three leading spaces are
// allowed. Returns a zero character when the line is not a fence marker.
func FenceMarker(line string) (char byte, length int, rest string) {
	s := trimEOL(line)

	indent := 0
	for indent < len(s) && indent < maxMarkerIndent && s[indent] == ' ' {
		indent++
	}
	s = s[indent:]

	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0, ""
	}

	c := s[0]
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	if n < minFenceLength {
		return 0, 0, ""
	}
	return c, n, s[n:]
}

// headingMarker reports an ATX heading at the start of line: 1-6 marker
// characters followed by whitespace and non-empty text. Seven or more
// markers, or a marker run without text, is ordinary content.
func headingMarker(line string) (level int, text string, ok bool) {
	s := trimEOL(line)

	indent := 0
	for indent < len(s) && indent < maxMarkerIndent && s[indent] == ' ' {
		indent++
	}
	s = s[indent:]

	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n < 1 || n > maxHeadingLevel {
		return 0, "", false
	}

	rest := s[n:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return 0, "", false
	}

	text = strings.TrimSpace(rest)
	if text == "" {
		return 0, "", false
	}
	return n, stripClosingHashes(text), true
}

// stripClosingHashes removes an optional trailing marker run when preceded by
// whitespace, so "## Title ##" yields "Title" while "# C#" keeps its hash.
func stripClosingHashes(text string) string {
	i := len(text)
	for i > 0 && text[i-1] == '#' {
		i--
	}
	if i == len(text) || i == 0 {
		return text
	}
	if text[i-1] == ' ' || text[i-1] == '\t' {
		return strings.TrimRight(text[:i], " \t")
	}
	return text
}
