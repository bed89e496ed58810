package section

// DefaultChunkSize bounds the per-hydration-step cost for documents with no
// structural boundaries.
const DefaultChunkSize = 32 * 1024

// Chunk partitions text into sections of at most maxBytes each, cutting only
// at line boundaries. A single line longer than maxBytes becomes its own
// section rather than being split mid-line. Concatenating the section texts
// in order reproduces the input exactly. Non-positive maxBytes uses
// DefaultChunkSize.
func Chunk(text string, maxBytes int) []Section {
	if maxBytes <= 0 {
		maxBytes = DefaultChunkSize
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return []Section{{ID: chunkID(0), StartLine: 1, EndLine: 1}}
	}

	var (
		sections  []Section
		size      int
		start     int // index into lines
		startLine = 1
	)

	flush := func(end int) {
		var b []byte
		for _, line := range lines[start:end] {
			b = append(b, line...)
		}
		sections = append(sections, Section{
			ID:        chunkID(len(sections)),
			StartLine: startLine,
			EndLine:   end,
			Text:      string(b),
		})
		start = end
		startLine = end + 1
		size = 0
	}

	for i, line := range lines {
		if size > 0 && size+len(line) > maxBytes {
			flush(i)
		}
		size += len(line)
	}
	flush(len(lines))

	return sections
}
