package section

import "fmt"

// Section is a contiguous slice of a document bounded at structural markers.
// The ordered sequence produced by Split or Chunk is read-only after creation;
// concatenating Text fields in order reproduces the source exactly.
type Section struct {
	ID        string
	Heading   string // heading text without markers, "" when absent
	Level     int    // 1-6, 0 when the section has no heading
	StartLine int    // 1-based, inclusive
	EndLine   int    // 1-based, inclusive
	Text      string // raw slice of the source, line endings preserved
}

// sectionID returns the stable generation-order id for index i.
// Ids are unique within one split, not across documents.
func sectionID(i int) string {
	return fmt.Sprintf("section-%d", i)
}

// chunkID returns the id for size-based chunks, kept distinct from
// structural section ids so mixed pipelines stay debuggable.
func chunkID(i int) string {
	return fmt.Sprintf("chunk-%d", i)
}
