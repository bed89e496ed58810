package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-mdrender/internal/section"
	"github.com/alnah/go-mdrender/internal/yamlutil"
)

// ErrFrontmatter indicates a leading YAML block that could not be parsed.
var ErrFrontmatter = errors.New("failed to parse frontmatter")

// Frontmatter carries document-level overrides from a leading YAML block.
// Unknown fields are ignored so documents authored for other tools still
// render.
type Frontmatter struct {
	Title string `yaml:"title"`
	Theme string `yaml:"theme"`
}

// SplitFrontmatter separates a leading `---` delimited YAML block from the
// document body. Documents without an opening delimiter, or without a
// closing one, pass through unchanged with a nil Frontmatter. A block that
// looks like frontmatter but fails to parse returns the full content and
// ErrFrontmatter so the caller can warn and render it as-is.
func SplitFrontmatter(content string) (*Frontmatter, string, error) {
	nl := "\n"
	switch {
	case strings.HasPrefix(content, "---\r\n"):
		nl = "\r\n"
	case strings.HasPrefix(content, "---\n"):
	default:
		return nil, content, nil
	}

	raw := content[len("---")+len(nl):]

	// Empty block: the closing delimiter immediately follows the opener.
	if strings.HasPrefix(raw, "---"+nl) {
		return &Frontmatter{}, raw[len("---")+len(nl):], nil
	}

	closeSeq := nl + "---" + nl
	idx := strings.Index(raw, closeSeq)
	if idx < 0 {
		// No closing delimiter: the opener was a thematic break.
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yamlutil.Unmarshal([]byte(raw[:idx+len(nl)]), &fm); err != nil {
		return nil, content, fmt.Errorf("%w: %v", ErrFrontmatter, err)
	}
	return &fm, raw[idx+len(closeSeq):], nil
}

// atxTitlePattern captures an ATX h1 line, tolerating a closing hash run.
var atxTitlePattern = regexp.MustCompile(`^#\s+(.*?)(?:\s+#+)?\s*$`)

// DocumentTitle returns the text of the first top-level heading outside code
// fences, or "" when the document has none.
func DocumentTitle(markdown string) string {
	var (
		inFence   bool
		fenceChar byte
		fenceLen  int
	)
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSuffix(line, "\r")
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
		if m := atxTitlePattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}
