package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

// DiagramLang is the fence language routed to the diagram renderer instead
// of the highlighter.
const DiagramLang = "d2"

// headingPattern matches h1-h6 tags with an id attribute.
// Captures: 1=level, 2=id, 3=inner HTML (may contain inline tags)
var headingPattern = regexp.MustCompile(`(?is)<h([1-6])[^>]*\bid="([^"]*)"[^>]*>(.*?)</h[1-6]>`)

// codeHeaderPattern matches the code-block chrome header up to its language label.
var codeHeaderPattern = regexp.MustCompile(`<div class="mdr-code-header"><span class="mdr-code-lang">[^<]*</span>`)

// CodeBlock is one fenced block located in rendered HTML, addressed by its
// position so replacements splice back without re-parsing.
type CodeBlock struct {
	Index int
	Lang  string
	Code  string // source with HTML entities decoded

	start, end int // byte offsets of the matched <pre>...</pre> span
}

// scanBlocks locates all language-tagged code blocks in document order.
func scanBlocks(htmlContent string) []CodeBlock {
	matches := langCodeBlock.FindAllStringSubmatchIndex(htmlContent, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for i, m := range matches {
		blocks = append(blocks, CodeBlock{
			Index: i,
			Lang:  htmlContent[m[2]:m[3]],
			Code:  html.UnescapeString(htmlContent[m[4]:m[5]]),
			start: m[0],
			end:   m[1],
		})
	}
	return blocks
}

// FindCodeBlocks returns the blocks destined for the highlighter. Blocks
// already highlighted no longer match and are naturally skipped, so the scan
// is idempotent.
func FindCodeBlocks(htmlContent string) []CodeBlock {
	var out []CodeBlock
	for _, b := range scanBlocks(htmlContent) {
		if b.Lang != DiagramLang {
			out = append(out, b)
		}
	}
	return out
}

// FindDiagramBlocks returns the blocks destined for the diagram renderer.
func FindDiagramBlocks(htmlContent string) []CodeBlock {
	var out []CodeBlock
	for _, b := range scanBlocks(htmlContent) {
		if b.Lang == DiagramLang {
			out = append(out, b)
		}
	}
	return out
}

// ReplaceBlocks splices replacements into htmlContent by block index.
// Blocks without a replacement are left untouched. The blocks must come
// from a scan of this exact htmlContent value.
func ReplaceBlocks(htmlContent string, blocks []CodeBlock, replacements map[int]string) string {
	if len(replacements) == 0 {
		return htmlContent
	}

	ordered := make([]CodeBlock, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := replacements[b.Index]; ok {
			ordered = append(ordered, b)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start > ordered[j].start })

	for _, b := range ordered {
		htmlContent = htmlContent[:b.start] + replacements[b.Index] + htmlContent[b.end:]
	}
	return htmlContent
}

// DiagramFigure wraps rendered SVG for insertion in place of its source block.
func DiagramFigure(svg string) string {
	return `<figure class="mdr-diagram">` + svg + `</figure>`
}

// AddCopyAffordances inserts a copy button into each code-block header.
// Idempotent: headers that already carry a button are left alone.
func AddCopyAffordances(htmlContent string) string {
	const button = `<button class="mdr-copy" type="button" aria-label="Copy code">Copy</button>`

	locs := codeHeaderPattern.FindAllStringIndex(htmlContent, -1)
	if len(locs) == 0 {
		return htmlContent
	}

	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		b.WriteString(htmlContent[prev:loc[1]])
		if !strings.HasPrefix(htmlContent[loc[1]:], `<button class="mdr-copy"`) {
			b.WriteString(button)
		}
		prev = loc[1]
	}
	b.WriteString(htmlContent[prev:])
	return b.String()
}

// AddHeadingAnchors marks identified headings and appends a fragment link to
// each. Idempotent: headings already carrying an anchor are left alone.
func AddHeadingAnchors(htmlContent string) string {
	return headingPattern.ReplaceAllStringFunc(htmlContent, func(m string) string {
		if strings.Contains(m, "mdr-anchor") {
			return m
		}
		sub := headingPattern.FindStringSubmatch(m)
		if sub == nil || sub[2] == "" {
			return m
		}
		level, id, inner := sub[1], sub[2], sub[3]
		return fmt.Sprintf(
			`<h%s id="%s" class="mdr-heading">%s<a class="mdr-anchor" href="#%s" aria-hidden="true">#</a></h%s>`,
			level, id, inner, id, level)
	})
}
