package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrSanitize indicates HTML sanitization failed.
var ErrSanitize = errors.New("sanitization failed")

// allowedAttrs maps each permitted element to its permitted attributes.
// Anything absent from this map is either dropped wholesale (see
// droppedElements) or unwrapped to its children.
var allowedAttrs = map[string]map[string]bool{
	"p":          nil,
	"br":         nil,
	"hr":         nil,
	"em":         nil,
	"strong":     nil,
	"del":        nil,
	"sup":        nil,
	"sub":        nil,
	"mark":       nil,
	"blockquote": nil,
	"ul":         nil,
	"ol":         {"start": true},
	"li":         {"class": true},
	"table":      nil,
	"thead":      nil,
	"tbody":      nil,
	"tr":         nil,
	"th":         {"align": true},
	"td":         {"align": true},
	"h1":         {"id": true, "class": true},
	"h2":         {"id": true, "class": true},
	"h3":         {"id": true, "class": true},
	"h4":         {"id": true, "class": true},
	"h5":         {"id": true, "class": true},
	"h6":         {"id": true, "class": true},
	"pre":        {"class": true},
	"code":       {"class": true},
	"div":        {"class": true},
	"span":       {"class": true},
	"figure":     {"class": true},
	"figcaption": nil,
	"a":          {"href": true, "title": true, "rel": true},
	"img":        {"src": true, "alt": true, "title": true, "loading": true, "width": true, "height": true},
	"input":      {"type": true, "checked": true, "disabled": true},
}

// droppedElements are removed together with their subtree; unwrapping their
// children would leak executable or invisible content.
var droppedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"noscript": true,
	"template": true,
	"form":     true,
	"link":     true,
	"meta":     true,
	"base":     true,
}

// WhitelistSanitizer strips everything outside a fixed element and attribute
// whitelist. It is the last gate before content reaches a container, so it
// never trusts its input regardless of source.
type WhitelistSanitizer struct{}

// NewWhitelistSanitizer creates a WhitelistSanitizer.
func NewWhitelistSanitizer() *WhitelistSanitizer {
	return &WhitelistSanitizer{}
}

// Sanitize filters htmlContent against the whitelist and re-renders it.
// Unknown harmless elements are unwrapped to their children; scriptable
// elements are dropped with their subtree; URL attributes outside the
// permitted schemes are removed.
func (s *WhitelistSanitizer) Sanitize(ctx context.Context, htmlContent string) (string, error) {
	// Fast path: check context before parsing
	if err := ctx.Err(); err != nil {
		return "", err
	}

	nodes, err := parseFragment(htmlContent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSanitize, err)
	}

	var buf strings.Builder
	for _, n := range nodes {
		for _, cleaned := range cleanNode(n) {
			if err := html.Render(&buf, cleaned); err != nil {
				return "", fmt.Errorf("%w: %v", ErrSanitize, err)
			}
		}
	}
	return buf.String(), nil
}

// parseFragment parses an HTML fragment in body context so the parser does
// not wrap it in html/head/body elements.
func parseFragment(content string) ([]*html.Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	return html.ParseFragment(strings.NewReader(content), body)
}

// cleanNode returns the sanitized replacement for one node: the node itself
// with filtered attributes and cleaned children, its cleaned children alone
// (unwrap), or nothing.
func cleanNode(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}

	case html.ElementNode:
		if droppedElements[n.Data] {
			return nil
		}
		if n.Data == "input" && !isCheckbox(n.Attr) {
			// Only task-list checkboxes survive; any other input is a live
			// form control.
			return nil
		}

		allowed, ok := allowedAttrs[n.Data]
		if !ok {
			// Unknown element: keep the content, lose the wrapper.
			return cleanChildren(n)
		}

		clean := &html.Node{
			Type:     html.ElementNode,
			DataAtom: n.DataAtom,
			Data:     n.Data,
			Attr:     filterAttrs(n.Attr, allowed),
		}
		for _, c := range cleanChildren(n) {
			clean.AppendChild(c)
		}
		return []*html.Node{clean}

	default:
		// Comments, doctypes and anything exotic carry no content worth keeping.
		return nil
	}
}

// cleanChildren sanitizes all children of n in document order.
func cleanChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, cleanNode(c)...)
	}
	return out
}

// filterAttrs keeps whitelisted attributes with acceptable values.
func filterAttrs(attrs []html.Attribute, allowed map[string]bool) []html.Attribute {
	var out []html.Attribute
	for _, a := range attrs {
		if a.Namespace != "" || !allowed[a.Key] {
			continue
		}
		if a.Key == "href" && !safeHref(a.Val) {
			continue
		}
		if a.Key == "src" && !safeSrc(a.Val) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// isCheckbox reports whether an input element declares type="checkbox".
func isCheckbox(attrs []html.Attribute) bool {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == "type" && strings.EqualFold(a.Val, "checkbox") {
			return true
		}
	}
	return false
}

// safeHref permits http(s), mailto, fragment, and relative destinations.
func safeHref(val string) bool {
	v := strings.TrimSpace(strings.ToLower(val))
	if strings.HasPrefix(v, "#") {
		return true
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "mailto:") {
		return true
	}
	// Reject every other explicit scheme (javascript:, data:, vbscript:, ...).
	return !strings.Contains(v, ":")
}

// safeSrc permits http(s) and relative sources, never data: or javascript:.
func safeSrc(val string) bool {
	v := strings.TrimSpace(strings.ToLower(val))
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return true
	}
	return !strings.Contains(v, ":")
}
