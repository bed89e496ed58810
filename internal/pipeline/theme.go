package pipeline

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// documentShell wraps fragment output in a complete HTML5 document.
// The theme name becomes a class on <body> so stylesheets can scope rules.
const documentShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body class="mdr-theme-%s">
<main class="mdr-document">
%s
</main>
</body>
</html>`

// themeNamePattern restricts theme names to characters safe inside a class
// attribute.
var themeNamePattern = regexp.MustCompile(`[^a-z0-9-]+`)

// themeClassPattern locates the theme class applied by the document shell.
var themeClassPattern = regexp.MustCompile(`(<body[^>]*class=")mdr-theme-[a-z0-9-]*`)

// BuildDocument wraps rendered body HTML in the document shell for the given
// theme. The title is escaped; the body is expected to be sanitized already.
func BuildDocument(title, theme, bodyHTML string) string {
	if title == "" {
		title = "Document"
	}
	return fmt.Sprintf(documentShell, html.EscapeString(title), ThemeClass(theme), bodyHTML)
}

// ThemeClass normalizes a theme name for use in the shell's body class.
func ThemeClass(theme string) string {
	theme = themeNamePattern.ReplaceAllString(strings.ToLower(theme), "")
	if theme == "" {
		theme = "default"
	}
	return theme
}

// RetargetTheme swaps the shell's theme class in place so a document can be
// re-themed without a full re-render. Content without a shell is returned
// unchanged.
func RetargetTheme(htmlContent, theme string) string {
	return themeClassPattern.ReplaceAllString(htmlContent, "${1}mdr-theme-"+ThemeClass(theme))
}

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	// Check for cancellation
	if ctx.Err() != nil {
		return htmlContent
	}

	sanitizedCSS := sanitizeCSS(cssContent)
	styleBlock := "<style>" + sanitizedCSS + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	// Try inserting before </head>
	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	// Try inserting after <body>
	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		// Find the closing > of <body...>
		closeIdx := strings.Index(htmlContent[idx:], ">")
		if closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	// Fallback: prepend
	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
