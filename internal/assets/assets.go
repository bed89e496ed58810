// Package assets provides theme stylesheets and HTML fragment templates for
// rendered documents. Assets can be loaded from embedded files or custom
// filesystem paths.
package assets

import (
	"fmt"
	"strings"
)

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "github"

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadTheme loads a theme stylesheet by name using the default embedded loader.
// The name should not include the .css extension or path components.
// Returns ErrThemeNotFound if the theme does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadTheme(name string) (string, error) {
	return defaultLoader.LoadTheme(name)
}

// LoadTemplate loads an HTML template by name using the default embedded loader.
// Returns ErrTemplateNotFound if the template does not exist.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// ThemeNames lists the built-in theme names.
func ThemeNames() []string {
	return defaultLoader.ThemeNames()
}

// MustTemplate returns an embedded template as a trimmed format string.
// Panics when the template is absent, which only happens if the embedded
// tree itself is broken.
func MustTemplate(name string) string {
	content, err := LoadTemplate(name)
	if err != nil {
		panic(fmt.Sprintf("assets: embedded template %q: %v", name, err))
	}
	return strings.TrimSpace(content)
}
