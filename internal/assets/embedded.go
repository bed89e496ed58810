package assets

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed themes/*
var themes embed.FS

//go:embed templates/*
var templates embed.FS

// EmbeddedLoader loads assets from the embedded filesystem.
// Implements AssetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTheme loads a theme stylesheet from embedded assets by name.
// The name should not include the .css extension.
func (e *EmbeddedLoader) LoadTheme(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := themes.ReadFile("themes/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}

	return string(content), nil
}

// LoadTemplate loads an HTML template from embedded assets by name.
// The name should not include the .html extension.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	return string(content), nil
}

// ThemeNames lists the embedded theme names, without extensions.
func (e *EmbeddedLoader) ThemeNames() []string {
	entries, err := themes.ReadDir("themes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".css"))
	}
	return names
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
