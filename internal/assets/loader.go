package assets

import (
	"fmt"
	"strings"
)

// AssetLoader defines the contract for loading theme stylesheets and HTML
// templates. Implementations may load from embedded assets, filesystem, S3,
// database, etc.
type AssetLoader interface {
	// LoadTheme loads a theme stylesheet by name (without .css extension).
	// Returns ErrThemeNotFound if the theme doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTheme(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)
}

// ValidateAssetName rejects names that could escape the asset tree or swap
// the file extension. Legitimate theme and template names are bare
// identifiers like "github-dark"; separators and dots have no business in
// them.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
