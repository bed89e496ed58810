// Package yamlutil wraps YAML decoding behind a narrow seam so the parser
// dependency can change without touching the frontmatter and config callers.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize bounds decoded YAML input (default 1MB). Frontmatter blocks
// and config files are small; anything larger is corrupt or hostile.
var MaxInputSize = 1 << 20

var (
	ErrEmptyInput     = errors.New("yamlutil: empty input")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// Unmarshal decodes data into v, tolerating unknown fields. Frontmatter uses
// this form: documents authored for other tools carry keys we do not know.
func Unmarshal(data []byte, v any) error {
	return decode(data, v)
}

// UnmarshalStrict decodes data into v, rejecting unknown fields. Config files
// use this form so a typoed key surfaces instead of being silently ignored.
func UnmarshalStrict(data []byte, v any) error {
	return decode(data, v, yaml.Strict())
}

func decode(data []byte, v any, opts ...yaml.DecodeOption) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}
