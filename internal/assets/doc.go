// Package assets provides theme stylesheets and HTML fragment templates.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in themes)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides built-in themes (github, github-dark, dracula) and
// the fragment templates embedded at compile time.
//
// FilesystemLoader allows users to provide custom assets from a directory,
// with path traversal protection and symlink resolution.
//
// AssetResolver is the primary loader used by hosts. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is
// not found. This enables overriding specific assets while keeping defaults.
//
// # Directory Structure
//
// Assets are organized by type:
//
//	{basePath}/
//	├── themes/
//	│   └── {name}.css           # Theme stylesheets (e.g., dracula.css)
//	└── templates/
//	    └── {name}.html          # Fragment templates (placeholder, error)
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
