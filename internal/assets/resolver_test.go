package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty base path uses embedded only", func(t *testing.T) {
		t.Parallel()
		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("HasCustomLoader() = true, want false")
		}
	})

	t.Run("valid base path enables custom loader", func(t *testing.T) {
		t.Parallel()
		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !resolver.HasCustomLoader() {
			t.Error("HasCustomLoader() = false, want true")
		}
	})

	t.Run("invalid base path returns error", func(t *testing.T) {
		t.Parallel()
		if _, err := NewAssetResolver("/nonexistent/asset/dir"); !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_LoadTheme(t *testing.T) {
	t.Parallel()

	t.Run("embedded only serves built-in themes", func(t *testing.T) {
		t.Parallel()
		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatal(err)
		}
		content, err := resolver.LoadTheme("github")
		if err != nil {
			t.Fatalf("LoadTheme() error = %v", err)
		}
		if !strings.Contains(content, "body.mdr-theme-github") {
			t.Error("embedded github theme missing body class rule")
		}
	})

	t.Run("custom theme shadows embedded", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeAsset(t, dir, "themes/github.css", "/* custom override */")

		resolver, err := NewAssetResolver(dir)
		if err != nil {
			t.Fatal(err)
		}
		content, err := resolver.LoadTheme("github")
		if err != nil {
			t.Fatalf("LoadTheme() error = %v", err)
		}
		if content != "/* custom override */" {
			t.Errorf("LoadTheme() = %q, want custom override", content)
		}
	})

	t.Run("missing custom theme falls back to embedded", func(t *testing.T) {
		t.Parallel()
		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		content, err := resolver.LoadTheme("dracula")
		if err != nil {
			t.Fatalf("LoadTheme() error = %v", err)
		}
		if !strings.Contains(content, "body.mdr-theme-dracula") {
			t.Error("fallback did not reach embedded dracula theme")
		}
	})

	t.Run("theme absent everywhere returns ErrThemeNotFound", func(t *testing.T) {
		t.Parallel()
		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := resolver.LoadTheme("nowhere"); !errors.Is(err, ErrThemeNotFound) {
			t.Errorf("error = %v, want ErrThemeNotFound", err)
		}
	})

	t.Run("invalid name does not fall back", func(t *testing.T) {
		t.Parallel()
		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := resolver.LoadTheme("../github"); !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("error = %v, want ErrInvalidAssetName", err)
		}
	})
}

func TestAssetResolver_LoadTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "templates/error.html", `<p class="custom-error">%s</p>`)

	resolver, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatal(err)
	}

	content, err := resolver.LoadTemplate("error")
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if content != `<p class="custom-error">%s</p>` {
		t.Errorf("LoadTemplate() = %q, want custom override", content)
	}

	// Placeholder is not overridden, so it resolves from the embedded tree.
	content, err = resolver.LoadTemplate("placeholder")
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if !strings.Contains(content, "mdr-placeholder") {
		t.Error("fallback did not reach embedded placeholder template")
	}
}
