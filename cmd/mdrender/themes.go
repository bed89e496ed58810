package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alnah/go-mdrender/internal/assets"
)

// runThemesCommand lists the themes a render can reference by name.
// Built-in themes always appear; custom themes are discovered under
// {asset-path}/themes when an asset path is configured.
func runThemesCommand(args []string, env *Environment) int {
	fs := pflag.NewFlagSet("themes", pflag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	assetPath := fs.String("asset-path", "", "directory searched for custom theme assets")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	customPath := *assetPath
	if customPath == "" {
		customPath = loadEnvConfig().AssetPath
	}

	builtin := assets.ThemeNames()
	sort.Strings(builtin)

	fmt.Fprintln(env.Stdout, "Built-in themes:")
	for _, name := range builtin {
		if name == assets.DefaultThemeName {
			fmt.Fprintf(env.Stdout, "  %s (default)\n", name)
			continue
		}
		fmt.Fprintf(env.Stdout, "  %s\n", name)
	}

	if customPath == "" {
		return ExitSuccess
	}

	custom, err := listCustomThemes(customPath)
	if err != nil {
		fmt.Fprintf(env.Stderr, "warning: cannot read custom themes: %v\n", err)
		return ExitSuccess
	}
	if len(custom) == 0 {
		return ExitSuccess
	}

	fmt.Fprintf(env.Stdout, "\nCustom themes (%s):\n", customPath)
	for _, name := range custom {
		fmt.Fprintf(env.Stdout, "  %s\n", name)
	}
	return ExitSuccess
}

// listCustomThemes returns the theme names found under {basePath}/themes,
// matching the lookup convention of the filesystem asset loader.
func listCustomThemes(basePath string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(basePath, "themes"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".css") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".css"))
	}
	sort.Strings(names)
	return names, nil
}
