package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/alnah/go-mdrender/internal/assets"
	"github.com/alnah/go-mdrender/internal/config"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Themes   themesInfo `json:"themes"`
	Cache    cacheInfo  `json:"cache"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// themesInfo holds theme availability results.
type themesInfo struct {
	Builtin   []string `json:"builtin"`
	Default   string   `json:"default"`
	AssetPath string   `json:"asset_path,omitempty"`
	Custom    []string `json:"custom,omitempty"`
}

// cacheInfo holds cache backend reachability results.
type cacheInfo struct {
	Backend   string `json:"backend"`
	Reachable bool   `json:"reachable"`
	Detail    string `json:"detail,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor()

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor() *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	envCfg := loadEnvConfig()

	checkThemes(result, envCfg)
	checkCache(result, envCfg)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkThemes verifies that every built-in theme stylesheet loads, and
// inspects the custom asset path when one is configured.
func checkThemes(result *doctorResult, envCfg *envConfig) {
	names := assets.ThemeNames()
	sort.Strings(names)
	result.Themes.Builtin = names
	result.Themes.Default = assets.DefaultThemeName

	for _, name := range names {
		if _, err := assets.LoadTheme(name); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Built-in theme %q does not load: %v", name, err))
		}
	}

	if envCfg.AssetPath == "" {
		return
	}
	result.Themes.AssetPath = envCfg.AssetPath

	if _, err := assets.NewAssetResolver(envCfg.AssetPath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Asset path not usable: %v", err))
		return
	}
	custom, err := listCustomThemes(envCfg.AssetPath)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Cannot list custom themes: %v", err))
		return
	}
	result.Themes.Custom = custom
}

// checkCache opens the configured cache backend once to prove it is
// reachable, then closes it again. No backend configured is fine; a
// configured backend that does not open is an error, matching the render
// command's behavior.
func checkCache(result *doctorResult, envCfg *envConfig) {
	cfg := &config.Config{}
	if envCfg.ConfigPath != "" {
		loaded, err := config.LoadConfig(envCfg.ConfigPath)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Config %s does not load: %v", envCfg.ConfigPath, err))
			return
		}
		cfg = loaded
	}
	applyEnvConfig(envCfg, cfg)

	backend := strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if backend == "" {
		result.Cache.Backend = "none"
		result.Cache.Detail = "rendering works without a cache"
		return
	}
	result.Cache.Backend = backend

	store, err := openCache(cfg, &renderFlags{})
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Cache backend %q not reachable: %v", backend, err))
		return
	}
	if store != nil {
		_ = store.Close()
		result.Cache.Reachable = true
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer()

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("MDRENDER_CONTAINER") == "1" {
		return true, "MDRENDER_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	// Check temp directory is writable
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "mdrender-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdrender doctor")
	fmt.Fprintln(w)

	// Themes section
	fmt.Fprintln(w, "Themes")
	fmt.Fprintf(w, "  [OK] Built-in: %s\n", strings.Join(r.Themes.Builtin, ", "))
	fmt.Fprintf(w, "  [OK] Default: %s\n", r.Themes.Default)
	if r.Themes.AssetPath != "" {
		if len(r.Themes.Custom) > 0 {
			fmt.Fprintf(w, "  [OK] Custom (%s): %s\n", r.Themes.AssetPath, strings.Join(r.Themes.Custom, ", "))
		} else {
			fmt.Fprintf(w, "  [OK] Custom (%s): none found\n", r.Themes.AssetPath)
		}
	}
	fmt.Fprintln(w)

	// Cache section
	fmt.Fprintln(w, "Cache")
	switch {
	case r.Cache.Backend == "none":
		fmt.Fprintf(w, "  [OK] Backend: none (%s)\n", r.Cache.Detail)
	case r.Cache.Reachable:
		fmt.Fprintf(w, "  [OK] Backend: %s (reachable)\n", r.Cache.Backend)
	default:
		fmt.Fprintf(w, "  [ERROR] Backend: %s (not reachable)\n", r.Cache.Backend)
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
