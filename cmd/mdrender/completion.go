package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdrender/internal/assets"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagFloat
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool     // accepts file arguments
	FilePattern string   // glob for file arguments (e.g., "*.md")
	ArgValues   []string // fixed positional values (e.g., shell names)
}

// completionMeta holds completion-specific metadata for flags.
// This is the ONLY place where completion hints are defined.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"cache": {Values: []string{"memory", "sqlite", "redis", "nats"}},
	"theme": {Values: assets.ThemeNames()},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},

	// Directory flags
	"output":     {IsDir: true},
	"asset-path": {IsDir: true},
}

// buildRenderFlagSet creates a FlagSet with all render command flags.
// This reuses the same flag registration as parseRenderFlags.
func buildRenderFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	f := &renderFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel renderers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-render timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.progress, "progress", false, "print render progress to stderr")

	// Flag groups - same as parseRenderFlags
	addCommonFlags(fs, &f.common)
	addThemeFlags(fs, &f.theme)
	addDocumentFlags(fs, &f.document)
	addCacheFlags(fs, &f.cache)
	addPipelineFlags(fs, &f.pipeline)
	addWatchFlags(fs, &f.watch)

	return fs
}

// buildThemesFlagSet creates a FlagSet with the themes command flags.
func buildThemesFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("themes", flag.ContinueOnError)
	fs.String("asset-path", "", "directory searched for custom theme assets")
	return fs
}

// buildDoctorFlagSet creates a FlagSet with the doctor command flags.
func buildDoctorFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.Bool("json", false, "machine readable output")
	return fs
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		// Determine base type from pflag type
		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		case "float32", "float64":
			fd.Type = flagFloat
		default:
			fd.Type = flagString
		}

		// Override type based on completion metadata
		if meta, ok := flagCompletionMeta[f.Name]; ok {
			if len(meta.Values) > 0 {
				fd.Type = flagEnum
				fd.Values = meta.Values
			} else if meta.FileGlob != "" {
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			} else if meta.IsDir {
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSet - single source of truth.
func getCommands() []commandDef {
	renderFlags := extractFlagsFromFlagSet(buildRenderFlagSet())

	return []commandDef{
		{
			Name:        "render",
			Desc:        "Render markdown files to HTML",
			Flags:       renderFlags,
			TakesFiles:  true,
			FilePattern: "*.md,*.markdown",
		},
		{
			Name:        "watch",
			Desc:        "Render, then re-render on file changes",
			Flags:       renderFlags,
			TakesFiles:  true,
			FilePattern: "*.md,*.markdown",
		},
		{
			Name:  "themes",
			Desc:  "List available themes",
			Flags: extractFlagsFromFlagSet(buildThemesFlagSet()),
		},
		{
			Name:  "doctor",
			Desc:  "Check the environment and configuration",
			Flags: extractFlagsFromFlagSet(buildDoctorFlagSet()),
		},
		{
			Name:      "completion",
			Desc:      "Generate shell completion script",
			ArgValues: []string{"bash", "zsh", "fish", "powershell"},
		},
		{
			Name: "version",
			Desc: "Show version information",
		},
		{
			Name:      "help",
			Desc:      "Show help for a command",
			ArgValues: []string{"render", "watch", "themes", "doctor", "completion", "version", "help"},
		},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	case ShellPowerShell:
		return generatePowerShell(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}

	shell := Shell(args[0])
	return GenerateCompletion(env.Stdout, shell)
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdrender completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(mdrender completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(mdrender completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    mdrender completion fish > ~/.config/fish/completions/mdrender.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    mdrender completion powershell | Out-String | Invoke-Expression")
}

// globExtensions converts "*.md,*.markdown" into ["md", "markdown"].
func globExtensions(glob string) []string {
	parts := strings.Split(glob, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		exts = append(exts, strings.TrimPrefix(strings.TrimSpace(p), "*."))
	}
	return exts
}

// flagPattern renders a case pattern like "-o|--output" for a flag.
func flagPattern(fd flagDef) string {
	if fd.Short != "" {
		return "-" + fd.Short + "|--" + fd.Long
	}
	return "--" + fd.Long
}

// flagWords lists every spelling of a command's flags for word completion.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, fd := range flags {
		words = append(words, "--"+fd.Long)
		if fd.Short != "" {
			words = append(words, "-"+fd.Short)
		}
	}
	return words
}

// commandNameList returns the completion command names in display order.
func commandNameList(commands []commandDef) []string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Name)
	}
	return names
}

// generateBash writes a bash completion script.
func generateBash(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("# bash completion for mdrender\n")
	b.WriteString("_mdrender() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")

	fmt.Fprintf(&b, "    if [[ $COMP_CWORD -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(commandNameList(commands), " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")
	for _, cmd := range commands {
		if len(cmd.Flags) == 0 && !cmd.TakesFiles && len(cmd.ArgValues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "    %s)\n", cmd.Name)
		writeBashFlagArms(&b, cmd.Flags)

		if len(cmd.Flags) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(flagWords(cmd.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		switch {
		case cmd.TakesFiles:
			fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"$cur\") )\n", strings.Join(globExtensions(cmd.FilePattern), "|"))
			b.WriteString("        COMPREPLY+=( $(compgen -d -- \"$cur\") )\n")
		case len(cmd.ArgValues) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(cmd.ArgValues, " "))
		}
		b.WriteString("        ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _mdrender mdrender\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeBashFlagArms emits the "$prev" dispatch completing flag values.
func writeBashFlagArms(b *strings.Builder, flags []flagDef) {
	var dirPatterns, valuePatterns []string
	hasArms := false

	for _, fd := range flags {
		switch fd.Type {
		case flagEnum, flagFile:
			hasArms = true
		case flagDir:
			dirPatterns = append(dirPatterns, flagPattern(fd))
		case flagBool:
			// bool flags never consume the next word
		default:
			valuePatterns = append(valuePatterns, flagPattern(fd))
		}
	}
	if !hasArms && len(dirPatterns) == 0 && len(valuePatterns) == 0 {
		return
	}

	b.WriteString("        case \"$prev\" in\n")
	for _, fd := range flags {
		switch fd.Type {
		case flagEnum:
			fmt.Fprintf(b, "        %s)\n", flagPattern(fd))
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -W %q -- \"$cur\") )\n", strings.Join(fd.Values, " "))
			b.WriteString("            return ;;\n")
		case flagFile:
			fmt.Fprintf(b, "        %s)\n", flagPattern(fd))
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -f -X '!*.@(%s)' -- \"$cur\") )\n", strings.Join(globExtensions(fd.FileGlob), "|"))
			b.WriteString("            return ;;\n")
		}
	}
	if len(dirPatterns) > 0 {
		fmt.Fprintf(b, "        %s)\n", strings.Join(dirPatterns, "|"))
		b.WriteString("            COMPREPLY=( $(compgen -d -- \"$cur\") )\n")
		b.WriteString("            return ;;\n")
	}
	if len(valuePatterns) > 0 {
		fmt.Fprintf(b, "        %s)\n", strings.Join(valuePatterns, "|"))
		b.WriteString("            return ;;\n")
	}
	b.WriteString("        esac\n")
}

// generateZsh writes a zsh completion script.
func generateZsh(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("# zsh completion for mdrender\n")
	b.WriteString("_mdrender() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "        '%s:%s'\n", cmd.Name, cmd.Desc)
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe -t commands 'mdrender command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${words[2]}\" in\n")
	for _, cmd := range commands {
		if len(cmd.Flags) == 0 && !cmd.TakesFiles && len(cmd.ArgValues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "    %s)\n", cmd.Name)
		b.WriteString("        _arguments \\\n")
		var specs []string
		for _, fd := range cmd.Flags {
			specs = append(specs, zshFlagSpec(fd))
		}
		switch {
		case cmd.TakesFiles:
			specs = append(specs, fmt.Sprintf("'*:markdown file:_files -g \"*.(%s)\"'", strings.Join(globExtensions(cmd.FilePattern), "|")))
		case len(cmd.ArgValues) > 0:
			specs = append(specs, fmt.Sprintf("'2:argument:(%s)'", strings.Join(cmd.ArgValues, " ")))
		}
		for i, spec := range specs {
			if i < len(specs)-1 {
				fmt.Fprintf(&b, "            %s \\\n", spec)
			} else {
				fmt.Fprintf(&b, "            %s\n", spec)
			}
		}
		b.WriteString("        ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("if (( $+functions[compdef] )); then\n")
	b.WriteString("    compdef _mdrender mdrender\n")
	b.WriteString("fi\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshFlagSpec renders one _arguments optspec for a flag.
func zshFlagSpec(fd flagDef) string {
	var names string
	if fd.Short != "" {
		names = fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'", fd.Short, fd.Long, fd.Short, fd.Long)
	} else {
		names = fmt.Sprintf("'--%s", fd.Long)
	}

	switch fd.Type {
	case flagBool:
		return fmt.Sprintf("%s[%s]'", names, fd.Desc)
	case flagEnum:
		return fmt.Sprintf("%s=[%s]:%s:(%s)'", names, fd.Desc, fd.Long, strings.Join(fd.Values, " "))
	case flagFile:
		return fmt.Sprintf("%s=[%s]:file:_files -g \"*.(%s)\"'", names, fd.Desc, strings.Join(globExtensions(fd.FileGlob), "|"))
	case flagDir:
		return fmt.Sprintf("%s=[%s]:directory:_files -/'", names, fd.Desc)
	default:
		return fmt.Sprintf("%s=[%s]:%s:'", names, fd.Desc, fd.Long)
	}
}

// generateFish writes a fish completion script.
func generateFish(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("# fish completion for mdrender\n")
	b.WriteString("complete -c mdrender -e\n")
	b.WriteString("complete -c mdrender -f\n\n")

	for _, cmd := range commands {
		fmt.Fprintf(&b, "complete -c mdrender -n __fish_use_subcommand -a %s -d '%s'\n", cmd.Name, fishEscape(cmd.Desc))
	}
	b.WriteString("\n")

	for _, cmd := range commands {
		cond := fmt.Sprintf("__fish_seen_subcommand_from %s", cmd.Name)
		for _, fd := range cmd.Flags {
			fmt.Fprintf(&b, "complete -c mdrender -n '%s'", cond)
			fmt.Fprintf(&b, " -l %s", fd.Long)
			if fd.Short != "" {
				fmt.Fprintf(&b, " -s %s", fd.Short)
			}
			switch fd.Type {
			case flagBool:
				// no argument
			case flagEnum:
				fmt.Fprintf(&b, " -x -a '%s'", strings.Join(fd.Values, " "))
			case flagFile:
				fmt.Fprintf(&b, " -r -a '(%s)'", fishSuffixCompletions(fd.FileGlob))
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			default:
				b.WriteString(" -r")
			}
			fmt.Fprintf(&b, " -d '%s'\n", fishEscape(fd.Desc))
		}
		switch {
		case cmd.TakesFiles:
			fmt.Fprintf(&b, "complete -c mdrender -n '%s' -a '(%s)'\n", cond, fishSuffixCompletions(cmd.FilePattern))
		case len(cmd.ArgValues) > 0:
			fmt.Fprintf(&b, "complete -c mdrender -n '%s' -x -a '%s'\n", cond, strings.Join(cmd.ArgValues, " "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// fishSuffixCompletions builds a command substitution listing files matching
// every extension in the glob.
func fishSuffixCompletions(glob string) string {
	exts := globExtensions(glob)
	parts := make([]string, 0, len(exts))
	for _, ext := range exts {
		parts = append(parts, "__fish_complete_suffix ."+ext)
	}
	return strings.Join(parts, "; ")
}

// fishEscape escapes single quotes for fish's single-quoted strings.
func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// generatePowerShell writes a PowerShell completion script.
func generatePowerShell(w io.Writer) error {
	commands := getCommands()
	var b strings.Builder

	b.WriteString("# powershell completion for mdrender\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName mdrender -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $words = @($commandAst.CommandElements | ForEach-Object { $_.Extent.Text })\n")
	b.WriteString("    $command = ''\n")
	b.WriteString("    if ($words.Count -ge 2) { $command = $words[1] }\n\n")
	b.WriteString("    $completions = @()\n\n")

	fmt.Fprintf(&b, "    $allCommands = @(%s)\n", psStringList(commandNameList(commands)))
	b.WriteString("    if ($words.Count -le 2 -and -not ($allCommands -contains $command -and -not $wordToComplete.Equals($command))) {\n")
	b.WriteString("        $completions = $allCommands\n")
	b.WriteString("    }\n")
	b.WriteString("    else {\n")
	b.WriteString("        $prev = $words[$words.Count - 1]\n")
	b.WriteString("        if ($wordToComplete -and $words.Count -ge 2) { $prev = $words[$words.Count - 2] }\n\n")
	b.WriteString("        switch ($command) {\n")
	for _, cmd := range commands {
		if len(cmd.Flags) == 0 && len(cmd.ArgValues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "            '%s' {\n", cmd.Name)
		if enums := enumFlags(cmd.Flags); len(enums) > 0 {
			b.WriteString("                switch ($prev) {\n")
			for _, fd := range enums {
				fmt.Fprintf(&b, "                    '--%s' { $completions = @(%s); break }\n", fd.Long, psStringList(fd.Values))
				if fd.Short != "" {
					fmt.Fprintf(&b, "                    '-%s' { $completions = @(%s); break }\n", fd.Short, psStringList(fd.Values))
				}
			}
			b.WriteString("                }\n")
		}
		if len(cmd.Flags) > 0 {
			b.WriteString("                if ($completions.Count -eq 0 -and $wordToComplete -like '-*') {\n")
			fmt.Fprintf(&b, "                    $completions = @(%s)\n", psStringList(flagWords(cmd.Flags)))
			b.WriteString("                }\n")
		}
		if len(cmd.ArgValues) > 0 {
			b.WriteString("                if ($completions.Count -eq 0) {\n")
			fmt.Fprintf(&b, "                    $completions = @(%s)\n", psStringList(cmd.ArgValues))
			b.WriteString("                }\n")
		}
		b.WriteString("            }\n")
	}
	b.WriteString("        }\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $completions | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// enumFlags filters the flags that complete from a fixed value set.
func enumFlags(flags []flagDef) []flagDef {
	var enums []flagDef
	for _, fd := range flags {
		if fd.Type == flagEnum {
			enums = append(enums, fd)
		}
	}
	return enums
}

// psStringList renders values as a PowerShell list body: 'a', 'b', 'c'.
func psStringList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, "'"+v+"'")
	}
	return strings.Join(quoted, ", ")
}
