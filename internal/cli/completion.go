package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/nightrate/internal/listing"
)

// FlagCompletion describes a flag for shell completion scripts.
type FlagCompletion struct {
	Long      string   // long name without "--"
	Short     string   // short name without "-"
	Help      string   // description
	Values    []string // suggested values; nil for booleans and free text
	ValueName string   // value label for zsh
	IsFile    bool     // completes file paths
	IsAttr    bool     // completes listing attribute names
}

// flagRegistry lists every flag the completion scripts know about.
var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "endpoint", Help: "Prediction service URL", ValueName: "url"},
	{Long: "timeout", Help: "Maximum time for one valuation", Values: []string{"5s", "10s", "30s", "1m"}, ValueName: "duration"},
	{Long: "encoding", Help: "Prediction wire format", Values: []string{"json", "form"}, ValueName: "format"},
	{Long: "retries", Help: "Retries after a network or server failure", Values: []string{"0", "1", "2", "3"}, ValueName: "count"},
	{Long: "backoff", Help: "Delay before the first retry", Values: []string{"100ms", "200ms", "500ms", "1s"}, ValueName: "duration"},
	{Long: "input", Short: "i", Help: "JSON listing file", IsFile: true, ValueName: "file"},
	{Long: "attr", Help: "Listing attribute name=value", IsAttr: true, ValueName: "attribute"},
	{Long: "tui", Help: "Interactive terminal interface"},
	{Long: "gateway", Help: "Run the HTTP gateway"},
	{Long: "listen", Help: "Gateway listen address", ValueName: "address"},
	{Long: "upstream", Help: "Prediction server behind the gateway", ValueName: "url"},
	{Long: "locale", Help: "Locale for the price", Values: []string{"en-IN", "en-US", "en-GB", "fr-FR", "de-DE"}, ValueName: "locale"},
	{Long: "currency", Help: "Currency symbol", ValueName: "symbol"},
	{Long: "quiet", Short: "q", Help: "Print only the price"},
	{Long: "verbose", Short: "v", Help: "Print request details"},
	{Long: "no-color", Help: "Disable coloured output"},
	{Long: "metrics-file", Help: "Write valuation metrics on exit", ValueName: "file", IsFile: true},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level"},
	{Long: "env-file", Help: "Environment file", IsFile: true, ValueName: "file"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish"}, ValueName: "shell"},
}

// attrSuggestions returns "name=" for every listing field.
func attrSuggestions() []string {
	out := make([]string, len(listing.Fields))
	for i, f := range listing.Fields {
		out[i] = f.Name + "="
	}
	return out
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh" or
// "fish").
func GenerateCompletion(out io.Writer, shell string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion()
	case "zsh":
		script = zshCompletion()
	case "fish":
		script = fishCompletion()
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

func bashCompletion() string {
	var opts []string
	var cases strings.Builder
	var files []string
	for _, f := range flagRegistry {
		opts = append(opts, "--"+f.Long)
		if f.Short != "" {
			opts = append(opts, "-"+f.Short)
		}
		switch {
		case f.IsFile:
			files = append(files, "--"+f.Long)
			if f.Short != "" {
				files = append(files, "-"+f.Short)
			}
		case f.IsAttr:
			fmt.Fprintf(&cases, "        --%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            compopt -o nospace\n            return 0\n            ;;\n",
				f.Long, strings.Join(attrSuggestions(), " "))
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        --%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				f.Long, strings.Join(f.Values, " "))
		}
	}
	if len(files) > 0 {
		fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
			strings.Join(files, "|"))
	}

	return fmt.Sprintf(`# Bash completion script for nightrate
# Add this to your ~/.bashrc or ~/.bash_completion

_nightrate_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _nightrate_completions nightrate
`, strings.Join(opts, " "), cases.String())
}

func zshCompletion() string {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}
	return fmt.Sprintf(`#compdef nightrate

# Zsh completion script for nightrate
# Add this to your ~/.zshrc or place in $fpath

_nightrate() {
    _arguments -s \
%s
}

_nightrate "$@"
`, strings.Join(args, " \\\n"))
}

// zshArgEntry formats f as an _arguments spec.
func zshArgEntry(f FlagCompletion) string {
	suffix := ""
	switch {
	case f.IsFile:
		suffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case f.IsAttr:
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(attrSuggestions(), " "))
	case len(f.Values) > 0:
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	case f.ValueName != "":
		suffix = fmt.Sprintf(":%s:", f.ValueName)
	}
	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, f.Help, suffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix)
}

func fishCompletion() string {
	lines := []string{
		"# Fish completion script for nightrate",
		"# Add this to ~/.config/fish/completions/nightrate.fish",
		"",
		"complete -c nightrate -f",
	}
	for _, f := range flagRegistry {
		parts := []string{"complete -c nightrate"}
		if f.Short != "" {
			parts = append(parts, "-s "+f.Short)
		}
		parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))
		switch {
		case f.IsFile:
			parts = append(parts, "-rF")
		case f.IsAttr:
			parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(attrSuggestions(), " ")))
		case len(f.Values) > 0:
			parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
		case f.ValueName != "":
			parts = append(parts, "-x")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n") + "\n"
}
