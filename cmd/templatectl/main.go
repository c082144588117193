package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/filters"
	"github.com/aescanero/dago-node-template/internal/eval/script"
	"github.com/aescanero/dago-node-template/internal/eval/template"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	dir            string
	jsonOutput     bool
	lenient        bool
	maxDepth       int
	maxInclusions  int
	maxIterations  int
	scriptLanguage string
	noScripts      bool
	logLevel       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "templatectl",
		Short: "Render, validate and inspect templates",
		Long: `templatectl expands templates from a directory catalog.

Templates are .md, .tmpl or .txt files; a template's id is its path
relative to the catalog directory without the extension.

Examples:
  # Render a catalog template with variables from a YAML file
  templatectl render daily-note --vars vars.yaml

  # Render inline content
  templatectl render -c 'Hello {{name | upper}}' --set name=ada

  # Check a template without rendering it
  templatectl validate daily-note`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.dir, "dir", "d", ".", "Template catalog directory")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output command results in JSON format")
	flags.BoolVar(&opts.lenient, "lenient", false, "Leave failed directives in the output instead of failing")
	flags.IntVar(&opts.maxDepth, "max-depth", template.DefaultMaxDepth, "Maximum include nesting depth")
	flags.IntVar(&opts.maxInclusions, "max-inclusions", template.DefaultMaxInclusions, "Maximum includes per render")
	flags.IntVar(&opts.maxIterations, "max-iterations", template.DefaultMaxIterations, "Maximum placeholder resolution passes")
	flags.StringVar(&opts.scriptLanguage, "script-language", script.LanguageStarlark, "Script block language: starlark, cel or expr")
	flags.BoolVar(&opts.noScripts, "no-scripts", false, "Disable script blocks")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newRenderCmd(opts),
		newValidateCmd(opts),
		newAnalyzeCmd(opts),
		newFiltersCmd(opts),
		newListCmd(opts),
	)
	return cmd
}

// newLogger builds a console logger writing to stderr
func (o *rootOptions) newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(o.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	return config.Build()
}

// newEngine builds an engine over the directory catalog
func (o *rootOptions) newEngine(logger *zap.Logger) (*template.Engine, *catalog.File, error) {
	templates := catalog.NewFile(o.dir)

	engineOpts := []template.Option{
		template.WithOptions(template.Options{
			MaxDepth:      o.maxDepth,
			MaxInclusions: o.maxInclusions,
			MaxIterations: o.maxIterations,
			StrictMode:    !o.lenient,
		}),
		template.WithCatalog(templates),
		template.WithLogger(logger),
	}

	if !o.noScripts {
		sandbox, err := script.New(script.Options{Language: o.scriptLanguage, Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize scripts: %w", err)
		}
		engineOpts = append(engineOpts, template.WithScriptEvaluator(sandbox))
	}

	return template.New(engineOpts...), templates, nil
}

// sourceFlags select the template a command works on
type sourceFlags struct {
	content string
	file    string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.content, "content", "c", "", "Inline template content")
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "Read template content from a file (- for stdin)")
}

// resolve returns the template id or inline content selected by args and flags
func (s *sourceFlags) resolve(cmd *cobra.Command, args []string) (string, string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, s.content != "", s.file != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return "", "", fmt.Errorf("exactly one of a template id, --content or --file is required")
	}

	switch {
	case len(args) > 0:
		return args[0], "", nil
	case s.content != "":
		return "", s.content, nil
	}

	var (
		data []byte
		err  error
	)
	if s.file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(s.file)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", s.file, err)
	}
	return "", string(data), nil
}

// readContent returns the text of a template id or inline source
func readContent(cmd *cobra.Command, templates catalog.Reader, id, content string) (string, error) {
	if id == "" {
		return content, nil
	}
	tpl, err := templates.Read(cmd.Context(), id)
	if err != nil {
		return "", fmt.Errorf("failed to read template %q: %w", id, err)
	}
	return tpl.Content, nil
}

// loadVariables reads a YAML or JSON variables file and applies key=value overrides.
// Dotted keys create nested maps.
func loadVariables(path string, sets []string) (map[string]interface{}, error) {
	vars := make(map[string]interface{})

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read variables file: %w", err)
		}
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("failed to parse variables file %s: %w", path, err)
		}
		if vars == nil {
			vars = make(map[string]interface{})
		}
	}

	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", set)
		}
		if err := setPath(vars, strings.Split(key, "."), filters.ParseLiteral(value)); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", set, err)
		}
	}

	return vars, nil
}

func setPath(vars map[string]interface{}, path []string, value interface{}) error {
	for _, key := range path[:len(path)-1] {
		next, ok := vars[key]
		if !ok {
			child := make(map[string]interface{})
			vars[key] = child
			vars = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s is not an object", key)
		}
		vars = child
	}
	vars[path[len(path)-1]] = value
	return nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
