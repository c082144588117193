package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-node-template/internal/eval/template"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var source sourceFlags

	cmd := &cobra.Command{
		Use:   "validate [template-id]",
		Short: "Check a template for errors without rendering it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, content, err := root.inspectSource(cmd, &source, args)
			if err != nil {
				return err
			}

			result := engine.Validate(content)
			if root.jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printValidation(cmd.OutOrStdout(), result)
			}

			if !result.Valid {
				return fmt.Errorf("template has %d error(s)", len(result.Errors))
			}
			return nil
		},
	}

	source.register(cmd)
	return cmd
}

func printValidation(w io.Writer, result template.ValidationResult) {
	for _, issue := range result.Errors {
		fmt.Fprintf(w, "error: %s\n", issue)
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", issue)
	}
	if result.Valid {
		fmt.Fprintln(w, "valid")
	}
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var source sourceFlags

	cmd := &cobra.Command{
		Use:   "analyze [template-id]",
		Short: "Count the directives of a template and list the variables it reads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, content, err := root.inspectSource(cmd, &source, args)
			if err != nil {
				return err
			}

			stats := engine.Analyze(content)
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "placeholders: %d\n", stats.Placeholders)
			fmt.Fprintf(w, "conditionals: %d\n", stats.Conditionals)
			fmt.Fprintf(w, "loops:        %d\n", stats.Loops)
			fmt.Fprintf(w, "scripts:      %d\n", stats.Scripts)
			fmt.Fprintf(w, "comments:     %d\n", stats.Comments)
			fmt.Fprintf(w, "includes:     %s\n", strings.Join(stats.Includes, ", "))
			fmt.Fprintf(w, "variables:    %s\n", strings.Join(stats.Variables, ", "))
			fmt.Fprintf(w, "filters:      %s\n", strings.Join(stats.Filters, ", "))
			return nil
		},
	}

	source.register(cmd)
	return cmd
}

// inspectSource builds an engine and reads the selected template
func (o *rootOptions) inspectSource(cmd *cobra.Command, source *sourceFlags, args []string) (*template.Engine, string, error) {
	id, content, err := source.resolve(cmd, args)
	if err != nil {
		return nil, "", err
	}

	logger, err := o.newLogger()
	if err != nil {
		return nil, "", err
	}

	engine, templates, err := o.newEngine(logger)
	if err != nil {
		return nil, "", err
	}

	content, err = readContent(cmd, templates, id, content)
	if err != nil {
		return nil, "", err
	}
	return engine, content, nil
}
