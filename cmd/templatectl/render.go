package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-node-template/internal/render"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		source   sourceFlags
		varsFile string
		sets     []string
		output   string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "render [template-id]",
		Short: "Expand a template",
		Long: `Expand a catalog template or inline content.

Examples:
  templatectl render weekly --vars week.yaml
  templatectl render -f draft.md --set title="Weekly review" --set owner.name=Ada
  templatectl render weekly --lenient --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, content, err := source.resolve(cmd, args)
			if err != nil {
				return err
			}

			vars, err := loadVariables(varsFile, sets)
			if err != nil {
				return err
			}

			logger, err := root.newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			engine, templates, err := root.newEngine(logger)
			if err != nil {
				return err
			}

			service := render.NewService(engine, templates, logger)
			resp, err := service.Render(cmd.Context(), &render.Request{
				TemplateID: id,
				Content:    content,
				Variables:  vars,
				Validate:   validate,
			})
			if err != nil {
				return err
			}

			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			for _, w := range resp.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			if resp.HasUnresolved {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: some directives could not be resolved")
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(resp.Content), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), resp.Content)
			return err
		},
	}

	source.register(cmd)
	cmd.Flags().StringVar(&varsFile, "vars", "", "YAML or JSON file of variables")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a variable (key=value, repeatable; dotted keys nest)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to a file")
	cmd.Flags().BoolVar(&validate, "validate", false, "Validate the template before rendering")
	return cmd
}
