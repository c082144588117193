package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/filters"
)

func newFiltersCmd(root *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List the available filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []filters.Filter
			for _, f := range filters.NewDefaultRegistry().List() {
				if category == "" || strings.EqualFold(string(f.Category), category) {
					list = append(list, f)
				}
			}
			if len(list) == 0 {
				return fmt.Errorf("no filters in category %q", category)
			}

			if root.jsonOutput {
				type filterInfo struct {
					Name        string `json:"name"`
					Category    string `json:"category"`
					Description string `json:"description"`
				}
				out := make([]filterInfo, len(list))
				for i, f := range list {
					out[i] = filterInfo{Name: f.Name, Category: string(f.Category), Description: f.Description}
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			sort.SliceStable(list, func(i, j int) bool { return list[i].Category < list[j].Category })

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			current := filters.Category("")
			for _, f := range list {
				if f.Category != current {
					if current != "" {
						fmt.Fprintln(tw)
					}
					fmt.Fprintf(tw, "%s:\n", f.Category)
					current = f.Category
				}
				fmt.Fprintf(tw, "  %s\t%s\n", f.Name, f.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list filters of this category")
	return cmd
}

func newListCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls"},
		Short:   "List catalog templates, optionally matching a query or glob",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates := catalog.NewFile(root.dir)

			var (
				list []*catalog.Template
				err  error
			)
			if len(args) > 0 {
				list, err = templates.Search(cmd.Context(), args[0])
			} else {
				list, err = templates.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), list)
			}

			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTAGS")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(t.Tags, ","))
			}
			return tw.Flush()
		},
	}
	return cmd
}
