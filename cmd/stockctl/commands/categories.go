package commands

import (
	"stockapi/internal/repository"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with their product counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		categories, err := repository.NewCategoryRepository(pool, logger).GetAll(ctx)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Name", "Products", "Description"})
		for _, c := range categories {
			desc := ""
			if c.Description != nil {
				desc = *c.Description
			}
			t.AppendRow(table.Row{c.ID, c.Name, len(c.Products), desc})
		}
		t.AppendFooter(table.Row{"", "Total", len(categories), ""})
		t.Render()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
