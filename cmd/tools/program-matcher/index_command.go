// cmd/tools/program-matcher/index_command.go
package main

import (
	"fmt"
	"os"

	"program-matcher/internal/catalog"
	"program-matcher/internal/common/database"

	"github.com/spf13/cobra"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Load the workbook into the Elasticsearch program index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			path := ctx.datasetPath
			if path == "" {
				path = cfg.Dataset.Path
			}

			programs, err := catalog.NewXLSXSource(path).Load(cmd.Context())
			if err != nil {
				return err
			}

			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			index := cfg.Database.Elasticsearch.ProgramIndex
			if err := es.EnsureIndex(cmd.Context(), index, catalog.ProgramIndexMapping); err != nil {
				return err
			}

			n, err := catalog.NewElasticsearchSource(es.Client, index).IndexPrograms(cmd.Context(), programs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d of %d programs into %s\n", n, len(programs), index)
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to a workbook, one sheet per country",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			cat, err := ctx.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := catalog.WriteWorkbook(f, cat.Programs()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d programs across %d countries to %s\n", cat.Len(), len(cat.Countries()), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Workbook to write")
	return cmd
}
