// cmd/tools/program-matcher/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"program-matcher/internal/catalog"
	"program-matcher/internal/common/config"
	"program-matcher/internal/common/database"

	"github.com/spf13/cobra"
)

// commandContext loads the config once and hands out catalog sources.
type commandContext struct {
	configPath  string
	datasetPath string
	jsonOutput  bool

	cfg *config.Config
}

func (c *commandContext) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFromFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// source honours --dataset before the configured dataset.
func (c *commandContext) source() (catalog.Source, error) {
	if c.datasetPath != "" {
		return catalog.NewXLSXSource(c.datasetPath), nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if cfg.Dataset.Source == "elasticsearch" {
		return c.esSource()
	}
	return catalog.NewXLSXSource(cfg.Dataset.Path), nil
}

func (c *commandContext) esSource() (*catalog.ElasticsearchSource, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if !cfg.Database.Elasticsearch.Enabled() {
		return nil, fmt.Errorf("database.elasticsearch.addresses is not configured")
	}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	return catalog.NewElasticsearchSource(es.Client, cfg.Database.Elasticsearch.ProgramIndex), nil
}

func (c *commandContext) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	src, err := c.source()
	if err != nil {
		return nil, err
	}
	return catalog.Load(ctx, src)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "program-matcher",
		Short:         "Inspect and maintain the program catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&ctx.datasetPath, "dataset", "d", "", "Program workbook, overrides dataset.path")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOutput, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newCountriesCommand(ctx))
	rootCmd.AddCommand(newIndexCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newLeadsCommand(ctx))

	return rootCmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
