// cmd/tools/program-matcher/leads_command.go
package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"program-matcher/internal/common/config"
	"program-matcher/internal/common/database"
	"program-matcher/internal/leads"
	"program-matcher/internal/models"

	"github.com/spf13/cobra"
)

type leadHistory interface {
	RecentByPhone(ctx context.Context, phone string, limit int) ([]models.Lead, error)
}

// openLeadStore is swapped out in tests.
var openLeadStore = func(cfg config.PostgresConfig) (leadHistory, io.Closer, error) {
	pg, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, nil, err
	}
	return leads.NewStore(pg), pg, nil
}

func newLeadsCommand(ctx *commandContext) *cobra.Command {
	var (
		phone string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Show recent leads stored for a phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if !cfg.Database.Postgres.Enabled() {
				return fmt.Errorf("database.postgres is not configured")
			}

			store, closer, err := openLeadStore(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer closer.Close()

			found, err := store.RecentByPhone(cmd.Context(), strings.TrimSpace(phone), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				if found == nil {
					found = []models.Lead{}
				}
				return writeJSON(cmd, found)
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No leads")
				return nil
			}
			fmt.Fprintln(out, renderRows(leadColumns, found))
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number as submitted")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum leads to show")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}
