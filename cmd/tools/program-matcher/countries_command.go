// cmd/tools/program-matcher/countries_command.go
package main

import (
	"fmt"

	"program-matcher/internal/models"

	"github.com/spf13/cobra"
)

func newCountriesCommand(ctx *commandContext) *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List the countries offering a degree level",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			countries := cat.AvailableCountries(models.DegreeLevel(level))
			if ctx.jsonOutput {
				return writeJSON(cmd, countries)
			}

			out := cmd.OutOrStdout()
			if len(countries) == 0 {
				fmt.Fprintln(out, "No countries")
				return nil
			}
			for _, c := range countries {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "Masters", "Degree level (Bachelors, Masters)")
	return cmd
}
