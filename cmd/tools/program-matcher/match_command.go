// cmd/tools/program-matcher/match_command.go
package main

import (
	"fmt"

	"program-matcher/internal/api"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"github.com/spf13/cobra"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		pref    models.Preference
		field   string
		level   string
		dur     string
		budget  string
		regions []string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Score the catalog against a set of quiz answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" || level == "" {
				return fmt.Errorf("--field and --level are required")
			}
			pref.StudyField = models.StudyField(field)
			pref.DegreeLevel = models.DegreeLevel(level)
			pref.Duration = models.DurationBucket(dur)
			pref.Budget = models.BudgetBucket(budget)
			pref.Regions = regions

			policy := matcher.DefaultPolicy()
			if ctx.configPath != "" {
				cfg, err := ctx.config()
				if err != nil {
					return err
				}
				policy = cfg.Matcher
			}

			cat, err := ctx.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			m := matcher.New(policy)
			resp := api.NewMatchResponse(m, m.Match(pref, cat.Programs()))
			if ctx.jsonOutput {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			if len(resp.Matches) == 0 {
				fmt.Fprintln(out, "No matching programs")
				return nil
			}

			fmt.Fprintln(out, renderRows(matchColumns, resp.Matches))
			fmt.Fprintf(out, "Threshold %.1f, %d of %d programs qualified\n",
				resp.ThresholdScore, resp.ProgramsAboveThreshold, resp.TotalPrograms)
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "Study field (ComputerScience, Business, DataScience, Engineering, Other)")
	cmd.Flags().StringVar(&level, "level", "", "Degree level (Bachelors, Masters)")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "Accepted country, repeatable")
	cmd.Flags().StringVar(&dur, "duration", "", "Duration bucket (short, medium, long)")
	cmd.Flags().StringVar(&budget, "budget", "", "Budget bucket (low, medium, high)")
	cmd.Flags().BoolVar(&pref.OnlinePreference, "online", false, "Prefer programs with an online companion")

	return cmd
}
