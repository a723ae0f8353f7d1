package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"cropwatch/apperr"
	"cropwatch/classifier"
)

func newClassifyCmd(root *rootOptions) *cobra.Command {
	var (
		scheme string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "classify <score>...",
		Short: "Map 0-100 scores to tiers",
		Long: `Classify maps each score to a tier of the selected scheme. Scores outside
[0,100] are clamped and marked as out of range. Schemes configured under
classifier.schemes override the built-in tables.`,
		Example: `  cropwatch classify 92 45 12
  cropwatch classify --scheme risk 71`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := root.settings()
			if err != nil {
				return err
			}
			reg, err := settings.Registry()
			if err != nil {
				return err
			}
			s, err := reg.Get(scheme)
			if err != nil {
				return err
			}

			results := make([]classifier.Result, 0, len(args))
			for _, a := range args {
				score, err := strconv.ParseFloat(a, 64)
				if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
					return apperr.Invalidf("score %q is not a number", a)
				}
				results = append(results, s.Classify(score))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for _, r := range results {
				line := fmt.Sprintf("%6.1f  %s", r.Score, tierStyle(r).Render(fmt.Sprintf("%-10s", r.Tier)))
				if r.OutOfRange {
					line += styleMuted.Render(fmt.Sprintf("  clamped to %v", r.Clamped))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&scheme, "scheme", "s", classifier.SchemeHealth, "classification scheme")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}
