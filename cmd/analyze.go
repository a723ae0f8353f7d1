package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cropwatch/analyzer"
	"cropwatch/apperr"
	"cropwatch/classifier"
	"cropwatch/models"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		count int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate mock field image analyses",
		Long: `Analyze prints mock analyses as YAML, each preceded by its health and
pest risk tiers. The same --seed always yields the same analyses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return apperr.Invalidf("--count must be at least 1")
			}
			settings, err := root.settings()
			if err != nil {
				return err
			}
			reg, err := settings.Registry()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = settings.Analysis.Seed
			}

			p := analyzer.NewMockProvider(seed)
			out := cmd.OutOrStdout()
			for i := range count {
				img := models.FieldImage{ID: fmt.Sprint(i + 1)}
				r, err := p.Analyze(cmd.Context(), img)
				if err != nil {
					return err
				}

				health := reg.Must(classifier.SchemeHealth).Classify(float64(r.HealthScore))
				pest := reg.Must(classifier.SchemeRisk).Classify(float64(r.PestRisk))
				fmt.Fprintf(out, "%s health %s, pest risk %s\n",
					styleBold.Render(fmt.Sprintf("# analysis %d:", i+1)),
					tierStyle(health).Render(string(health.Tier)),
					tierStyle(pest).Render(string(pest.Tier)),
				)

				b, err := yaml.Marshal(r)
				if err != nil {
					return fmt.Errorf("encode analysis: %w", err)
				}
				fmt.Fprintln(out, "---")
				fmt.Fprint(out, string(b))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of analyses to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 seeds from the clock (default analysis.seed)")
	return cmd
}
