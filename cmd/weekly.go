package cmd

import (
	"fmt"

	"github.com/naka-gawa/git-churn/internal/usecase"
	"github.com/spf13/cobra"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly owner/repo",
	Short: "Summarizes the weekly churn of a GitHub repository",
	Long: `Reads the code frequency statistics GitHub keeps for a repository and prints
the churn of every week followed by the mean, median, 90th percentile and
maximum weekly churn. GITHUB_TOKEN must be set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")

		fetcher, err := newGitHubGateway(logger)
		if err != nil {
			return err
		}
		summary, err := usecase.NewAggregator(fetcher, logger).Weekly(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to summarize weekly churn: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, summary)
		}
		for _, w := range summary.Weeks {
			fmt.Fprintf(out, "%s: Lines Added: %d, Lines Deleted: %d, Total Churn: %d\n",
				w.Week.Format("2006-01-02"), w.Added, w.Deleted, w.Total())
		}
		fmt.Fprintf(out, "Weeks: %d, Mean: %.1f, Median: %.1f, P90: %.1f, Max: %.0f\n",
			len(summary.Weeks), summary.Mean, summary.Median, summary.P90, summary.Max)
		fmt.Fprintf(out, "Total: %s\n", summary.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}
