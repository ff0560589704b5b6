// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/git-churn/internal/domain"
	"github.com/naka-gawa/git-churn/internal/gateway"
	"github.com/naka-gawa/git-churn/internal/usecase"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "git-churn [flags] [-- git log args...]",
	Short: "A CLI tool to report the line churn of a commit history.",
	Long: `git-churn runs "git log --shortstat" and sums the inserted and deleted
lines of every commit into a single report:

  Lines Added: <A>, Lines Deleted: <D>, Total Churn: <A+D>

Arguments after "--" are passed on to git log, e.g.
  git-churn -- --since=2024-01-01 -- src/

With --github the churn of GitHub repositories is computed through the
GitHub API instead of a local clone. GITHUB_TOKEN must be set.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runChurn,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Print the result as JSON")

	rootCmd.Flags().StringP("dir", "C", "", "Run git in this directory instead of the current one")
	rootCmd.Flags().String("git-bin", "git", "Path of the git executable")
	rootCmd.Flags().Bool("strict", false, "Fail when git exits with a non-zero status")
	rootCmd.Flags().StringArray("github", nil, "GitHub repository (owner/name) to read history from; repeatable")
}

// newLogger discards all logs unless --verbose is set, then logs to standard error.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(cmd.ErrOrStderr())
	}
	return logger
}

// newGitHubGateway builds the GitHub gateway from the GITHUB_TOKEN environment variable.
// It is a variable so tests can replace the GitHub API.
var newGitHubGateway = func(logger *log.Logger) (gateway.Fetcher, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, errors.New("GITHUB_TOKEN environment variable is not set")
	}
	githubGateway, err := gateway.NewGitHubGateway(token, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return githubGateway, nil
}

func runChurn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd)
	asJSON, _ := cmd.Flags().GetBool("json")

	repos, _ := cmd.Flags().GetStringArray("github")
	if len(repos) > 0 {
		if len(args) > 0 {
			return errors.New("git log arguments cannot be combined with --github")
		}
		return runRemote(cmd, logger, repos, asJSON)
	}

	dir, _ := cmd.Flags().GetString("dir")
	gitBin, _ := cmd.Flags().GetString("git-bin")
	strict, _ := cmd.Flags().GetBool("strict")

	// Inject dependencies and run the main business logic.
	source := gateway.NewGitCLI(logger,
		gateway.WithGitBin(gitBin),
		gateway.WithDir(dir),
		gateway.WithStrict(strict),
		gateway.WithLogArgs(args...),
	)
	churn, err := usecase.NewReporter(source, logger).Report(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), churn)
	}
	fmt.Fprintln(cmd.OutOrStdout(), churn)
	return nil
}

func runRemote(cmd *cobra.Command, logger *log.Logger, repos []string, asJSON bool) error {
	fetcher, err := newGitHubGateway(logger)
	if err != nil {
		return err
	}
	results, err := usecase.NewAggregator(fetcher, logger).Aggregate(cmd.Context(), repos)
	if err != nil {
		return fmt.Errorf("failed to aggregate churn: %w", err)
	}
	total := usecase.Combined(results)

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, struct {
			Repositories []*domain.RepoChurn `json:"repositories"`
			Total        domain.Churn        `json:"total"`
		}{results, total})
	}
	for _, r := range results {
		fmt.Fprintf(out, "%s: %s\n", r.Name, r.Churn)
	}
	if len(results) > 1 {
		fmt.Fprintf(out, "Total: %s\n", total)
	}
	return nil
}

// printJSON marshals v into a pretty-printed JSON string and writes it to w.
func printJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
