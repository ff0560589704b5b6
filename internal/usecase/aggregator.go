// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/git-churn/internal/domain"
	"github.com/naka-gawa/git-churn/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// Aggregator is the use case for aggregating churn of GitHub repositories.
// It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Aggregate fetches the commit churn of every repository concurrently.
// Repositories are given as owner/name; the result is sorted by name.
func (a *Aggregator) Aggregate(ctx context.Context, repos []string) ([]*domain.RepoChurn, error) {
	a.logger.Println("Usecase: Starting churn aggregation...")

	// Validate all names up front so a typo fails before any request is made.
	type target struct{ owner, name string }
	targets := make(map[string]target, len(repos))
	for _, repo := range repos {
		owner, name, err := gateway.SplitRepo(repo)
		if err != nil {
			return nil, err
		}
		targets[owner+"/"+name] = target{owner: owner, name: name}
	}

	results := make([]*domain.RepoChurn, 0, len(targets))
	for full := range targets {
		results = append(results, &domain.RepoChurn{Name: full})
	}

	// Use an errgroup to fetch all repositories concurrently.
	// Each goroutine owns exactly one element of results.
	eg, egCtx := errgroup.WithContext(ctx)
	for _, result := range results {
		result := result // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		t := targets[result.Name]
		eg.Go(func() error {
			churn, err := a.fetcher.FetchCommitChurn(egCtx, t.owner, t.name)
			if err != nil {
				return fmt.Errorf("%s: %w", result.Name, err)
			}
			result.Churn = churn
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	a.logger.Println("Usecase: All data fetched successfully.")

	// Sort by repository name for consistent output.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})

	a.logger.Println("Usecase: Aggregation complete.")
	return results, nil
}

// Combined sums the churn of several repositories.
func Combined(results []*domain.RepoChurn) domain.Churn {
	var total domain.Churn
	for _, r := range results {
		total = total.Add(r.Churn)
	}
	return total
}

// Weekly fetches the weekly code frequency of one repository and summarizes
// the distribution of weekly churn.
func (a *Aggregator) Weekly(ctx context.Context, repo string) (*domain.WeeklySummary, error) {
	owner, name, err := gateway.SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	weeks, err := a.fetcher.FetchCodeFrequency(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	summary := &domain.WeeklySummary{Name: owner + "/" + name, Weeks: weeks}
	if len(weeks) == 0 {
		a.logger.Printf("Usecase: No weekly data for %s.", summary.Name)
		return summary, nil
	}

	data := make(stats.Float64Data, 0, len(weeks))
	for _, w := range weeks {
		summary.Total = summary.Total.Add(domain.Churn{Added: w.Added, Deleted: w.Deleted})
		data = append(data, float64(w.Total()))
	}
	if summary.Mean, err = stats.Mean(data); err != nil {
		return nil, fmt.Errorf("failed to compute mean weekly churn: %w", err)
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return nil, fmt.Errorf("failed to compute median weekly churn: %w", err)
	}
	if summary.P90, err = stats.PercentileNearestRank(data, 90); err != nil {
		return nil, fmt.Errorf("failed to compute 90th percentile weekly churn: %w", err)
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return nil, fmt.Errorf("failed to compute max weekly churn: %w", err)
	}
	return summary, nil
}
