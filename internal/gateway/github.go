// Package gateway provides access to commit history, either through the local
// git executable or through the GitHub REST and GraphQL APIs.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/git-churn/internal/domain"
)

var (
	// ErrStatsPending is returned while GitHub is still computing repository statistics.
	ErrStatsPending = errors.New("github is still computing statistics, retry later")
	// ErrInvalidRepo is returned for repository names not in owner/name form.
	ErrInvalidRepo = errors.New("repository must be in owner/name form")
)

// Fetcher defines the behavior of a gateway for fetching churn from GitHub.
type Fetcher interface {
	FetchCommitChurn(ctx context.Context, owner, name string) (domain.Churn, error)
	FetchCodeFrequency(ctx context.Context, owner, name string) ([]domain.WeeklyChurn, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// commitHistoryQuery pages through the default branch history of a repository.
type commitHistoryQuery struct {
	Repository struct {
		DefaultBranchRef struct {
			Target struct {
				Commit struct {
					History struct {
						PageInfo struct {
							HasNextPage bool
							EndCursor   githubv4.String
						}
						Nodes []struct {
							Additions int
							Deletions int
						}
					} `graphql:"history(first: 100, after: $cursor)"`
				} `graphql:"... on Commit"`
			}
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// SplitRepo splits "owner/name" into its two parts.
func SplitRepo(full string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(full), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%q: %w", full, ErrInvalidRepo)
	}
	return owner, name, nil
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchCommitChurn sums additions and deletions over every commit reachable
// from the default branch.
func (g *GitHubGateway) FetchCommitChurn(ctx context.Context, owner, name string) (domain.Churn, error) {
	g.logger.Printf("Fetching commit history of %s/%s using GraphQL API...", owner, name)
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"cursor": (*githubv4.String)(nil),
	}

	var churn domain.Churn
	commits := 0
	for {
		var q commitHistoryQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return domain.Churn{}, fmt.Errorf("failed to execute GraphQL query for commit history: %w", err)
		}
		history := q.Repository.DefaultBranchRef.Target.Commit.History
		for _, node := range history.Nodes {
			churn.Added += node.Additions
			churn.Deleted += node.Deletions
		}
		commits += len(history.Nodes)
		if !history.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(history.PageInfo.EndCursor)
		g.logger.Printf("  Fetching next page of commits for %s/%s...", owner, name)
	}
	g.logger.Printf("Completed fetching %d commits of %s/%s.", commits, owner, name)
	return churn, nil
}

// FetchCodeFrequency returns the weekly additions and deletions GitHub keeps
// for a repository.
func (g *GitHubGateway) FetchCodeFrequency(ctx context.Context, owner, name string) ([]domain.WeeklyChurn, error) {
	g.logger.Printf("Fetching code frequency of %s/%s using REST API...", owner, name)
	weeks, _, err := g.restClient.Repositories.ListCodeFrequency(ctx, owner, name)
	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return nil, fmt.Errorf("%s/%s: %w", owner, name, ErrStatsPending)
		}
		return nil, fmt.Errorf("failed to list code frequency with REST API: %w", err)
	}

	result := make([]domain.WeeklyChurn, 0, len(weeks))
	for _, week := range weeks {
		deleted := week.GetDeletions()
		if deleted < 0 {
			deleted = -deleted
		}
		result = append(result, domain.WeeklyChurn{
			Week:    week.GetWeek().Time.UTC(),
			Added:   week.GetAdditions(),
			Deleted: deleted,
		})
	}
	g.logger.Printf("Completed fetching %d weeks of code frequency.", len(result))
	return result, nil
}
