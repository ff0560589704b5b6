package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/git-churn/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())
	logger := log.New(io.Discard, "", 0)

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}

	return gateway, server
}

func TestSplitRepo(t *testing.T) {
	testCases := []struct {
		input       string
		owner       string
		name        string
		expectError bool
	}{
		{input: "org/repo", owner: "org", name: "repo"},
		{input: " org/repo ", owner: "org", name: "repo"},
		{input: "repo", expectError: true},
		{input: "/repo", expectError: true},
		{input: "org/", expectError: true},
		{input: "org/repo/extra", expectError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			owner, name, err := SplitRepo(tc.input)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidRepo)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.name, name)
		})
	}
}

func TestGitHubGateway_FetchCodeFrequency(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       []domain.WeeklyChurn
		expectError    bool
		expectPending  bool
		expectedErrMsg string
	}{
		{
			name: "happy path - deletions become positive",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/org/repo/stats/code_frequency", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[[1302998400, 1124, -435], [1303603200, 0, 0]]`)
			},
			expected: []domain.WeeklyChurn{
				{Week: time.Unix(1302998400, 0).UTC(), Added: 1124, Deleted: 435},
				{Week: time.Unix(1303603200, 0).UTC(), Added: 0, Deleted: 0},
			},
		},
		{
			name: "pending case - GitHub is computing statistics",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				fmt.Fprint(w, `{}`)
			},
			expectError:   true,
			expectPending: true,
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to list code frequency with REST API",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			weeks, err := gateway.FetchCodeFrequency(context.Background(), "org", "repo")
			if tc.expectError {
				assert.Error(t, err)
				if tc.expectPending {
					assert.ErrorIs(t, err, ErrStatsPending)
				} else {
					assert.Contains(t, err.Error(), tc.expectedErrMsg)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, weeks)
		})
	}
}

func TestGitHubGateway_FetchCommitChurn(t *testing.T) {
	testCases := []struct {
		name           string
		responses      []string
		expected       domain.Churn
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - single page",
			responses: []string{
				`{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":false,"endCursor":"c1"},"nodes":[{"additions":5,"deletions":3},{"additions":1,"deletions":2}]}}}}}}`,
			},
			expected: domain.Churn{Added: 6, Deleted: 5},
		},
		{
			name: "happy path - follows the cursor across pages",
			responses: []string{
				`{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[{"additions":10,"deletions":0}]}}}}}}`,
				`{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":false,"endCursor":"c2"},"nodes":[{"additions":0,"deletions":4}]}}}}}}`,
			},
			expected: domain.Churn{Added: 10, Deleted: 4},
		},
		{
			name:           "error case",
			responses:      []string{`{"errors":[{"message":"Something went wrong"}]}`},
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query for commit history",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				assert.Contains(t, string(body), `"owner":"org"`)
				assert.Contains(t, string(body), `"name":"repo"`)
				if calls > 0 {
					assert.Contains(t, string(body), `"cursor":"c1"`)
				}

				if calls >= len(tc.responses) {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responses[calls])
				calls++
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			churn, err := gateway.FetchCommitChurn(context.Background(), "org", "repo")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, churn)
			assert.Equal(t, len(tc.responses), calls)
		})
	}
}
