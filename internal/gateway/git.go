package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// HistorySource returns the raw text of `git log --shortstat`.
// It is the seam that lets the churn computation run without a real git binary.
type HistorySource interface {
	LogShortStat(ctx context.Context) (string, error)
}

// GitCLI is the HistorySource backed by the git executable.
type GitCLI struct {
	bin    string
	dir    string
	extra  []string
	strict bool
	logger *log.Logger
}

// GitOption configures a GitCLI.
type GitOption func(*GitCLI)

// WithGitBin overrides the git executable. An empty value keeps "git".
func WithGitBin(bin string) GitOption {
	return func(g *GitCLI) {
		if strings.TrimSpace(bin) != "" {
			g.bin = bin
		}
	}
}

// WithDir runs git inside dir instead of the current working directory.
func WithDir(dir string) GitOption {
	return func(g *GitCLI) { g.dir = dir }
}

// WithLogArgs appends extra arguments after `git log --shortstat`.
func WithLogArgs(args ...string) GitOption {
	return func(g *GitCLI) { g.extra = append(g.extra, args...) }
}

// WithStrict makes a non-zero git exit status an error.
func WithStrict(strict bool) GitOption {
	return func(g *GitCLI) { g.strict = strict }
}

// NewGitCLI creates a GitCLI that logs to logger.
func NewGitCLI(logger *log.Logger, opts ...GitOption) *GitCLI {
	g := &GitCLI{
		bin:    "git",
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LogShortStat runs `git log --shortstat` and returns its standard output.
//
// Failing to start the process is always an error. A non-zero exit status is an
// error only when the GitCLI is strict; otherwise whatever was written to stdout
// is returned and stderr is logged.
func (g *GitCLI) LogShortStat(ctx context.Context) (string, error) {
	args := append([]string{"log", "--shortstat"}, g.extra...)
	g.logger.Printf("Running %s %s", g.bin, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, g.bin, args...)
	if g.dir != "" {
		cmd.Dir = g.dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		msg := strings.TrimSpace(stderr.String())
		if g.strict {
			if msg == "" {
				msg = exitErr.Error()
			}
			return "", fmt.Errorf("git log exited with status %d: %s", exitErr.ExitCode(), msg)
		}
		g.logger.Printf("git log exited with status %d, using captured output: %s", exitErr.ExitCode(), msg)
	default:
		return "", fmt.Errorf("failed to run %s: %w", g.bin, err)
	}

	g.logger.Printf("Captured %d bytes of history.", stdout.Len())
	return stdout.String(), nil
}
