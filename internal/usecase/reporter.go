package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/naka-gawa/git-churn/internal/domain"
	"github.com/naka-gawa/git-churn/internal/gateway"
)

// Reporter computes the churn of a local commit history.
type Reporter struct {
	source gateway.HistorySource
	logger *log.Logger
}

// NewReporter creates a new Reporter instance.
func NewReporter(source gateway.HistorySource, logger *log.Logger) *Reporter {
	return &Reporter{
		source: source,
		logger: logger,
	}
}

// Report reads the history once and returns its churn. Totals are computed
// from scratch on every call.
func (r *Reporter) Report(ctx context.Context) (domain.Churn, error) {
	r.logger.Println("Usecase: Reading commit history...")
	output, err := r.source.LogShortStat(ctx)
	if err != nil {
		return domain.Churn{}, fmt.Errorf("failed to read commit history: %w", err)
	}

	churn := ParseShortStat(output)
	r.logger.Printf("Usecase: Churn computed: %s", churn)
	return churn, nil
}
