package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/naka-gawa/git-churn/internal/domain"
)

var (
	insertionsPattern = regexp.MustCompile(`(\d+)\s+insertions?\(\+\)`)
	deletionsPattern  = regexp.MustCompile(`(\d+)\s+deletions?\(-\)`)
)

// ParseShortStat sums the insertion and deletion counts found in the output
// of `git log --shortstat`. Lines matching neither pattern are skipped.
func ParseShortStat(output string) domain.Churn {
	var churn domain.Churn
	for _, line := range strings.Split(output, "\n") {
		// A line may carry both counts, so the checks are independent.
		if n, ok := leadingCount(insertionsPattern, line); ok {
			churn.Added += n
		}
		if n, ok := leadingCount(deletionsPattern, line); ok {
			churn.Deleted += n
		}
	}
	return churn
}

func leadingCount(pattern *regexp.Regexp, line string) (int, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
