package selection

import (
	"context"
	"strings"

	"accountbot/internal/domain"
)

// PatternExtractor is the historical pattern extraction collaborator. Given
// an issue, its project, and the full rich history, it returns per-account
// pattern records with a match score in [0,1] and ranked textual reasons.
type PatternExtractor interface {
	ExtractPatterns(ctx context.Context, issueKey, projectKey string, entries []domain.TimeEntry) ([]domain.AccountPattern, error)
}

// UsageShare returns the empirical share of a project's logged usage that
// went to the given account. An issue belongs to a project when its key
// starts with projectKey + "-". Returns 0 when the project has no records.
func UsageShare(accountKey, projectKey string, log []domain.UsageRecord) float64 {
	prefix := projectKey + "-"
	total := 0
	matched := 0
	for _, r := range log {
		if !strings.HasPrefix(r.IssueKey, prefix) {
			continue
		}
		total++
		if r.AccountKey == accountKey {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
