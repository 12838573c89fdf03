// Package patterns implements the historical pattern extraction
// collaborator: given an issue and the full rich history of past time
// entries, it scores each account by how well its logged work matches the
// issue, with ranked textual reasons.
package patterns

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"accountbot/internal/domain"
)

const (
	directUsageFloor   = 0.9
	similarReasonMin   = 0.3
	reasonSnippetChars = 80
)

// Extractor scores accounts against an issue by content similarity over
// past time entries. Stateless; safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPatterns returns one pattern record per account seen in the
// history, ordered by descending match score. Match scores combine the
// account's share of the project's entries with the best TF-IDF cosine
// similarity between the account's logged work and work previously logged
// on this issue. Accounts already used on the issue itself score at least
// the direct-usage floor.
func (e *Extractor) ExtractPatterns(_ context.Context, issueKey, projectKey string, entries []domain.TimeEntry) ([]domain.AccountPattern, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	prefix := projectKey + "-"
	docs := make([]string, len(entries))
	var issueDocs []string
	projectTotal := 0
	for i, en := range entries {
		docs[i] = en.Description
		if strings.HasPrefix(en.IssueKey, prefix) {
			projectTotal++
		}
		if en.IssueKey == issueKey && strings.TrimSpace(en.Description) != "" {
			issueDocs = append(issueDocs, en.Description)
		}
	}
	idx := buildTFIDFIndex(docs)

	byAccount := make(map[string][]int)
	for i, en := range entries {
		byAccount[en.AccountKey] = append(byAccount[en.AccountKey], i)
	}

	out := make([]domain.AccountPattern, 0, len(byAccount))
	for key, entryIdx := range byAccount {
		sameIssue := 0
		projCount := 0
		bestSim := 0.0
		bestDoc := ""
		for _, i := range entryIdx {
			en := entries[i]
			if en.IssueKey == issueKey {
				sameIssue++
			}
			if strings.HasPrefix(en.IssueKey, prefix) {
				projCount++
			}
			if en.IssueKey == issueKey {
				continue // similarity measures reuse beyond the issue itself
			}
			for _, q := range issueDocs {
				if sim := cosineSim(idx.queryVec(q), idx.vecs[i]); sim > bestSim {
					bestSim = sim
					bestDoc = en.Description
				}
			}
		}

		share := 0.0
		if projectTotal > 0 {
			share = float64(projCount) / float64(projectTotal)
		}
		score := 0.5*share + 0.5*bestSim
		if sameIssue > 0 && score < directUsageFloor {
			score = directUsageFloor
		}
		if score > 1.0 {
			score = 1.0
		}

		var reasons []string
		if sameIssue == 1 {
			reasons = append(reasons, fmt.Sprintf("logged 1 past entry on %s", issueKey))
		} else if sameIssue > 1 {
			reasons = append(reasons, fmt.Sprintf("logged %d past entries on %s", sameIssue, issueKey))
		}
		if bestSim > similarReasonMin {
			reasons = append(reasons, fmt.Sprintf("similar past work: %q", snippet(bestDoc)))
		}
		if projCount > 0 {
			reasons = append(reasons, fmt.Sprintf("used for %d of %d entries in %s", projCount, projectTotal, projectKey))
		}

		out = append(out, domain.AccountPattern{
			AccountKey: key,
			MatchScore: score,
			Reasons:    reasons,
		})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].MatchScore != out[b].MatchScore {
			return out[a].MatchScore > out[b].MatchScore
		}
		return out[a].AccountKey < out[b].AccountKey
	})
	return out, nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > reasonSnippetChars {
		return s[:reasonSnippetChars] + "..."
	}
	return s
}
