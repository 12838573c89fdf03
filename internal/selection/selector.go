package selection

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"accountbot/internal/domain"
)

// Applied when the classifier reports a selection but omits a confidence.
const defaultAIConfidence = 0.8

const maxSuggestions = 2

// ClassifyOption is one labeled candidate offered to the classifier.
type ClassifyOption struct {
	ID   string
	Name string
}

// ClassifyRequest is a single classification attempt: the work text, the
// labeled candidates, and a free-text context string.
type ClassifyRequest struct {
	Text    string
	Options []ClassifyOption
	Context string
}

// Classifier is the AI classification collaborator. Implementations make
// exactly one attempt per call; the engine converts any error into an
// unavailable classification and never propagates it.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (domain.AIClassification, error)
}

// Engine selects the best account for a work item. It holds no mutable
// state between calls and is safe for arbitrary concurrent use. Either
// collaborator may be nil, in which case the corresponding path degrades
// to deterministic scoring.
type Engine struct {
	classifier Classifier
	patterns   PatternExtractor
}

func NewEngine(classifier Classifier, patterns PatternExtractor) *Engine {
	return &Engine{classifier: classifier, patterns: patterns}
}

// Select assigns one of the candidate accounts to the work item. Candidates
// must already be pre-filtered as valid for this item by the caller. Every
// code path terminates in a well-formed Selection; there are no fatal
// error conditions.
func (e *Engine) Select(ctx context.Context, item domain.WorkItem, candidates []domain.Account, sctx domain.SelectionContext) domain.Selection {
	switch len(candidates) {
	case 0:
		return domain.Selection{
			Confidence: 0,
			Reason:     "no accounts linked to this issue",
			Method:     domain.MethodNone,
		}
	case 1:
		acct := candidates[0]
		return domain.Selection{
			Account:    &acct,
			Confidence: 1.0,
			Reason:     "only one account available",
			Method:     domain.MethodSingle,
		}
	}

	patterns := e.extractPatterns(ctx, item, sctx)

	result := e.classify(ctx, item, candidates, sctx)
	if result.Available && result.SelectedKey != "" {
		if chosen, ok := findCandidate(candidates, result.SelectedKey); ok {
			confidence := result.Confidence
			if confidence == 0 {
				confidence = defaultAIConfidence
			}
			others := make([]domain.Account, 0, len(candidates)-1)
			for _, c := range candidates {
				if c.Key != chosen.Key {
					others = append(others, c)
				}
			}
			// Alternates are re-ranked deterministically with the neutral
			// classification so their reasons never claim AI influence.
			suggestions := e.rank(others, item, sctx, patterns)
			if len(suggestions) > maxSuggestions {
				suggestions = suggestions[:maxSuggestions]
			}
			return domain.Selection{
				Account:     &chosen,
				Confidence:  confidence,
				Reason:      fmt.Sprintf("AI classified this work as %q (%d%% confidence)", chosen.Name, confidencePercent(confidence)),
				Method:      domain.MethodAI,
				Suggestions: suggestions,
			}
		}
		log.Printf("selection ai returned unknown account key=%q issue=%s candidates=%d, falling back", result.SelectedKey, item.Key, len(candidates))
	}

	ranked := e.rank(candidates, item, sctx, patterns)
	top := ranked[0]
	suggestions := ranked[1:]
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	acct := top.Account
	return domain.Selection{
		Account:     &acct,
		Confidence:  top.Score,
		Reason:      top.Reason,
		Method:      domain.MethodFallback,
		Suggestions: suggestions,
	}
}

// classify performs the single AI attempt. Failures are logged and
// converted into the unavailable classification, never surfaced.
func (e *Engine) classify(ctx context.Context, item domain.WorkItem, candidates []domain.Account, sctx domain.SelectionContext) domain.AIClassification {
	if e.classifier == nil {
		return domain.AIClassification{}
	}

	text := item.Summary
	if sctx.Description != "" {
		text += "\n\n" + sctx.Description
	}

	options := make([]ClassifyOption, len(candidates))
	for i, c := range candidates {
		options[i] = ClassifyOption{ID: c.Key, Name: c.Name}
	}

	result, err := e.classifier.Classify(ctx, ClassifyRequest{
		Text:    text,
		Options: options,
		Context: classifyContext(item),
	})
	if err != nil {
		log.Printf("selection classifier error (falling back to scoring): %v", err)
		return domain.AIClassification{}
	}
	return result
}

// classifyContext renders the issue metadata handed to the classifier.
func classifyContext(item domain.WorkItem) string {
	return strings.Join([]string{
		fmt.Sprintf("Project: %s (%s)", item.ProjectName, item.ProjectKey),
		fmt.Sprintf("Issue Type: %s", item.IssueType),
		fmt.Sprintf("Status: %s", item.Status),
	}, ". ")
}

// extractPatterns obtains the rich-history pattern map, or nil when no
// rich history exists or the collaborator fails. A nil map routes the
// historical component to the basic usage aggregator.
func (e *Engine) extractPatterns(ctx context.Context, item domain.WorkItem, sctx domain.SelectionContext) map[string]domain.AccountPattern {
	if e.patterns == nil || len(sctx.Entries) == 0 {
		return nil
	}
	records, err := e.patterns.ExtractPatterns(ctx, item.Key, item.ProjectKey, sctx.Entries)
	if err != nil {
		log.Printf("selection pattern extraction error (using basic usage history): %v", err)
		return nil
	}
	byKey := make(map[string]domain.AccountPattern, len(records))
	for _, r := range records {
		byKey[r.AccountKey] = r
	}
	return byKey
}

// rank scores every candidate with the neutral classification placeholder
// and sorts by descending score. The sort is stable: ties keep the
// caller-supplied order.
func (e *Engine) rank(candidates []domain.Account, item domain.WorkItem, sctx domain.SelectionContext, patterns map[string]domain.AccountPattern) []domain.ScoredCandidate {
	neutral := domain.AIClassification{}
	scored := make([]domain.ScoredCandidate, len(candidates))
	for i, acct := range candidates {
		cs := scoreComponents(acct, item, sctx, patterns)
		scored[i] = domain.ScoredCandidate{
			Account: acct,
			Score:   cs.weightedScore(),
			Reason:  buildReason(acct, item, sctx, cs, neutral),
		}
	}
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})
	return scored
}

func findCandidate(candidates []domain.Account, key string) (domain.Account, bool) {
	for _, c := range candidates {
		if c.Key == key {
			return c, true
		}
	}
	return domain.Account{}, false
}
