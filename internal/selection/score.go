package selection

import (
	"fmt"
	"math"
	"strings"

	"accountbot/internal/domain"
)

// Component weights of the fallback scoring function.
const (
	weightHistory     = 0.60
	weightSummary     = 0.25
	weightProjectName = 0.10
	weightDescription = 0.05
)

// Explanation thresholds.
const (
	learnedReasonMinScore   = 0.3
	frequentUsageMinShare   = 0.5
	occasionalUsageMinShare = 0.2
	keywordReasonMinScore   = 0.4
	descReasonMinScore      = 0.3
)

// componentScores holds the raw per-component signals for one candidate,
// shared between the scoring function and the explainer.
type componentScores struct {
	history        float64
	richHistory    bool
	pattern        domain.AccountPattern
	summary        float64
	projectName    bool
	description    float64
	hasDescription bool
}

// scoreComponents evaluates every scoring signal for one candidate.
// patterns is non-nil only when rich history was supplied; its entries are
// authoritative and are not reweighted here.
func scoreComponents(acct domain.Account, item domain.WorkItem, sctx domain.SelectionContext, patterns map[string]domain.AccountPattern) componentScores {
	cs := componentScores{}

	if patterns != nil {
		cs.richHistory = true
		if p, ok := patterns[acct.Key]; ok {
			cs.pattern = p
			cs.history = p.MatchScore
		}
	} else {
		cs.history = UsageShare(acct.Key, item.ProjectKey, sctx.UsageLog)
	}

	cs.summary = MatchScore(acct.Name, item.Summary)
	cs.projectName = ContainsKeyword(acct.Name, item.ProjectName)

	if sctx.Description != "" {
		cs.hasDescription = true
		cs.description = MatchScore(acct.Name, sctx.Description)
	}
	return cs
}

// weightedScore combines the component signals into a single score, clamped
// to 1.0 on the upper bound. The project-name component is all-or-nothing.
func (cs componentScores) weightedScore() float64 {
	score := weightHistory*cs.history + weightSummary*cs.summary
	if cs.projectName {
		score += weightProjectName
	}
	if cs.hasDescription {
		score += weightDescription * cs.description
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ScoreAccount computes the fallback score for one candidate account.
// The result is always in [0,1].
func ScoreAccount(acct domain.Account, item domain.WorkItem, sctx domain.SelectionContext, patterns map[string]domain.AccountPattern) float64 {
	return scoreComponents(acct, item, sctx, patterns).weightedScore()
}

// buildReason explains a candidate's score in short comma-joined phrases,
// inspecting the same signals as the scoring function in the same
// precedence. ai is the neutral placeholder on the fallback path, so AI
// phrasing never appears in fallback reasons.
func buildReason(acct domain.Account, item domain.WorkItem, sctx domain.SelectionContext, cs componentScores, ai domain.AIClassification) string {
	var phrases []string

	if ai.Available && ai.SelectedKey == acct.Key {
		phrases = append(phrases, fmt.Sprintf("AI classifier selected this account (%d%% confidence)", confidencePercent(ai.Confidence)))
	}

	if cs.richHistory && cs.history > learnedReasonMinScore {
		if len(cs.pattern.Reasons) > 0 {
			phrases = append(phrases, cs.pattern.Reasons[0])
		} else {
			phrases = append(phrases, "similar past work was logged to this account")
		}
	} else {
		share := UsageShare(acct.Key, item.ProjectKey, sctx.UsageLog)
		if share > frequentUsageMinShare {
			phrases = append(phrases, fmt.Sprintf("frequently used for %s issues", item.ProjectKey))
		} else if share > occasionalUsageMinShare {
			phrases = append(phrases, fmt.Sprintf("occasionally used for %s issues", item.ProjectKey))
		}
	}

	if cs.summary > keywordReasonMinScore {
		phrases = append(phrases, "account name matches issue keywords")
	}
	if cs.projectName {
		phrases = append(phrases, "account name matches project name")
	}
	if cs.hasDescription && cs.description > descReasonMinScore {
		phrases = append(phrases, "account name matches work description")
	}

	if len(phrases) == 0 {
		return "general match"
	}
	return strings.Join(phrases, ", ")
}

func confidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}
