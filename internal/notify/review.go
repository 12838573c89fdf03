// Package notify posts low-confidence selections to Slack for human review.
package notify

import (
	"fmt"
	"log"
	"math"

	"accountbot/internal/domain"

	"github.com/slack-go/slack"
)

// Reviewer asks a channel to double-check selections whose confidence fell
// below the configured threshold. Posting failures are logged, never
// returned; a review ping must not affect the selection response.
type Reviewer struct {
	api       *slack.Client
	channelID string
	threshold float64
}

func NewReviewer(api *slack.Client, channelID string, threshold float64) *Reviewer {
	return &Reviewer{api: api, channelID: channelID, threshold: threshold}
}

func (r *Reviewer) needsReview(sel domain.Selection) bool {
	return sel.Account != nil && sel.Confidence < r.threshold
}

// MaybeRequestReview posts a review request when the selection qualifies.
// Safe to call on a nil receiver (notifications disabled).
func (r *Reviewer) MaybeRequestReview(item domain.WorkItem, sel domain.Selection) {
	if r == nil || !r.needsReview(sel) {
		return
	}
	msg := fmt.Sprintf(
		"Low-confidence account selection for %s: *%s* (%d%%, %s) — %s",
		item.Key, sel.Account.Name, int(math.Round(sel.Confidence*100)), sel.Method, sel.Reason,
	)
	if _, _, err := r.api.PostMessage(r.channelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("review notify error issue=%s: %v", item.Key, err)
		return
	}
	log.Printf("review requested issue=%s account=%s confidence=%.2f", item.Key, sel.Account.Key, sel.Confidence)
}
