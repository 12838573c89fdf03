// Package digest periodically posts a summary of recent account selections
// to the review channel.
package digest

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"accountbot/internal/config"
	"accountbot/internal/domain"
	"accountbot/internal/storage/sqlite"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// StartDigestScheduler starts a cron-based scheduler that summarizes the
// selections made since the previous digest and posts it to the review
// channel. The schedule is a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1" (Mondays 9am).
func StartDigestScheduler(cfg config.Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.DigestSchedule)
	if schedule == "" {
		log.Println("Digest disabled (digest_schedule not set)")
		return
	}
	if api == nil || cfg.ReviewChannelID == "" {
		log.Println("Digest disabled: Slack is not configured")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid digest_schedule '%s': %v — digest disabled", schedule, err)
		return
	}

	log.Printf("Digest scheduled (cron: %s) to channel %s", schedule, cfg.ReviewChannelID)

	go func() {
		last := time.Now().In(cfg.Location)
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			log.Printf("Next digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

			time.Sleep(next.Sub(now))

			stats, statsErr := sqlite.SelectionStatsSince(db, last.UTC())
			last = time.Now().In(cfg.Location)
			if statsErr != nil {
				log.Printf("Digest stats error: %v", statsErr)
				continue
			}

			summary := FormatDigest(stats)
			log.Printf("Digest: %s", summary)

			if _, _, postErr := api.PostMessage(cfg.ReviewChannelID, slack.MsgOptionText(summary, false)); postErr != nil {
				log.Printf("Digest post error: %v", postErr)
			}
		}
	}()
}

// FormatDigest renders selection stats as a single Slack message line.
func FormatDigest(stats domain.SelectionStats) string {
	if stats.Total == 0 {
		return "No account selections since the last digest."
	}
	return fmt.Sprintf(
		"Account selections: %d total (%d AI, %d fallback), avg confidence %.0f%%. Buckets: <50%%: %d, 50-70%%: %d, 70-90%%: %d, 90%%+: %d",
		stats.Total, stats.AICount, stats.FallbackCount, stats.AvgConfidence*100,
		stats.BucketBelow50, stats.Bucket50to70, stats.Bucket70to90, stats.Bucket90Plus,
	)
}
