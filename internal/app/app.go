package app

import (
	"log"

	"accountbot/internal/config"
	"accountbot/internal/digest"
	"accountbot/internal/httpx"
	"accountbot/internal/integrations/llm"
	"accountbot/internal/notify"
	"accountbot/internal/patterns"
	"accountbot/internal/selection"
	"accountbot/internal/server"
	"accountbot/internal/storage/sqlite"

	"github.com/slack-go/slack"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Listen=%s LLMProvider=%s LLMModel=%s ReviewThreshold=%.2f Timezone=%s ExternalHTTPTimeout=%s",
		cfg.ListenAddr,
		cfg.LLMProvider,
		cfg.LLMModel,
		cfg.ReviewThreshold,
		cfg.Timezone,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	var classifier selection.Classifier
	if cfg.ClassifierEnabled() {
		classifier = llm.NewClassifier(cfg)
		log.Printf("AI classification enabled (provider: %s)", cfg.LLMProvider)
	} else {
		log.Println("AI classification disabled, selections use deterministic scoring only")
	}

	engine := selection.NewEngine(classifier, patterns.NewExtractor())

	var reviewer *notify.Reviewer
	var api *slack.Client
	if cfg.SlackConfigured() {
		api = slack.New(cfg.SlackBotToken)
		if cfg.ReviewChannelID != "" {
			reviewer = notify.NewReviewer(api, cfg.ReviewChannelID, cfg.ReviewThreshold)
			log.Printf("Low-confidence review pings enabled (channel: %s, threshold: %.2f)", cfg.ReviewChannelID, cfg.ReviewThreshold)
		}
	} else {
		log.Println("Slack not configured, review pings and digest disabled")
	}

	digest.StartDigestScheduler(cfg, db, api)

	log.Println("Starting Account Selection Bot...")
	if err := server.New(cfg, db, engine, reviewer).Start(); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
