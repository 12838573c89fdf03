package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const defaultReviewThreshold = 0.5

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// Classifier provider: "anthropic", "openai", "local", or "disabled".
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	ClassifierURL   string `yaml:"classifier_url"`

	DBPath                     string `yaml:"db_path"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	SlackBotToken   string  `yaml:"slack_bot_token"`
	ReviewChannelID string  `yaml:"review_channel_id"`
	ReviewThreshold float64 `yaml:"review_confidence_threshold"`
	DigestSchedule  string  `yaml:"digest_schedule"`

	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.ClassifierURL, "CLASSIFIER_URL")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReviewChannelID, "REVIEW_CHANNEL_ID")
	envOverrideFloat(&cfg.ReviewThreshold, "REVIEW_CONFIDENCE_THRESHOLD")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./accountbot.db"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.ReviewThreshold == 0 {
		cfg.ReviewThreshold = defaultReviewThreshold
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	case "local":
		if cfg.ClassifierURL == "" {
			log.Fatalf("classifier_url is required when llm_provider=local")
		}
	case "disabled":
		log.Printf("WARNING: llm_provider=disabled; every selection will use fallback scoring")
	default:
		log.Fatalf("llm_provider must be 'anthropic', 'openai', 'local' or 'disabled', got '%s'", cfg.LLMProvider)
	}

	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.ReviewThreshold < 0 || cfg.ReviewThreshold > 1 {
		log.Fatalf("invalid review_confidence_threshold '%f': must be between 0 and 1", cfg.ReviewThreshold)
	}
	if (cfg.ReviewChannelID != "" || cfg.DigestSchedule != "") && cfg.SlackBotToken == "" {
		log.Fatalf("slack_bot_token is required when review_channel_id or digest_schedule is set")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

// ClassifierEnabled reports whether an AI classification provider is
// configured.
func (c Config) ClassifierEnabled() bool {
	return c.LLMProvider != "disabled"
}

// SlackConfigured reports whether Slack notifications can be sent.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReviewChannelID != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
