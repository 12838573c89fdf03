// Package llm implements the AI classification collaborator on top of a
// configured provider: the Anthropic SDK, the OpenAI chat-completions API,
// or a local classifier service speaking the /classify wire shape.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"accountbot/internal/domain"
	"accountbot/internal/selection"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

// Classifier makes exactly one classification attempt per call; retries
// and backoff are the caller's concern (the engine performs neither).
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

type classifiedSelection struct {
	SelectedID string  `json:"selected_id"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the configured provider to pick one account for the work
// text. A response without a usable selected id yields Available=false
// with a nil error, since that is an expected operating condition.
func (c *Classifier) Classify(ctx context.Context, req selection.ClassifyRequest) (domain.AIClassification, error) {
	if c.cfg.LLMProvider == "local" {
		return c.classifyLocal(ctx, req)
	}

	systemPrompt, userPrompt := buildClassifyPrompts(req)

	var responseText string
	var err error
	switch c.cfg.LLMProvider {
	case "openai":
		model := c.cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		log.Printf("llm classify provider=openai model=%s options=%d", model, len(req.Options))
		responseText, err = callOpenAI(ctx, c.cfg.OpenAIAPIKey, model, systemPrompt, userPrompt)
	default:
		model := c.cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		log.Printf("llm classify provider=anthropic model=%s options=%d", model, len(req.Options))
		responseText, err = callAnthropic(ctx, c.cfg.AnthropicAPIKey, model, systemPrompt, userPrompt)
	}
	if err != nil {
		return domain.AIClassification{}, err
	}

	parsed, err := parseClassifyResponse(responseText)
	if err != nil {
		return domain.AIClassification{}, err
	}
	if parsed.SelectedID == "" {
		return domain.AIClassification{}, nil
	}
	return domain.AIClassification{
		SelectedKey: parsed.SelectedID,
		Confidence:  clampConfidence(parsed.Confidence),
		Available:   true,
	}, nil
}

func buildClassifyPrompts(req selection.ClassifyRequest) (string, string) {
	var optionLines strings.Builder
	for _, opt := range req.Options {
		optionLines.WriteString(fmt.Sprintf("- %s: %s\n", opt.ID, opt.Name))
	}

	systemPrompt := fmt.Sprintf(`You assign a billing account to one unit of tracked work.
Choose exactly one selected_id from:
%s
Set confidence between 0 and 1.

Respond with JSON only (no markdown):
{"selected_id": "ACC-1", "confidence": 0.91}`, optionLines.String())

	userPrompt := "Work to classify:\n" + req.Text
	if strings.TrimSpace(req.Context) != "" {
		userPrompt += "\n\nContext: " + req.Context
	}
	return systemPrompt, userPrompt
}

func parseClassifyResponse(responseText string) (classifiedSelection, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var parsed classifiedSelection
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return classifiedSelection{}, fmt.Errorf("parsing classify response: %w (response: %s)", err, responseText)
	}
	parsed.SelectedID = strings.TrimSpace(parsed.SelectedID)
	return parsed, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
