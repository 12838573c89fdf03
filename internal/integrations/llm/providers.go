package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"accountbot/internal/domain"
	"accountbot/internal/selection"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// --- Anthropic ---

func callAnthropic(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d", len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func callOpenAI(ctx context.Context, apiKey, model, systemPrompt, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}

	if openAIResp.Error != nil {
		log.Printf("llm openai api error: %s", openAIResp.Error.Message)
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	log.Printf("llm openai response size=%d", len(openAIResp.Choices[0].Message.Content))
	return openAIResp.Choices[0].Message.Content, nil
}

// --- Local classifier ---

// The local provider posts to a classifier service exposing POST /classify
// with {text, options, context} and {success, selected_id, confidence}.

type localClassifyRequest struct {
	Text    string               `json:"text"`
	Options []localOptionPayload `json:"options"`
	Context string               `json:"context,omitempty"`
}

type localOptionPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type localClassifyResponse struct {
	Success      bool    `json:"success"`
	SelectedID   string  `json:"selected_id"`
	SelectedName string  `json:"selected_name"`
	Confidence   float64 `json:"confidence"`
	Error        string  `json:"error"`
}

func (c *Classifier) classifyLocal(ctx context.Context, req selection.ClassifyRequest) (domain.AIClassification, error) {
	payload := localClassifyRequest{
		Text:    req.Text,
		Context: req.Context,
	}
	for _, opt := range req.Options {
		payload.Options = append(payload.Options, localOptionPayload{ID: opt.ID, Name: opt.Name})
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return domain.AIClassification{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.ClassifierURL, "/") + "/classify"
	log.Printf("llm classify provider=local url=%s options=%d", url, len(req.Options))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return domain.AIClassification{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := externalHTTPClient.Do(httpReq)
	if err != nil {
		log.Printf("llm local classifier error: %v", err)
		return domain.AIClassification{}, fmt.Errorf("local classifier error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AIClassification{}, fmt.Errorf("local classifier status %d", resp.StatusCode)
	}

	var parsed localClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.AIClassification{}, fmt.Errorf("parsing local classifier response: %w", err)
	}

	if !parsed.Success || strings.TrimSpace(parsed.SelectedID) == "" {
		if parsed.Error != "" {
			log.Printf("llm local classifier declined: %s", parsed.Error)
		}
		return domain.AIClassification{}, nil
	}
	return domain.AIClassification{
		SelectedKey: strings.TrimSpace(parsed.SelectedID),
		Confidence:  clampConfidence(parsed.Confidence),
		Available:   true,
	}, nil
}
