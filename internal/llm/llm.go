package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/classinsight/internal/llm/prompts"
	"github.com/pavelanni/classinsight/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyDraft is returned when the model answers without a teaching action.
var ErrEmptyDraft = errors.New("LLM returned an empty teaching action")

// Draft is a suggested teaching action for one question. It is never stored
// automatically; the caller decides whether to save it as an override.
type Draft struct {
	QuestionID     string `json:"question_id"`
	TeachingAction string `json:"teaching_action"`
	Rationale      string `json:"rationale"`
	Model          string `json:"model"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.PromptVariant
}

// New creates a new LLM client for the given prompt variant.
func New(baseURL, apiKey, modelName, variant string) (*Client, error) {
	if !prompts.IsValidVariant(variant) {
		return nil, fmt.Errorf("invalid prompt variant %q", variant)
	}
	if err := prompts.Load(nil); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.PromptVariant(variant),
	}, nil
}

// Ping checks that the endpoint is reachable and serves the configured model.
func (c *Client) Ping(ctx context.Context) error {
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range list.Models {
		if m.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not served by endpoint", c.model)
}

// DraftTeachingAction asks the model for a teaching action that fits the
// question's analysis.
func (c *Client) DraftTeachingAction(ctx context.Context, q model.QuestionAnalysis) (*Draft, error) {
	prompt, err := prompts.BuildDraftPrompt(c.variant, q)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "question_id", q.QuestionID, "raw", raw)

	draft, err := parseDraft(raw)
	if err != nil {
		return nil, err
	}
	draft.QuestionID = q.QuestionID
	draft.Model = c.model
	return draft, nil
}

func parseDraft(raw string) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &d); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	d.TeachingAction = strings.TrimSpace(d.TeachingAction)
	d.Rationale = strings.TrimSpace(d.Rationale)
	if d.TeachingAction == "" {
		return nil, ErrEmptyDraft
	}
	return &d, nil
}

// stripCodeFence removes a markdown code fence some local models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
