// Package openai provides an LLMClient implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/infrastructure/config"
)

const suggestionPrompt = `You are an assistant for tabletop campaign records. From the given session notes, extract concrete state changes to named entities.

For each state change, identify:
- entityID: The name of the entity as written in the notes (the user maps names to IDs later)
- field: The property that changed, in snake_case (e.g. status, location, ruler)
- fromValue: The value before the change, if the notes say it (optional)
- toValue: The value after the change
- description: One short sentence summarizing the change (optional)

Only report changes that actually happened in the notes. Do not invent changes.

Return ONLY a valid JSON array, no other text.

Example:
Input: "Aldric was crowned king of Valdria. The old capital Highspire burned down."
Output: [
  {"entityID": "Aldric", "field": "status", "toValue": "King of Valdria"},
  {"entityID": "Highspire", "field": "condition", "fromValue": "standing", "toValue": "burned down"}
]`

// Client implements the LLMClient interface using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI LLM client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(cfg.APIKey)

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// SuggestOutcomes extracts candidate event outcomes from session notes.
func (c *Client) SuggestOutcomes(ctx context.Context, text string) ([]entities.EventOutcome, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: suggestionPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	content = cleanJSONResponse(content)

	var raw []rawOutcome
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parsing outcomes JSON: %w (response: %s)", err, content)
	}

	outcomes := make([]entities.EventOutcome, 0, len(raw))
	for _, ro := range raw {
		if ro.EntityID == "" || ro.Field == "" {
			continue
		}
		outcomes = append(outcomes, entities.EventOutcome{
			EntityID:    ro.EntityID,
			Field:       ro.Field,
			FromValue:   valueToString(ro.FromValue),
			ToValue:     valueToString(ro.ToValue),
			Description: ro.Description,
		})
	}

	return outcomes, nil
}

// rawOutcome is the JSON structure for suggested outcomes. Values are typed
// loosely because the LLM occasionally returns numbers or booleans.
type rawOutcome struct {
	EntityID    string `json:"entityID"`
	Field       string `json:"field"`
	FromValue   any    `json:"fromValue,omitempty"`
	ToValue     any    `json:"toValue"`
	Description string `json:"description,omitempty"`
}

// valueToString converts a loosely typed value to string.
func valueToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int(val)) {
			return strconv.Itoa(int(val))
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
