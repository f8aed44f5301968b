// Package advisor turns recent entries into short, free-text suggestions
// through an OpenAI-compatible chat completion API.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"motocusto/internal/ports"
)

const systemPrompt = `You are an expert consultant for delivery couriers riding motorcycles, ` +
	`specialised in maximising their earnings and efficiency. Analyse the courier's past entries ` +
	`and give at most two clear, actionable suggestions on how to earn more on each trip. ` +
	`Answer with a JSON object of the form {"suggestions": ["...", "..."]}.`

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("advisor is not configured")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the chat completion endpoint.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

var _ ports.Advisor = (*Client)(nil)

func New(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: model, timeout: timeout}
}

type suggestionResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (c *Client) Suggest(ctx context.Context, entries []ports.AdvisorEntry) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(entries)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return ParseSuggestions(resp.Choices[0].Message.Content)
}

// Prompt lists the entries one per line.
func Prompt(entries []ports.AdvisorEntry) string {
	var b strings.Builder
	b.WriteString("Past entries:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- Date: %s, Distance: %.1f km, Food expenses: %.2f, Other expenses: %.2f, Earnings: %.2f\n",
			e.Date, e.DistanceKm, e.FoodExpense, e.OtherExpenses, e.GrossEarnings)
	}
	return b.String()
}

// ParseSuggestions reads the JSON answer, dropping blank suggestions.
func ParseSuggestions(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out suggestionResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	suggestions := make([]string, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Suggest(context.Context, []ports.AdvisorEntry) ([]string, error) {
	return nil, ErrDisabled
}
