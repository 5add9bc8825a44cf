package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/footprint-shield/internal/domain/ai"
	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
	"github.com/bryanwahyu/footprint-shield/internal/infra/ai/prompt"
)

const (
	classifyMaxTokens = 300
	chatMaxTokens     = 400
	defaultModel      = "gpt-4o-mini"
)

// Client talks to an OpenAI-compatible chat completion API. It implements
// harassment.Classifier and ai.Companion.
type Client struct {
	*openai.Client
	Model      string
	categories []string
}

// NewClient builds a client. baseURL may be empty for the public API.
// categories restricts the labels the model is asked to use.
func NewClient(apiKey, model, baseURL string, categories []string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, categories: categories}
}

func (c *Client) model() string {
	if c.Model == "" {
		return defaultModel
	}
	return c.Model
}

// setMaxTokens follows the reasoning-model split between MaxTokens and MaxCompletionTokens.
func (c *Client) setMaxTokens(req *openai.ChatCompletionRequest, n int) {
	m := req.Model
	if strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5") {
		req.MaxCompletionTokens = n
	} else {
		req.MaxTokens = n
	}
}

// Classify implements harassment.Classifier.
func (c *Client) Classify(ctx context.Context, text string) (harassment.Result, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model(),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetClassifierSystemPrompt(c.categories)},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetClassifierUserPrompt(text)},
		},
	}
	c.setMaxTokens(&req, classifyMaxTokens)

	content, err := c.complete(ctx, req)
	if err != nil {
		return harassment.Result{}, err
	}

	var res harassment.Result
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return harassment.Result{}, errors.Wrap(harassment.ErrInvalidResult, err.Error())
	}
	res.Severity = harassment.Severity(strings.ToLower(string(res.Severity)))
	if err := res.Validate(); err != nil {
		return harassment.Result{}, err
	}
	return res, nil
}

// Reply implements ai.Companion.
func (c *Client) Reply(ctx context.Context, history []domai.ChatTurn, message string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt.GetCompanionSystemPrompt()})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == openai.ChatMessageRoleAssistant || turn.Role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	req := openai.ChatCompletionRequest{
		Model:       c.model(),
		Messages:    msgs,
		Temperature: 0.7,
	}
	c.setMaxTokens(&req, chatMaxTokens)
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", errors.Wrap(domai.ErrQuotaExceeded, apiErr.Message)
		}
		return "", errors.Wrap(err, "failed to create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
