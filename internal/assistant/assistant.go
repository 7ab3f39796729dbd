// Package assistant answers product questions through a chat completion API
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// Fallback is shown when no reply could be produced
	Fallback = "Sorry, something went wrong. Please try again later."

	temperature = 0.7
	maxTokens   = 500
	maxHistory  = 20
)

var ErrDisabled = errors.New("assistant is not configured")

type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type Assistant struct {
	client *openai.Client
	model  string
}

// New returns an assistant talking to the OpenAI API. baseURL may be empty.
func New(apiKey, baseURL, model string) (*Assistant, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model == "" {
		model = openai.GPT4oMini
	}

	return &Assistant{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Reply sends the conversation with a system prompt built from info and
// returns the first choice. On failure the error comes with Fallback.
func (a *Assistant) Reply(ctx context.Context, history []Message, info string) (string, error) {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem,
		Content: "You are a helpful assistant for an invoice archive used by accountants. " +
			"Use the following information about the system:\n\n" + info +
			"\n\nAnswer briefly and in a friendly tone, explain step by step when needed.",
	})

	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		zap.L().Error("Failed to get chat completion", zap.Error(err))
		return Fallback, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Fallback, nil
	}

	return resp.Choices[0].Message.Content, nil
}
