package summary

import (
	"context"
	"errors"

	pkghttp "StockBrief/pkg/http"
)

// OpenAIConfig holds chat completion settings.
type OpenAIConfig struct {
	URL         string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAI is a Completer backed by the chat completions endpoint.
type OpenAI struct {
	cfg  OpenAIConfig
	http *pkghttp.Client
}

func NewOpenAI(cfg OpenAIConfig, opts ...pkghttp.ClientOption) *OpenAI {
	if cfg.URL == "" {
		cfg.URL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	opts = append([]pkghttp.ClientOption{pkghttp.WithName("openai")}, opts...)
	return &OpenAI{cfg: cfg, http: pkghttp.NewClient(opts...)}
}

func (o *OpenAI) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	var resp chatResponse
	err := o.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    o.cfg.URL,
		Headers: map[string]string{
			"Authorization": "Bearer " + o.cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Body: chatRequest{
			Model:       o.cfg.Model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   o.cfg.MaxTokens,
			Temperature: o.cfg.Temperature,
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
