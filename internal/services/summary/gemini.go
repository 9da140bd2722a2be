package summary

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig holds generation settings for the Gemini API.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	// BaseURL overrides the API endpoint, mostly for tests.
	BaseURL string
}

// Gemini is a Completer backed by google.golang.org/genai.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &Gemini{
		client: client,
		model:  cfg.Model,
		config: &genai.GenerateContentConfig{
			MaxOutputTokens: int32(cfg.MaxTokens),
			Temperature:     genai.Ptr(float32(cfg.Temperature)),
		},
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
