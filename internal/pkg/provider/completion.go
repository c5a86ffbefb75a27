package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyCompletion = errors.New("completion: empty response")

type CompletionConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// CompletionClient OpenAI 兼容的 chat completions 客户端
type CompletionClient struct {
	base
	model       string
	maxTokens   int
	temperature float64
}

func NewCompletionClient(cfg CompletionConfig) *CompletionClient {
	c := &CompletionClient{
		base:        newBase("completion", cfg.BaseURL, cfg.Timeout),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if cfg.APIKey != "" {
		c.header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete 发送一次对话补全请求
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("completion: API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// SuggestPackageNames 请求一组 npm 包名候选，返回按行分隔的原始文本
func (c *CompletionClient) SuggestPackageNames(ctx context.Context, name string) (string, error) {
	system := "You suggest npm package names for startups. Reply with a numbered list, one lowercase package name per line, no explanations."
	user := fmt.Sprintf("Suggest 5 npm package names for a startup called %q.", name)
	return c.Complete(ctx, system, user)
}

// OnePagerContent 生成一页纸营销文案
func (c *CompletionClient) OnePagerContent(ctx context.Context, name, description string) (string, error) {
	system := "You write concise one-page marketing overviews for early stage startups."
	user := fmt.Sprintf("Write a one-pager for a startup called %q. Description: %s. Include a tagline, the problem, the solution and key features.", name, description)
	return c.Complete(ctx, system, user)
}
