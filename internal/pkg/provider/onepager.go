package provider

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var ErrNoDocument = errors.New("one-pager: no document link returned")

// RenderRequest 一页纸渲染参数
type RenderRequest struct {
	Content string       `json:"content"`
	Name    RenderName   `json:"name"`
	User    RenderAuthor `json:"user"`
	LogoURL *string      `json:"logoUrl"`
}

type RenderName struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RenderAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OnePagerClient 一页纸 PDF 渲染服务
type OnePagerClient struct {
	base
}

func NewOnePagerClient(baseURL, apiKey string, timeout time.Duration) *OnePagerClient {
	c := &OnePagerClient{base: newBase("one-pager", baseURL, timeout)}
	if apiKey != "" {
		c.header.Set("Authorization", "Bearer "+apiKey)
	}
	return c
}

// Render 渲染 PDF 并返回文档链接
func (c *OnePagerClient) Render(ctx context.Context, in RenderRequest) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL, in)
	if err != nil {
		return "", err
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Link == "" {
		return "", ErrNoDocument
	}
	return out.Link, nil
}
