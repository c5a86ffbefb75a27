package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrNoImage = errors.New("image: no image returned")

type ImageConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Size    string
	Timeout time.Duration
}

// ImageClient OpenAI 兼容的图片生成客户端
type ImageClient struct {
	base
	model string
	size  string
}

func NewImageClient(cfg ImageConfig) *ImageClient {
	c := &ImageClient{
		base:  newBase("image", cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
		size:  cfg.Size,
	}
	if cfg.APIKey != "" {
		c.header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return c
}

// GenerateLogo 为名称生成 Logo，返回图片地址
func (c *ImageClient) GenerateLogo(ctx context.Context, name string) (string, error) {
	payload := map[string]interface{}{
		"model":  c.model,
		"prompt": fmt.Sprintf("A minimal, modern flat vector logo for a startup called %q, on a plain white background, no text other than the name.", name),
		"n":      1,
		"size":   c.size,
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/images/generations", payload)
	if err != nil {
		return "", err
	}

	var out struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", ErrNoImage
	}
	return out.Data[0].URL, nil
}
