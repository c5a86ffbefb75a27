package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gabriel-vasile/mimetype"

	"github.com/qs3c/namebase_server/config"
)

// 生成图片的下载上限
const maxLogoBytes = 10 << 20

type Client struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
	cdnDomain  string
	httpClient *http.Client
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		bucket:     bucket,
		bucketName: cfg.BucketName,
		endpoint:   cfg.Endpoint,
		cdnDomain:  cfg.CDNDomain,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// PersistLogo 下载图片生成服务返回的临时地址并转存到 OSS，返回长期可访问的 URL
func (c *Client) PersistLogo(ctx context.Context, nameID, sourceURL string) (string, error) {
	data, err := c.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	contentType, ext := DetectImage(data)
	objectKey := LogoObjectKey(nameID, time.Now(), ext)

	err = c.bucket.PutObject(objectKey, bytes.NewReader(data), oss.ContentType(contentType))
	if err != nil {
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}

	return c.GetURL(objectKey), nil
}

func (c *Client) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download logo: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
}

// GetURL 获取文件访问 URL
func (c *Client) GetURL(objectKey string) string {
	return ObjectURL(c.cdnDomain, c.bucketName, c.endpoint, objectKey)
}

func ObjectURL(cdnDomain, bucketName, endpoint, objectKey string) string {
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cdnDomain, objectKey)
	}
	return fmt.Sprintf("https://%s.%s/%s", bucketName, endpoint, objectKey)
}

func LogoObjectKey(nameID string, at time.Time, ext string) string {
	return fmt.Sprintf("logos/%s/%d%s", nameID, at.Unix(), ext)
}

// DetectImage 根据内容嗅探图片类型，非图片按 PNG 处理
func DetectImage(data []byte) (contentType, ext string) {
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		switch m.String() {
		case "image/png", "image/jpeg", "image/webp", "image/gif":
			return m.String(), m.Extension()
		}
	}
	return "image/png", ".png"
}
