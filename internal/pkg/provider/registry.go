package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RegistryClient npm 包名可用性查询
type RegistryClient struct {
	base
}

func NewRegistryClient(baseURL string, timeout time.Duration) *RegistryClient {
	return &RegistryClient{base: newBase("registry", baseURL, timeout)}
}

// Available 包名未被注册时返回 true（registry 返回 404）
func (c *RegistryClient) Available(ctx context.Context, name string) (bool, error) {
	pkg := url.PathEscape(strings.ToLower(name))
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/"+pkg, nil)
	if err != nil {
		return false, err
	}

	err = c.do(req, nil)
	if err == nil {
		return false, nil
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return true, nil
	}
	return false, err
}
