package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type DomainAvailability struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
}

// DomainClient 域名可用性查询
type DomainClient struct {
	base
}

func NewDomainClient(baseURL, apiKey string, timeout time.Duration) *DomainClient {
	c := &DomainClient{base: newBase("domain", baseURL, timeout)}
	if apiKey != "" {
		c.header.Set("Authorization", "Bearer "+apiKey)
	}
	return c
}

// Check 查询 query 对应的一组候选域名
func (c *DomainClient) Check(ctx context.Context, query string) ([]DomainAvailability, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"?query="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		AvailabilityResults []DomainAvailability `json:"availabilityResults"`
		Error               string               `json:"error"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("domain: %s", out.Error)
	}
	return out.AvailabilityResults, nil
}
