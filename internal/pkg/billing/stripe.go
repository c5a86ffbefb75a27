// Package billing 对接 Stripe：计费门户、价格查询与 webhook 事件解析
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

var (
	ErrNotConfigured    = errors.New("billing provider not configured")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// 关心的 webhook 事件类型
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event 从 Stripe 事件中提取的业务字段
type Event struct {
	ID                string
	Type              string
	CustomerID        string
	ClientReferenceID string
	SubscriptionID    string
	Email             string
	PriceID           string
	Status            string
}

// Active 订阅是否处于生效状态
func (e *Event) Active() bool {
	return activeStatus(e.Status)
}

// Subscription 订阅当前的价格与状态
type Subscription struct {
	ID         string
	CustomerID string
	PriceID    string
	Status     string
}

func (s *Subscription) Active() bool {
	return activeStatus(s.Status)
}

func activeStatus(status string) bool {
	return status == string(stripe.SubscriptionStatusActive) ||
		status == string(stripe.SubscriptionStatusTrialing)
}

type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	c := &Client{webhookSecret: webhookSecret}
	if secretKey != "" {
		c.api = &client.API{}
		c.api.Init(secretKey, nil)
	}
	return c
}

// Configured 是否配置了 API 密钥
func (c *Client) Configured() bool {
	return c.api != nil
}

// NewPortalSession 创建计费门户会话并返回地址
func (c *Client) NewPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// PriceProductName 查询价格对应的产品名（即套餐名）
func (c *Client) PriceProductName(ctx context.Context, priceID string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("product")

	price, err := c.api.Prices.Get(priceID, params)
	if err != nil {
		return "", fmt.Errorf("get price %s: %w", priceID, err)
	}
	if price.Product == nil {
		return "", fmt.Errorf("price %s has no product", priceID)
	}
	return price.Product.Name, nil
}

// GetSubscription 查询订阅，checkout 事件本身不带价格
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if c.api == nil {
		return nil, ErrNotConfigured
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", subscriptionID, err)
	}

	out := &Subscription{ID: sub.ID, Status: string(sub.Status), PriceID: firstPriceID(sub)}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out, nil
}

func firstPriceID(sub *stripe.Subscription) string {
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

// ParseEvent 校验签名并解析 webhook 事件
func (c *Client) ParseEvent(payload []byte, signature string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (*Event, error) {
	out := &Event{ID: event.ID, Type: string(event.Type)}

	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.ClientReferenceID = sess.ClientReferenceID
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
		out.Email = sess.CustomerEmail
		if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
			out.Email = sess.CustomerDetails.Email
		}
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		out.SubscriptionID = sub.ID
		out.Status = string(sub.Status)
		out.PriceID = firstPriceID(&sub)
	}

	return out, nil
}
