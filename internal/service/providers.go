package service

import (
	"context"
	"time"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/pkg/provider"
	"github.com/qs3c/namebase_server/internal/pkg/viewstate"
)

// 以下接口由 pkg 下的客户端实现，测试中以内存实现替换

type DomainChecker interface {
	Check(ctx context.Context, query string) ([]provider.DomainAvailability, error)
}

type PackageChecker interface {
	Available(ctx context.Context, name string) (bool, error)
}

type TextGenerator interface {
	SuggestPackageNames(ctx context.Context, name string) (string, error)
	OnePagerContent(ctx context.Context, name, description string) (string, error)
}

type LogoGenerator interface {
	GenerateLogo(ctx context.Context, name string) (string, error)
}

type OnePagerRenderer interface {
	Render(ctx context.Context, in provider.RenderRequest) (string, error)
}

// LogoStore 将生成的 Logo 转存为长期地址
type LogoStore interface {
	PersistLogo(ctx context.Context, nameID, sourceURL string) (string, error)
}

type ViewStates interface {
	Get(ctx context.Context, identity, nameID string) (viewstate.State, error)
	SetVisible(ctx context.Context, identity, nameID string, kind model.AssetKind, visible bool) error
}

type Locker interface {
	Acquire(ctx context.Context, name string) (func(), error)
}

// BillingProvider 计费服务商
type BillingProvider interface {
	NewPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	PriceProductName(ctx context.Context, priceID string) (string, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error)
	ParseEvent(payload []byte, signature string) (*billing.Event, error)
}

// PlanNameResolver 按价格 ID 解析套餐名
type PlanNameResolver interface {
	PlanName(ctx context.Context, planID string) (string, error)
}

// PortalResolver 获取账号的计费门户地址
type PortalResolver interface {
	PortalURL(ctx context.Context, customerID string) (string, error)
}

// Mailer 发送账号相关邮件
type Mailer interface {
	Configured() bool
	SendConfirmation(to, confirmLink string) error
	SendWelcome(to, name string) error
}

// clock 便于测试替换当前时间
type clock func() time.Time
