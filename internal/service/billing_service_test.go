package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/repository"
	"github.com/qs3c/namebase_server/internal/testutil"
)

func newBillingService(t *testing.T, db *gorm.DB, fake *fakeBilling) (*BillingService, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	rdb, mr := testutil.SetupTestRedis(t)
	cfg := &config.Config{
		App: config.AppConfig{FrontendURL: "https://namebase.test/"},
		Stripe: config.StripeConfig{
			PortalReturnPath:      "/account",
			PortalCacheTTLSeconds: 240,
		},
	}
	return NewBillingService(cfg, repository.NewProfileRepository(db), fake, rdb, testLogger()), rdb, mr
}

func TestBillingService_PortalURL_Cached(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	fake := &fakeBilling{portalURL: "https://billing.stripe.test/session"}
	service, _, mr := newBillingService(t, db, fake)
	ctx := context.Background()

	url, err := service.PortalURL(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.test/session/cus_1?return=https://namebase.test/account", url)

	again, err := service.PortalURL(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, 1, fake.portalCalls)

	// 缓存过期后重新创建会话
	mr.FastForward(241 * time.Second)
	_, err = service.PortalURL(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.portalCalls)
}

func TestBillingService_PortalURL_ProviderFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service, rdb, _ := newBillingService(t, db, &fakeBilling{portalErr: errFakeProvider})

	_, err := service.PortalURL(context.Background(), "cus_1")
	assert.ErrorIs(t, err, ErrProviderFailed)

	exists, err := rdb.Exists(context.Background(), portalCachePrefix+"cus_1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestBillingService_PortalForAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service, _, _ := newBillingService(t, db, &fakeBilling{portalURL: "https://portal.test"})
	ctx := context.Background()

	withCustomer := testutil.TestProfile(t, db, testutil.WithCustomer("cus_9"))
	without := testutil.TestProfile(t, db)

	url, err := service.PortalForAccount(ctx, withCustomer.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "https://portal.test/cus_9")

	_, err = service.PortalForAccount(ctx, without.ID)
	assert.ErrorIs(t, err, ErrNoBillingAccount)

	_, err = service.PortalForAccount(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBillingService_PlanName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	fake := &fakeBilling{products: map[string]string{"price_pro": "Pro"}}
	service, _, _ := newBillingService(t, db, fake)
	ctx := context.Background()

	name, err := service.PlanName(ctx, "price_pro")
	require.NoError(t, err)
	assert.Equal(t, "Pro", name)

	// 命中进程内缓存，不再访问 Stripe
	fake.productErr = errFakeProvider
	name, err = service.PlanName(ctx, "price_pro")
	require.NoError(t, err)
	assert.Equal(t, "Pro", name)

	_, err = service.PlanName(ctx, "price_other")
	assert.ErrorIs(t, err, ErrProviderFailed)

	_, err = service.PlanName(ctx, "")
	assert.ErrorIs(t, err, ErrPlanIDRequired)
}

func TestBillingService_Webhook(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	fake := &fakeBilling{}
	service, rdb, _ := newBillingService(t, db, fake)
	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	profile := testutil.TestProfile(t, db, testutil.WithEmail("buyer@example.com"))

	t.Run("checkout links customer by email", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, portalCachePrefix+"cus_new", "stale", time.Minute).Err())
		fake.event = &billing.Event{
			ID:         "evt_1",
			Type:       billing.EventCheckoutCompleted,
			CustomerID: "cus_new",
			Email:      "Buyer@Example.com",
		}

		require.NoError(t, service.Webhook(ctx, []byte("{}"), "sig"))

		got, err := profiles.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CustomerID)
		assert.Equal(t, "cus_new", *got.CustomerID)
		assert.Nil(t, got.PlanID)

		exists, err := rdb.Exists(ctx, portalCachePrefix+"cus_new").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("active subscription sets plan", func(t *testing.T) {
		fake.event = &billing.Event{
			Type:       billing.EventSubscriptionUpdated,
			CustomerID: "cus_new",
			PriceID:    "price_pro",
			Status:     "active",
		}
		require.NoError(t, service.Webhook(ctx, nil, "sig"))

		got, err := profiles.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PlanID)
		assert.Equal(t, "price_pro", *got.PlanID)
	})

	t.Run("past due subscription clears plan", func(t *testing.T) {
		fake.event = &billing.Event{
			Type:       billing.EventSubscriptionUpdated,
			CustomerID: "cus_new",
			PriceID:    "price_pro",
			Status:     "past_due",
		}
		require.NoError(t, service.Webhook(ctx, nil, "sig"))

		got, err := profiles.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PlanID)
	})

	t.Run("deleted subscription clears plan", func(t *testing.T) {
		require.NoError(t, profiles.UpdateFields(ctx, profile.ID, map[string]interface{}{"plan_id": "price_biz"}))
		fake.event = &billing.Event{Type: billing.EventSubscriptionDeleted, CustomerID: "cus_new"}

		require.NoError(t, service.Webhook(ctx, nil, "sig"))

		got, err := profiles.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PlanID)
	})

	t.Run("checkout by client reference id", func(t *testing.T) {
		other := testutil.TestProfile(t, db)
		fake.event = &billing.Event{
			Type:              billing.EventCheckoutCompleted,
			CustomerID:        "cus_ref",
			ClientReferenceID: other.ID,
			PriceID:           "price_pro",
		}
		require.NoError(t, service.Webhook(ctx, nil, "sig"))

		got, err := profiles.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "cus_ref", *got.CustomerID)
		assert.Equal(t, "price_pro", *got.PlanID)
	})

	t.Run("unknown profile is ignored", func(t *testing.T) {
		fake.event = &billing.Event{Type: billing.EventCheckoutCompleted, CustomerID: "cus_x", Email: "nobody@example.com"}
		assert.NoError(t, service.Webhook(ctx, nil, "sig"))
	})

	t.Run("invalid signature", func(t *testing.T) {
		fake.eventErr = billing.ErrInvalidSignature
		defer func() { fake.eventErr = nil }()
		assert.ErrorIs(t, service.Webhook(ctx, nil, "bad"), billing.ErrInvalidSignature)
	})
}

func TestBillingService_Webhook_SubscriptionBeforeCheckout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	fake := &fakeBilling{}
	service, rdb, _ := newBillingService(t, db, fake)
	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	profile := testutil.TestProfile(t, db, testutil.WithEmail("early@example.com"))

	fake.event = &billing.Event{
		Type:       billing.EventSubscriptionCreated,
		CustomerID: "cus_early",
		PriceID:    "price_pro",
		Status:     "active",
	}
	require.NoError(t, service.Webhook(ctx, nil, "sig"))

	pending, err := rdb.Get(ctx, pendingPlanPrefix+"cus_early").Result()
	require.NoError(t, err)
	assert.Equal(t, "price_pro", pending)

	// checkout 不带价格，订阅查询失败时使用暂存的套餐
	fake.event = &billing.Event{
		Type:           billing.EventCheckoutCompleted,
		CustomerID:     "cus_early",
		SubscriptionID: "sub_unknown",
		Email:          "early@example.com",
	}
	require.NoError(t, service.Webhook(ctx, nil, "sig"))

	got, err := profiles.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, "cus_early", *got.CustomerID)
	require.NotNil(t, got.PlanID)
	assert.Equal(t, "price_pro", *got.PlanID)

	exists, err := rdb.Exists(ctx, pendingPlanPrefix+"cus_early").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	t.Run("canceled before checkout drops pending plan", func(t *testing.T) {
		fake.event = &billing.Event{Type: billing.EventSubscriptionCreated, CustomerID: "cus_gone", PriceID: "price_pro", Status: "active"}
		require.NoError(t, service.Webhook(ctx, nil, "sig"))
		fake.event = &billing.Event{Type: billing.EventSubscriptionDeleted, CustomerID: "cus_gone"}
		require.NoError(t, service.Webhook(ctx, nil, "sig"))

		exists, err := rdb.Exists(ctx, pendingPlanPrefix+"cus_gone").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("known customer is not stashed", func(t *testing.T) {
		fake.event = &billing.Event{Type: billing.EventSubscriptionUpdated, CustomerID: "cus_early", PriceID: "price_pro", Status: "active"}
		require.NoError(t, service.Webhook(ctx, nil, "sig"))

		exists, err := rdb.Exists(ctx, pendingPlanPrefix+"cus_early").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}

func TestBillingService_Webhook_CheckoutResolvesSubscription(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	fake := &fakeBilling{subs: map[string]*billing.Subscription{
		"sub_live":  {ID: "sub_live", CustomerID: "cus_live", PriceID: "price_biz", Status: "active"},
		"sub_trial": {ID: "sub_trial", CustomerID: "cus_trial", PriceID: "price_pro", Status: "incomplete"},
	}}
	service, _, _ := newBillingService(t, db, fake)
	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		customer     string
		subscription string
		wantPlan     *string
	}{
		{name: "active subscription", customer: "cus_live", subscription: "sub_live", wantPlan: strPtr("price_biz")},
		{name: "inactive subscription", customer: "cus_trial", subscription: "sub_trial", wantPlan: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testutil.TestProfile(t, db)
			fake.event = &billing.Event{
				Type:              billing.EventCheckoutCompleted,
				CustomerID:        tt.customer,
				SubscriptionID:    tt.subscription,
				ClientReferenceID: profile.ID,
			}
			require.NoError(t, service.Webhook(ctx, nil, "sig"))

			got, err := profiles.GetByID(ctx, profile.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlan, got.PlanID)
		})
	}
}
