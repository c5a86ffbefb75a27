package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/pkg/provider"
)

var errFakeProvider = errors.New("fake provider down")

func testPlans() *PlanService {
	cfg := &config.Config{}
	defaults := config.DefaultPlans()
	cfg.Plans = config.PlansConfig{
		Unauthenticated: defaults["unauthenticated"],
		Free:            defaults["free"],
		Pro:             defaults["pro"],
		Business:        defaults["business"],
	}
	return NewPlanService(cfg)
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakePlanNames struct {
	names map[string]string
	err   error
	calls int
}

func (f *fakePlanNames) PlanName(ctx context.Context, planID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.names[planID], nil
}

type fakePortal struct {
	url string
	err error
}

func (f *fakePortal) PortalURL(ctx context.Context, customerID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url + "?customer=" + customerID, nil
}

type fakeDomains struct {
	mu      sync.Mutex
	results []provider.DomainAvailability
	err     error
	queries []string
}

func (f *fakeDomains) Check(ctx context.Context, query string) ([]provider.DomainAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakePackages struct {
	taken map[string]bool
	err   error
}

func (f *fakePackages) Available(ctx context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.taken[name], nil
}

type fakeText struct {
	suggestions string
	content     string
	err         error
	calls       int
}

func (f *fakeText) SuggestPackageNames(ctx context.Context, name string) (string, error) {
	f.calls++
	return f.suggestions, f.err
}

func (f *fakeText) OnePagerContent(ctx context.Context, name, description string) (string, error) {
	f.calls++
	return f.content, f.err
}

type fakeLogos struct {
	url    string
	err    error
	calls  int
	during func()
}

func (f *fakeLogos) GenerateLogo(ctx context.Context, name string) (string, error) {
	f.calls++
	if f.during != nil {
		f.during()
		<-ctx.Done()
		return "", fmt.Errorf("image: %w", ctx.Err())
	}
	return f.url, f.err
}

type fakeLogoStore struct {
	prefix string
	err    error
}

func (f *fakeLogoStore) PersistLogo(ctx context.Context, nameID, sourceURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.prefix + nameID + ".png", nil
}

type fakeRenderer struct {
	link string
	err  error
	last provider.RenderRequest
}

func (f *fakeRenderer) Render(ctx context.Context, in provider.RenderRequest) (string, error) {
	f.last = in
	return f.link, f.err
}

type fakeBilling struct {
	portalURL   string
	portalErr   error
	portalCalls int
	products    map[string]string
	productErr  error
	event       *billing.Event
	eventErr    error
	subs        map[string]*billing.Subscription
	subsErr     error
}

func (f *fakeBilling) NewPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	f.portalCalls++
	if f.portalErr != nil {
		return "", f.portalErr
	}
	return f.portalURL + "/" + customerID + "?return=" + returnURL, nil
}

func (f *fakeBilling) PriceProductName(ctx context.Context, priceID string) (string, error) {
	if f.productErr != nil {
		return "", f.productErr
	}
	return f.products[priceID], nil
}

func (f *fakeBilling) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	sub, ok := f.subs[subscriptionID]
	if !ok {
		return nil, errFakeProvider
	}
	return sub, nil
}

func (f *fakeBilling) ParseEvent(payload []byte, signature string) (*billing.Event, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	return f.event, nil
}

type sentMail struct {
	to      string
	payload string
}

type fakeMailer struct {
	configured   bool
	err          error
	confirmation []sentMail
	welcome      []sentMail
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) SendConfirmation(to, confirmLink string) error {
	if f.err != nil {
		return f.err
	}
	f.confirmation = append(f.confirmation, sentMail{to: to, payload: confirmLink})
	return nil
}

func (f *fakeMailer) SendWelcome(to, name string) error {
	if f.err != nil {
		return f.err
	}
	f.welcome = append(f.welcome, sentMail{to: to, payload: name})
	return nil
}

// codeFromLink 从确认链接中取出验证码
func codeFromLink(t *testing.T, link string) string {
	t.Helper()
	idx := strings.Index(link, "code=")
	if idx < 0 {
		t.Fatalf("no code in link %q", link)
	}
	return link[idx+len("code="):]
}

func strPtr(s string) *string { return &s }
