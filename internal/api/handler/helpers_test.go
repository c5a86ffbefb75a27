package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/namebase_server/config"
	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/pkg/billing"
	"github.com/qs3c/namebase_server/internal/pkg/email"
	"github.com/qs3c/namebase_server/internal/pkg/lock"
	"github.com/qs3c/namebase_server/internal/pkg/oauth"
	"github.com/qs3c/namebase_server/internal/pkg/provider"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/pkg/tasks"
	"github.com/qs3c/namebase_server/internal/pkg/viewstate"
	"github.com/qs3c/namebase_server/internal/repository"
	"github.com/qs3c/namebase_server/internal/service"
	"github.com/qs3c/namebase_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testJWTSecret     = "test-secret-key"
	testWebhookSecret = "whsec_handler_test"
)

// testEnv 由真实服务组成，外部依赖指向本地 httptest 服务
type testEnv struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Cfg      *config.Config
	Upstream *httptest.Server
	Registry *tasks.Registry

	Auth     *service.AuthService
	Quota    *service.QuotaService
	Names    *service.NameService
	Assets   *service.AssetService
	Profiles *service.ProfileService
	Billing  *service.BillingService
	Plans    *service.PlanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	rdb, _ := testutil.SetupTestRedis(t)
	upstream := newUpstream(t)

	defaults := config.DefaultPlans()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		App:    config.AppConfig{FrontendURL: "https://namebase.test"},
		JWT:    config.JWTConfig{Secret: testJWTSecret, ExpireHours: 24},
		OAuth: config.OAuthConfig{Github: config.GithubOAuthConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURI:  "http://localhost:8080/callback",
		}},
		Plans: config.PlansConfig{
			Unauthenticated: defaults["unauthenticated"],
			Free:            defaults["free"],
			Pro:             defaults["pro"],
			Business:        defaults["business"],
		},
		Stripe: config.StripeConfig{PortalReturnPath: "/account", PortalCacheTTLSeconds: 240},
	}

	log := zerolog.Nop()
	profileRepo := repository.NewProfileRepository(db)
	nameRepo := repository.NewNameRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	billingService := service.NewBillingService(cfg, profileRepo, billing.NewClient("", testWebhookSecret), rdb, log)
	plans := service.NewPlanService(cfg)

	timeout := 5 * time.Second
	providers := service.AssetProviders{
		Domains:  provider.NewDomainClient(upstream.URL+"/domains", "", timeout),
		Packages: provider.NewRegistryClient(upstream.URL+"/registry", timeout),
		Text: provider.NewCompletionClient(provider.CompletionConfig{
			BaseURL: upstream.URL + "/llm",
			Model:   "test-model",
			Timeout: timeout,
		}),
		Logos: provider.NewImageClient(provider.ImageConfig{
			BaseURL: upstream.URL + "/img",
			Model:   "test-image",
			Timeout: timeout,
		}),
		OnePagers: provider.NewOnePagerClient(upstream.URL+"/onepager", "", timeout),
	}

	return &testEnv{
		DB:       db,
		Redis:    rdb,
		Cfg:      cfg,
		Upstream: upstream,
		Registry: tasks.NewRegistry(),
		Auth: service.NewAuthService(profileRepo, nameRepo, cfg,
			email.NewService(&cfg.Email),
			oauth.NewGithubOAuth(cfg.OAuth.Github.ClientID, cfg.OAuth.Github.ClientSecret, cfg.OAuth.Github.RedirectURI),
			oauth.NewStateStore(rdb),
			log),
		Quota: service.NewQuotaService(profileRepo, nameRepo, plans, billingService, billingService,
			lock.NewLocker(rdb, 5*time.Second, log), log),
		Names:    service.NewNameService(nameRepo, log),
		Assets:   service.NewAssetService(nameRepo, assetRepo, profileRepo, viewstate.NewStore(rdb, time.Hour), providers, log),
		Profiles: service.NewProfileService(profileRepo, billingService, billingService, log),
		Billing:  billingService,
		Plans:    plans,
	}
}

// newUpstream 模拟域名、npm registry、LLM、图片与一页纸服务
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/domains", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		if q == "broken" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]interface{}{
			"availabilityResults": []map[string]interface{}{
				{"domain": strings.ToLower(q) + ".io", "available": true},
				{"domain": strings.ToLower(q) + ".com", "available": false},
			},
		})
	})
	mux.HandleFunc("/registry/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/registry/") == "taken" {
			writeJSON(w, map[string]string{"name": "taken"})
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/llm/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "1. alphajs\n2. taken"}},
			},
		})
	})
	mux.HandleFunc("/img/images/generations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"data": []map[string]string{{"url": "https://img.test/logo.png"}},
		})
	})
	mux.HandleFunc("/onepager", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"link": "https://docs.test/one-pager.pdf"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func mockAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	return performRequestWithHeaders(r, method, path, body, nil)
}

func performRequestWithHeaders(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap 将响应 data 转为 map
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}
