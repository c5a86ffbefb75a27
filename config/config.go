package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OSS       OSSConfig       `mapstructure:"oss"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Email     EmailConfig     `mapstructure:"email"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
	Plans     PlansConfig     `mapstructure:"plans"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AppConfig 前端相关地址，用于生成跳转链接
type AppConfig struct {
	FrontendURL string `mapstructure:"frontend_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

// Enabled 是否配置了 OSS
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.BucketName != ""
}

type OAuthConfig struct {
	Github GithubOAuthConfig `mapstructure:"github"`
}

type GithubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type SessionConfig struct {
	ViewStateTTLHours int `mapstructure:"view_state_ttl_hours"` // 展示状态保留时长，对应一次浏览会话
	LockTTLSeconds    int `mapstructure:"lock_ttl_seconds"`     // 身份锁过期时间
}

type PlansConfig struct {
	Unauthenticated PlanConfig `mapstructure:"unauthenticated"`
	Free            PlanConfig `mapstructure:"free"`
	Pro             PlanConfig `mapstructure:"pro"`
	Business        PlanConfig `mapstructure:"business"`
}

type PlanConfig struct {
	Title               string `mapstructure:"title"`
	Price               string `mapstructure:"price"`
	Description         string `mapstructure:"description"`
	Badge               string `mapstructure:"badge"`
	Support             string `mapstructure:"support"`
	Link                string `mapstructure:"link"`
	NameGenerations     int    `mapstructure:"name_generations"`
	DomainLookups       int    `mapstructure:"domain_lookups"`
	NpmNameLookups      int    `mapstructure:"npm_name_lookups"`
	OnePagerGenerations int    `mapstructure:"one_pager_generations"`
	TrademarkChecks     int    `mapstructure:"trademark_checks"`
	LogoGenerations     int    `mapstructure:"logo_generations"`
}

type StripeConfig struct {
	SecretKey             string `mapstructure:"secret_key"`
	WebhookSecret         string `mapstructure:"webhook_secret"`
	PortalReturnPath      string `mapstructure:"portal_return_path"`
	PortalCacheTTLSeconds int    `mapstructure:"portal_cache_ttl_seconds"`
}

type ProvidersConfig struct {
	TimeoutSeconds int              `mapstructure:"timeout_seconds"`
	Domain         DomainProvider   `mapstructure:"domain"`
	Registry       RegistryProvider `mapstructure:"registry"`
	Completion     LLMProvider      `mapstructure:"completion"`
	Image          ImageProvider    `mapstructure:"image"`
	OnePager       OnePagerProvider `mapstructure:"one_pager"`
}

type DomainProvider struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type RegistryProvider struct {
	BaseURL string `mapstructure:"base_url"`
}

type LLMProvider struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type ImageProvider struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
}

type OnePagerProvider struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("app.frontend_url", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("jwt.expire_hours", 168)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("session.view_state_ttl_hours", 24)
	v.SetDefault("session.lock_ttl_seconds", 15)

	v.SetDefault("stripe.portal_return_path", "/account")
	v.SetDefault("stripe.portal_cache_ttl_seconds", 240)

	v.SetDefault("providers.timeout_seconds", 60)
	v.SetDefault("providers.registry.base_url", "https://registry.npmjs.org")
	v.SetDefault("providers.completion.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.completion.model", "gpt-4o-mini")
	v.SetDefault("providers.completion.max_tokens", 1024)
	v.SetDefault("providers.completion.temperature", 0.7)
	v.SetDefault("providers.image.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.image.model", "dall-e-3")
	v.SetDefault("providers.image.size", "1024x1024")

	for key, plan := range DefaultPlans() {
		prefix := "plans." + key + "."
		v.SetDefault(prefix+"title", plan.Title)
		v.SetDefault(prefix+"price", plan.Price)
		v.SetDefault(prefix+"description", plan.Description)
		v.SetDefault(prefix+"badge", plan.Badge)
		v.SetDefault(prefix+"support", plan.Support)
		v.SetDefault(prefix+"link", plan.Link)
		v.SetDefault(prefix+"name_generations", plan.NameGenerations)
		v.SetDefault(prefix+"domain_lookups", plan.DomainLookups)
		v.SetDefault(prefix+"npm_name_lookups", plan.NpmNameLookups)
		v.SetDefault(prefix+"one_pager_generations", plan.OnePagerGenerations)
		v.SetDefault(prefix+"trademark_checks", plan.TrademarkChecks)
		v.SetDefault(prefix+"logo_generations", plan.LogoGenerations)
	}
}

// DefaultPlans 内置的套餐权益，配置文件可覆盖
func DefaultPlans() map[string]PlanConfig {
	return map[string]PlanConfig{
		"unauthenticated": {
			Title:           "Guest",
			Link:            "/signup",
			NameGenerations: 3,
		},
		"free": {
			Title:               "Free",
			Price:               "$0",
			Description:         "Free forever",
			Support:             "AI-assisted support",
			Link:                "/signup",
			NameGenerations:     10,
			DomainLookups:       5,
			NpmNameLookups:      5,
			OnePagerGenerations: 1,
			TrademarkChecks:     1,
			LogoGenerations:     1,
		},
		"pro": {
			Title:               "Pro",
			Price:               "$4.99",
			Description:         "/ month",
			Badge:               "Popular",
			Support:             "Basic email support",
			NameGenerations:     50,
			DomainLookups:       50,
			NpmNameLookups:      50,
			OnePagerGenerations: 10,
			TrademarkChecks:     10,
			LogoGenerations:     10,
		},
		"business": {
			Title:               "Business",
			Price:               "$19.99",
			Description:         "/ month",
			Support:             "Advanced email & phone support",
			NameGenerations:     250,
			DomainLookups:       250,
			NpmNameLookups:      250,
			OnePagerGenerations: 50,
			TrademarkChecks:     50,
			LogoGenerations:     50,
		},
	}
}
