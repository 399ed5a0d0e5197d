// Package config 提供 TOML 配置加载、环境变量覆盖与配置校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 商城服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string          `mapstructure:"environment"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Kafka       KafkaConfig     `mapstructure:"kafka"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Auth        AuthConfig      `mapstructure:"auth"`
	OAuth       OAuthConfig     `mapstructure:"oauth"`
	Payment     PaymentConfig   `mapstructure:"payment"`
	Checkout    CheckoutConfig  `mapstructure:"checkout"`
	Loyalty     LoyaltyConfig   `mapstructure:"loyalty"`
	Jobs        JobsConfig      `mapstructure:"jobs"`
	SMTP        SMTPConfig      `mapstructure:"smtp"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
	// 允许跨域的来源，空表示 *
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GRPCConfig gRPC 服务配置
type GRPCConfig struct {
	Host                 string `mapstructure:"host"`
	Port                 int    `mapstructure:"port"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql, postgres
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogEnabled      bool   `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ConnTimeout  int    `mapstructure:"conn_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	// 本地一级缓存的过期时间（秒）
	LocalCacheTTL int `mapstructure:"local_cache_ttl"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	SessionTimeout int      `mapstructure:"session_timeout"`
	MaxRetries     int      `mapstructure:"max_retries"`
	// 重试退避（毫秒）
	RetryBackoff    int    `mapstructure:"retry_backoff"`
	DeadLetterTopic string `mapstructure:"dead_letter_topic"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRate      float64 `mapstructure:"sampling_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	// 访问令牌有效期（分钟）
	TokenTTL   int `mapstructure:"token_ttl"`
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// OAuthConfig 第三方登录配置
type OAuthConfig struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURL  string `mapstructure:"google_redirect_url"`
}

// PaymentConfig 支付网关配置
type PaymentConfig struct {
	// fake 或 stripe
	Provider      string `mapstructure:"provider"`
	BaseURL       string `mapstructure:"base_url"`
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
	// 请求超时（秒）
	Timeout int `mapstructure:"timeout"`
	// 签名时间容忍窗口（秒）
	WebhookTolerance int `mapstructure:"webhook_tolerance"`
}

// CheckoutConfig 结算费用配置
type CheckoutConfig struct {
	TaxRate               float64 `mapstructure:"tax_rate"`
	FlatShipping          float64 `mapstructure:"flat_shipping"`
	FreeShippingThreshold float64 `mapstructure:"free_shipping_threshold"`
	SubscriptionDiscount  float64 `mapstructure:"subscription_discount"`
}

// LoyaltyConfig 积分配置
type LoyaltyConfig struct {
	// 每消费 1 元获得的积分
	PointsPerUnit float64 `mapstructure:"points_per_unit"`
	// 兑换 1 元所需积分
	PointsPerCurrencyUnit int `mapstructure:"points_per_currency_unit"`
	MinRedeem             int `mapstructure:"min_redeem"`
}

// JobsConfig 定时任务配置
type JobsConfig struct {
	SubscriptionSpec    string        `mapstructure:"subscription_spec"`
	OutboxRelayInterval time.Duration `mapstructure:"outbox_relay_interval"`
	OutboxCleanupSpec   string        `mapstructure:"outbox_cleanup_spec"`
	OutboxBatchSize     int           `mapstructure:"outbox_batch_size"`
}

// SMTPConfig 邮件配置
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// 为 true 时只记录日志，不真正发送
	DryRun bool `mapstructure:"dry_run"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return unmarshal(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时仅使用默认值与环境变量
func LoadWithDefaults(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		_ = v.ReadInConfig()
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && c.Environment != "dev" {
		return fmt.Errorf("auth.jwt_secret is required in %s", c.Environment)
	}
	if c.Checkout.TaxRate < 0 || c.Checkout.FlatShipping < 0 || c.Checkout.FreeShippingThreshold < 0 {
		return fmt.Errorf("checkout rates must not be negative")
	}
	if c.Loyalty.PointsPerCurrencyUnit <= 0 {
		return fmt.Errorf("loyalty.points_per_currency_unit must be positive")
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "storefront")
	v.SetDefault("version", "dev")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.max_concurrent_streams", 1000)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 500)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)
	v.SetDefault("redis.local_cache_ttl", 60)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "storefront")
	v.SetDefault("kafka.session_timeout", 10)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)
	v.SetDefault("kafka.dead_letter_topic", "storefront.dlq")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/storefront.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_endpoint", "localhost:4317")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.qps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("auth.issuer", "aromastore")
	v.SetDefault("auth.token_ttl", 60*24)
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("payment.provider", "fake")
	v.SetDefault("payment.base_url", "https://api.stripe.com")
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("payment.timeout", 10)
	v.SetDefault("payment.webhook_tolerance", 300)

	v.SetDefault("checkout.tax_rate", 0.08)
	v.SetDefault("checkout.flat_shipping", 5.99)
	v.SetDefault("checkout.free_shipping_threshold", 50.0)
	v.SetDefault("checkout.subscription_discount", 10.0)

	v.SetDefault("loyalty.points_per_unit", 1.0)
	v.SetDefault("loyalty.points_per_currency_unit", 100)
	v.SetDefault("loyalty.min_redeem", 100)

	v.SetDefault("jobs.subscription_spec", "@hourly")
	v.SetDefault("jobs.outbox_relay_interval", "5s")
	v.SetDefault("jobs.outbox_cleanup_spec", "@daily")
	v.SetDefault("jobs.outbox_batch_size", 100)

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 1025)
	v.SetDefault("smtp.from", "orders@aromastore.local")
	v.SetDefault("smtp.dry_run", true)

	// 敏感字段没有默认值，但必须注册 key，环境变量覆盖才会在 Unmarshal 时生效
	for _, key := range []string{
		"database.dsn", "redis.password", "auth.jwt_secret",
		"oauth.google_client_id", "oauth.google_client_secret", "oauth.google_redirect_url",
		"payment.secret_key", "payment.webhook_secret", "smtp.username", "smtp.password",
	} {
		v.SetDefault(key, "")
	}
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
