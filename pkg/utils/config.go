package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Payment   PaymentConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Broker    BrokerConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	Migrate  bool
}

type PaymentConfig struct {
	Provider          string
	SecretKey         string
	WebhookSecret     string
	Currency          string
	MinorUnitFactor   int64
	SuccessURL        string
	CancelURL         string
	APIBaseURL        string
	CallbackTolerance time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string

	// Gateway callbacks arrive in bursts from a few provider addresses and
	// get a separate, larger bucket.
	WebhookCapacity     int
	WebhookRefillTokens int
}

// ForWebhook returns the bucket settings of the payment webhook route.
func (c RateLimitConfig) ForWebhook() RateLimitConfig {
	webhook := c
	webhook.Capacity = c.WebhookCapacity
	webhook.RefillTokens = c.WebhookRefillTokens
	webhook.Prefix = c.Prefix + ":webhook"
	return webhook
}

type BrokerConfig struct {
	URL   string
	Queue string
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads the given env file if it exists; environment variables
// always win over the file.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "event-marketplace")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("PAYMENT_PROVIDER", "stripe")
	v.SetDefault("PAYMENT_CURRENCY", "bdt")
	v.SetDefault("PAYMENT_MINOR_UNIT_FACTOR", 100)
	v.SetDefault("PAYMENT_CALLBACK_TOLERANCE", "5m")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_CAPACITY", 30)
	v.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
	v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "2s")
	v.SetDefault("RATE_LIMIT_TTL", "10m")
	v.SetDefault("RATE_LIMIT_PREFIX", "rl")
	v.SetDefault("WEBHOOK_RATE_LIMIT_CAPACITY", 300)
	v.SetDefault("WEBHOOK_RATE_LIMIT_REFILL_TOKENS", 50)
	v.SetDefault("BROKER_QUEUE", "booking.events")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Payment: PaymentConfig{
			Provider:          v.GetString("PAYMENT_PROVIDER"),
			SecretKey:         v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret:     v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:          v.GetString("PAYMENT_CURRENCY"),
			MinorUnitFactor:   v.GetInt64("PAYMENT_MINOR_UNIT_FACTOR"),
			SuccessURL:        v.GetString("PAYMENT_SUCCESS_URL"),
			CancelURL:         v.GetString("PAYMENT_CANCEL_URL"),
			APIBaseURL:        v.GetString("STRIPE_API_BASE_URL"),
			CallbackTolerance: v.GetDuration("PAYMENT_CALLBACK_TOLERANCE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
			Capacity:       v.GetInt("RATE_LIMIT_CAPACITY"),
			RefillTokens:   v.GetInt("RATE_LIMIT_REFILL_TOKENS"),
			RefillInterval: v.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
			TTL:            v.GetDuration("RATE_LIMIT_TTL"),
			Prefix:         v.GetString("RATE_LIMIT_PREFIX"),

			WebhookCapacity:     v.GetInt("WEBHOOK_RATE_LIMIT_CAPACITY"),
			WebhookRefillTokens: v.GetInt("WEBHOOK_RATE_LIMIT_REFILL_TOKENS"),
		},
		Broker: BrokerConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("BROKER_QUEUE"),
		},
	}

	if config.Payment.MinorUnitFactor < 1 {
		config.Payment.MinorUnitFactor = 1
	}
	if config.RateLimit.Capacity < 1 {
		config.RateLimit.Capacity = 1
	}
	if config.RateLimit.RefillTokens < 1 {
		config.RateLimit.RefillTokens = 1
	}
	if config.RateLimit.WebhookCapacity < config.RateLimit.Capacity {
		config.RateLimit.WebhookCapacity = config.RateLimit.Capacity
	}
	if config.RateLimit.WebhookRefillTokens < config.RateLimit.RefillTokens {
		config.RateLimit.WebhookRefillTokens = config.RateLimit.RefillTokens
	}
	if config.RateLimit.RefillInterval <= 0 {
		config.RateLimit.RefillInterval = time.Second
	}

	return config, nil
}
