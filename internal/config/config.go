package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Expo     ExpoConfig     `mapstructure:"expo"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	TTL      TTLConfig      `mapstructure:"ttl"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id"`
	Topics          []string `mapstructure:"topics"`
}

type ExpoConfig struct {
	// PushURL is the push delivery endpoint. Defaults to the public Expo API.
	PushURL string `mapstructure:"push_url"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	// PlatformFeePercent is the marketplace cut of every charge (10 = 10%).
	PlatformFeePercent float64 `mapstructure:"platform_fee_percent"`
	Currency           string  `mapstructure:"currency"`
}

type WebhookConfig struct {
	// Secret is the shared secret the CDC pipeline sends in X-Webhook-Secret.
	Secret string `mapstructure:"secret"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type DispatchConfig struct {
	// TimeoutSeconds bounds all remote calls of a single event invocation.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type TTLConfig struct {
	RetentionDays int `mapstructure:"retention_days"` // Default: 30
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: TAILMATES_NOTIF_
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "tailmates")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group_id", "tailmates-notification-group")
	v.SetDefault("kafka.topics", []string{"db-change-events"})
	v.SetDefault("expo.push_url", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("stripe.platform_fee_percent", 10)
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("dispatch.timeout_seconds", 10)
	v.SetDefault("ttl.retention_days", 30)

	// Environment variables (e.g. DATABASE_HOST -> database.host)
	v.SetEnvPrefix("TAILMATES_NOTIF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support simple env vars without prefix for Docker Compose convenience
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("expo.push_url", "EXPO_PUSH_URL")
	v.BindEnv("stripe.secret_key", "STRIPE_SECRET_KEY")
	v.BindEnv("webhook.secret", "WEBHOOK_SECRET")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("server.port", "PORT")

	// Try loading config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // Not required

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" dbname=" + d.Name +
		" user=" + d.User +
		" password=" + d.Password +
		" sslmode=disable"
}
