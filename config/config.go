package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "github.com/bardan8586/Fancy-Enterprise/pkg/aws"
	"github.com/joho/godotenv"
)

const localMongoURI = "mongodb://localhost:27017/ecommerce"

// Config holds all configuration for the storefront API.
type Config struct {
	Port   string
	AppEnv string

	MongoURI          string
	MongoDBName       string
	MongoTransactions bool

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	FrontendURL     string
	ResetURLBase    string
	AdminAllowedIPs []string

	CloudinaryURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPassword   string
	SMTPSenderName string

	GoogleClientID string

	// EventBus selects where order events go: "sns", "kafka" or "none".
	EventBus            string
	OrderEventsTopicARN string
	KafkaBrokers        []string
	KafkaOrderTopic     string

	PaymentEventsQueueURL string

	S3UploadBucket   string
	S3PublicBaseURL  string
	S3PresignExpiry  int64
	CloudWatchEnable bool
	CloudWatchNS     string
	CloudWatchGroup  string

	UseSecrets bool
}

// SecretGetter is satisfied by the Secrets Manager client.
type SecretGetter interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Load reads configuration from .env and environment variables with optional
// Secrets Manager override.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()

	if cfg.UseSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err == nil {
			cfg.ApplySecrets(context.Background(), aws_pkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv() *Config {
	mongoURI := os.Getenv("MONGODB_URI")
	if os.Getenv("LOCAL_MONGODB") == "true" {
		mongoURI = localMongoURI
	}

	return &Config{
		Port:   getEnv("PORT", "9000"),
		AppEnv: getEnv("APP_ENV", "development"),

		MongoURI:          mongoURI,
		MongoDBName:       getEnv("MONGO_DB_NAME", "ecommerce"),
		MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", true),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:    getEnvDuration("JWT_TTL", 45*time.Hour),

		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
		ResetURLBase:    getEnv("RESET_URL_BASE", "http://localhost:5173/reset-password"),
		AdminAllowedIPs: splitList(os.Getenv("ADMIN_ALLOWED_IPS")),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      getEnv("STRIPE_CURRENCY", "usd"),

		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASS"),
		SMTPSenderName: getEnv("SMTP_SENDER_NAME", "Fancy"),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		EventBus:            strings.ToLower(getEnv("EVENT_BUS", "none")),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		KafkaBrokers:        splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaOrderTopic:     getEnv("KAFKA_ORDER_TOPIC", "orders.events"),

		PaymentEventsQueueURL: os.Getenv("PAYMENT_EVENTS_QUEUE_URL"),

		S3UploadBucket:   os.Getenv("S3_UPLOAD_BUCKET"),
		S3PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
		S3PresignExpiry:  int64(getEnvInt("S3_PRESIGN_EXPIRY_SECONDS", 900)),
		CloudWatchEnable: getEnvBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNS:     getEnv("CLOUDWATCH_NAMESPACE", "Fancy"),
		CloudWatchGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/fancy/api"),

		UseSecrets: os.Getenv("AWS_USE_SECRETS") == "true",
	}
}

// ApplySecrets overrides credentials with the values stored in Secrets Manager.
// Missing secrets are ignored so local runs keep their environment values.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretGetter) {
	if m, err := sm.GetSecretMap(ctx, "fancy/DB_CREDENTIALS"); err == nil {
		setIfPresent(&c.MongoURI, m, "MONGODB_URI")
		setIfPresent(&c.PostgresUser, m, "POSTGRES_USER")
		setIfPresent(&c.PostgresPassword, m, "POSTGRES_PASSWORD")
		setIfPresent(&c.PostgresDB, m, "POSTGRES_DB")
		setIfPresent(&c.PostgresHost, m, "POSTGRES_HOST")
		setIfPresent(&c.PostgresPort, m, "POSTGRES_PORT")
	}

	if m, err := sm.GetSecretMap(ctx, "fancy/APP_SECRETS"); err == nil {
		setIfPresent(&c.JWTSecret, m, "JWT_SECRET")
		setIfPresent(&c.StripeSecretKey, m, "STRIPE_SECRET_KEY")
		setIfPresent(&c.StripeWebhookSecret, m, "STRIPE_WEBHOOK_SECRET")
		setIfPresent(&c.CloudinaryURL, m, "CLOUDINARY_URL")
		setIfPresent(&c.SMTPPassword, m, "SMTP_PASS")
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is not defined in environment variables")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not defined in environment variables")
	}
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	switch c.EventBus {
	case "sns", "kafka", "none":
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}
	return nil
}

// IsProduction reports whether the API runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PostgresDSN renders the libpq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func setIfPresent(dst *string, m map[string]string, key string) {
	if v, ok := m[key]; ok && v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
