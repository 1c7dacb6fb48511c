package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecrets map[string]map[string]string

func (s stubSecrets) GetSecretMap(_ context.Context, name string) (map[string]string, error) {
	if m, ok := s[name]; ok {
		return m, nil
	}
	return nil, errors.New("secret not found")
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://db:27017/fancy")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTGRES_USER", "fancy")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "fancy")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg := FromEnv()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 45*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, "none", cfg.EventBus)
	assert.Equal(t, int64(900), cfg.S3PresignExpiry)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Empty(t, cfg.AdminAllowedIPs)
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("MONGO_TRANSACTIONS", "false")
	t.Setenv("EVENT_BUS", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ADMIN_ALLOWED_IPS", "10.0.0.1,10.0.0.2")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.MongoTransactions)
	assert.Equal(t, "kafka", cfg.EventBus)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.AdminAllowedIPs)
}

func TestFromEnv_LocalMongo(t *testing.T) {
	setRequired(t)
	t.Setenv("LOCAL_MONGODB", "true")
	assert.Equal(t, localMongoURI, FromEnv().MongoURI)
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_TTL", "forever")
	t.Setenv("S3_PRESIGN_EXPIRY_SECONDS", "soon")
	t.Setenv("CLOUDWATCH_ENABLED", "maybe")

	cfg := FromEnv()
	assert.Equal(t, 45*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(900), cfg.S3PresignExpiry)
	assert.False(t, cfg.CloudWatchEnable)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing mongo", func(c *Config) { c.MongoURI = "" }, "MONGODB_URI"},
		{"missing jwt", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"missing postgres", func(c *Config) { c.PostgresPassword = "" }, "database config incomplete"},
		{"bad event bus", func(c *Config) { c.EventBus = "rabbit" }, "unsupported EVENT_BUS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			cfg := FromEnv()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestApplySecrets(t *testing.T) {
	setRequired(t)
	cfg := FromEnv()

	cfg.ApplySecrets(context.Background(), stubSecrets{
		"fancy/DB_CREDENTIALS": {"POSTGRES_PASSWORD": "from-secrets", "MONGODB_URI": ""},
		"fancy/APP_SECRETS":    {"JWT_SECRET": "rotated", "STRIPE_SECRET_KEY": "sk_test_1"},
	})

	assert.Equal(t, "from-secrets", cfg.PostgresPassword)
	assert.Equal(t, "mongodb://db:27017/fancy", cfg.MongoURI, "empty secrets keep the env value")
	assert.Equal(t, "rotated", cfg.JWTSecret)
	assert.Equal(t, "sk_test_1", cfg.StripeSecretKey)
}

func TestPostgresDSN(t *testing.T) {
	setRequired(t)
	dsn := FromEnv().PostgresDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "user=fancy")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "TimeZone=UTC")
}
