package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
service_name = "storefront"
environment = "staging"

[http]
port = 8081

[database]
driver = "mysql"
dsn = "user:pass@tcp(localhost:3306)/aroma?parseTime=true"

[auth]
jwt_secret = "s3cret"

[checkout]
tax_rate = 0.1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesFileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, 8081, cfg.HTTP.Port)
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.InDelta(t, 0.1, cfg.Checkout.TaxRate, 1e-9)
	assert.InDelta(t, 5.99, cfg.Checkout.FlatShipping, 1e-9)
	assert.Equal(t, 100, cfg.Loyalty.PointsPerCurrencyUnit)
	assert.Equal(t, "fake", cfg.Payment.Provider)
	assert.Equal(t, 5*time.Second, cfg.Jobs.OutboxRelayInterval)
	assert.Equal(t, 100, cfg.Jobs.OutboxBatchSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "9999")
	t.Setenv("APP_PAYMENT_SECRET_KEY", "sk_test_env")

	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "sk_test_env", cfg.Payment.SecretKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ServiceName: "storefront",
			Environment: "prod",
			HTTP:        HTTPConfig{Port: 8080},
			GRPC:        GRPCConfig{Port: 50051},
			Database:    DatabaseConfig{Driver: "mysql", DSN: "dsn"},
			Auth:        AuthConfig{JWTSecret: "x"},
			Loyalty:     LoyaltyConfig{PointsPerCurrencyUnit: 100},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Auth.JWTSecret = ""
	assert.Error(t, c.Validate(), "prod without jwt secret")

	c = base()
	c.Database.DSN = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Checkout.TaxRate = -0.1
	assert.Error(t, c.Validate())

	c = base()
	c.HTTP.Port = 70000
	assert.Error(t, c.Validate())

	c = base()
	c.Environment = ""
	c.Auth.JWTSecret = ""
	require.NoError(t, c.Validate())
	assert.Equal(t, "dev", c.Environment)
}

func TestShippedConfigsLoad(t *testing.T) {
	for _, name := range []string{"storefront", "notification"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("..", "..", "configs", name, "config.toml"))
			require.NoError(t, err)
			assert.Equal(t, name, cfg.ServiceName)
			assert.NotEmpty(t, cfg.Kafka.Brokers)
			assert.True(t, cfg.SMTP.DryRun)
		})
	}
}
