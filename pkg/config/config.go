package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/arbops/billing/pkg/types"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// WebhookConfig carries the shared secret used to verify inbound
// payment-provider notifications.
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

// GatewayConfig configures the payment-gateway API client used by the
// pending-payment poller.
type GatewayConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIToken     string        `mapstructure:"api_token"`
	Issuer       string        `mapstructure:"issuer"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

type Config struct {
	Env         Env                     `mapstructure:"env"`
	Server      ServerConfig            `mapstructure:"server"`
	Database    DBConfig                `mapstructure:"database"`
	Webhook     WebhookConfig           `mapstructure:"webhook"`
	Gateway     GatewayConfig           `mapstructure:"gateway"`
	Plans       []*types.PlanDescriptor `mapstructure:"plans"`
	MetricsAddr string                  `mapstructure:"metrics_addr"`
}

// ErrMissingConfig marks a fatal startup configuration error.
var ErrMissingConfig = errors.New("missing required configuration")

// defaultPlans is the compiled-in plan catalog, keyed by the opaque plan ids
// assigned by the payment provider. A `plans:` section in the config file
// replaces it entirely.
var defaultPlans = []*types.PlanDescriptor{
	{
		ID:          "ieFcYbH",
		Name:        "Arbitragem Básico",
		PriceCents:  5000,
		AccessLevel: types.AccessLevelBasic,
		Features:    []string{"accounts", "operations", "organizer"},
	},
	{
		ID:          "tQz3VxN",
		Name:        "Arbitragem Pro",
		PriceCents:  9900,
		AccessLevel: types.AccessLevelPro,
		Features:    []string{"accounts", "operations", "organizer", "lenders", "ledger"},
	},
	{
		ID:          "bKm9GfA",
		Name:        "Arbitragem Enterprise",
		PriceCents:  24900,
		AccessLevel: types.AccessLevelEnterprise,
		Features:    []string{"accounts", "operations", "organizer", "lenders", "ledger", "multi-seat"},
	},
}

// ResolvePlan looks a plan up by its provider-assigned id.
func (c *Config) ResolvePlan(planID string) *types.PlanDescriptor {
	for _, p := range c.Plans {
		if p.ID == planID {
			return p
		}
	}
	return nil
}

// Validate fails fast on configuration the service cannot run without.
func (c *Config) Validate() error {
	if c.Webhook.Secret == "" {
		return fmt.Errorf("%w: webhook.secret", ErrMissingConfig)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn", ErrMissingConfig)
	}
	if c.Gateway.APIToken == "" {
		return fmt.Errorf("%w: gateway.api_token", ErrMissingConfig)
	}
	return nil
}

func New() (*Config, error) {
	v := viper.New()
	// Allow overriding config file via env:
	// - APP_CONFIG_FILE: absolute or relative file path (e.g., /etc/app/prod.yaml)
	// - APP_CONFIG_NAME: config base name without extension (default: "config")
	if file := os.Getenv("APP_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		cfgName := os.Getenv("APP_CONFIG_NAME")
		if cfgName == "" {
			cfgName = "config"
		}
		v.SetConfigName(cfgName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("env", "dev")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8888)
	v.SetDefault("database.dsn", "")
	v.SetDefault("metrics_addr", ":9100")
	v.SetDefault("gateway.base_url", "https://api.payments.example.com")
	v.SetDefault("gateway.issuer", "arbops-billing")
	v.SetDefault("gateway.poll_interval", 5*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		_ = err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(c.Plans) == 0 {
		c.Plans = defaultPlans
	}
	return &c, nil
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(c *Config) error { return c.Validate() }),
)
