package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App   AppConfig
	Redis RedisConfig
	Cart  CartConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CUROCART_APP_ENV" required:"true"`
	Port         string `envconfig:"CUROCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CUROCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CUROCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"CUROCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CUROCART_REDIS_ADDR"`
	Password     string        `envconfig:"CUROCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CUROCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CUROCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CUROCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CUROCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CUROCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CUROCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig carries the default cart economics. Each pharmacy cart may
// override them through its delivery configuration.
type CartConfig struct {
	FlatDeliveryFee       string `envconfig:"CUROCART_CART_FLAT_DELIVERY_FEE" default:"50"`
	TaxRate               string `envconfig:"CUROCART_CART_TAX_RATE" default:"0.05"`
	FreeDeliveryThreshold string `envconfig:"CUROCART_CART_FREE_DELIVERY_THRESHOLD" default:"500"`
	MinOrderAmount        string `envconfig:"CUROCART_CART_MIN_ORDER_AMOUNT" default:"0"`
	PersistQueueSize      int    `envconfig:"CUROCART_CART_PERSIST_QUEUE_SIZE" default:"256"`
}

func (c CartConfig) validate() error {
	for name, raw := range map[string]string{
		EnvCartFlatDeliveryFee:       c.FlatDeliveryFee,
		EnvCartTaxRate:               c.TaxRate,
		EnvCartFreeDeliveryThreshold: c.FreeDeliveryThreshold,
		EnvCartMinOrderAmount:        c.MinOrderAmount,
	} {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid decimal %q", name, raw)
		}
		if value.IsNegative() {
			return fmt.Errorf("%s: must be non-negative", name)
		}
	}
	return nil
}

// FlatDeliveryFeeAmount returns the configured flat fee as a decimal.
func (c CartConfig) FlatDeliveryFeeAmount() decimal.Decimal {
	return mustDecimal(c.FlatDeliveryFee)
}

// TaxRateAmount returns the configured tax rate as a decimal.
func (c CartConfig) TaxRateAmount() decimal.Decimal {
	return mustDecimal(c.TaxRate)
}

// FreeDeliveryThresholdAmount returns the free-delivery threshold as a decimal.
func (c CartConfig) FreeDeliveryThresholdAmount() decimal.Decimal {
	return mustDecimal(c.FreeDeliveryThreshold)
}

// MinOrderAmountValue returns the default minimum order amount as a decimal.
func (c CartConfig) MinOrderAmountValue() decimal.Decimal {
	return mustDecimal(c.MinOrderAmount)
}

// mustDecimal assumes validate ran at load time.
func mustDecimal(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}
