// Package config loads runtime settings from an optional YAML file and
// SOLARLOAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"solar-loan/service"
)

const envPrefix = "SOLARLOAN"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Cache       CacheConfig       `mapstructure:"cache"`
	History     HistoryConfig     `mapstructure:"history"`
	Calculation CalculationConfig `mapstructure:"calculation"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RateLimitConfig struct {
	Capacity int           `mapstructure:"capacity"`
	Window   time.Duration `mapstructure:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type CacheConfig struct {
	Backend   string        `mapstructure:"backend"` // "memory" o "redis"
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type HistoryConfig struct {
	Size int `mapstructure:"size"`
}

// CalculationConfig holds the product scenario: the default rate and term,
// the month the credit lands in, and the credit fractions a quote compares.
type CalculationConfig struct {
	AnnualRate               float64 `mapstructure:"annual_rate"`
	LumpMonth                int     `mapstructure:"lump_month"`
	TermYears                int     `mapstructure:"term_years"`
	PrimaryCreditFraction    float64 `mapstructure:"primary_credit_fraction"`
	ComparisonCreditFraction float64 `mapstructure:"comparison_credit_fraction"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	calc := service.DefaultSettings()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("rate_limit.capacity", 5)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"https://solar-1e6d6b.webflow.io"})

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("history.size", 1000)

	v.SetDefault("calculation.annual_rate", calc.AnnualRate)
	v.SetDefault("calculation.lump_month", calc.LumpMonth)
	v.SetDefault("calculation.term_years", calc.TermYears)
	v.SetDefault("calculation.primary_credit_fraction", calc.PrimaryCreditFraction)
	v.SetDefault("calculation.comparison_credit_fraction", calc.ComparisonCreditFraction)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads settings into a Config. An empty path skips the file.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid configuration")

func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.RateLimit.Capacity <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("%w: rate limit needs a positive capacity and window", ErrInvalidConfig)
	}

	calc := c.Calculation
	if calc.TermYears < service.MinTermYears || calc.TermYears > service.MaxTermYears {
		return fmt.Errorf("%w: calculation.term_years %d", ErrInvalidConfig, calc.TermYears)
	}
	if calc.LumpMonth < service.MinLumpMonth || calc.LumpMonth > calc.TermYears*12 {
		return fmt.Errorf("%w: calculation.lump_month %d outside the term", ErrInvalidConfig, calc.LumpMonth)
	}
	if calc.AnnualRate < 0 || calc.AnnualRate > service.MaxAnnualRate {
		return fmt.Errorf("%w: calculation.annual_rate %g", ErrInvalidConfig, calc.AnnualRate)
	}
	for _, f := range []float64{calc.PrimaryCreditFraction, calc.ComparisonCreditFraction} {
		if f < 0 || f > 1 {
			return fmt.Errorf("%w: credit fraction %g outside [0,1]", ErrInvalidConfig, f)
		}
	}
	return nil
}

// Defaults converts the calculation section for the loan service.
func (c Config) Defaults() service.Defaults {
	return service.Defaults{
		AnnualRate:               c.Calculation.AnnualRate,
		LumpMonth:                c.Calculation.LumpMonth,
		TermYears:                c.Calculation.TermYears,
		PrimaryCreditFraction:    c.Calculation.PrimaryCreditFraction,
		ComparisonCreditFraction: c.Calculation.ComparisonCreditFraction,
	}
}
