package config

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from the environment, optionally seeded
// from a .env file, validates it and logs a masked summary.
func Load(logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using system environment variables")
	} else {
		logger.Info("environment variables loaded from .env file")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Fail fast on malformed policy numbers instead of at first use.
	if _, err := cfg.Exchange.MinUSDTDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Exchange.CommissionRateDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Exchange.FallbackRatesDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Exchange.MaxAmountsDecimal(); err != nil {
		return nil, err
	}

	logger.Info("app config loaded",
		"env", cfg.Env,
		"server_port", cfg.Server.Port,
		"db", maskValue(cfg.DB.Url),
		"redis", cfg.Redis.Url != "",
		"crypto_pay_token", maskValue(cfg.CryptoPay.Token),
		"crypto_pay_api", cfg.CryptoPay.ApiUrl,
		"cache_ttl", cfg.Exchange.CacheTTL,
		"min_usdt", cfg.Exchange.MinUSDT,
		"commission_rate", cfg.Exchange.CommissionRate,
	)
	return &cfg, nil
}

func maskValue(value string) string {
	if len(value) <= 6 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-4:]
}
