// Package app assembles the exchange pipeline from configuration:
// database, repositories, rate cache, oracle, validator, payment
// gateway and the conversation flow.
package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/Pelmeshek11/FlipEx/infra"
	rediscache "github.com/Pelmeshek11/FlipEx/infra/cache"
	"github.com/Pelmeshek11/FlipEx/infra/provider/cryptopay"
	exchangeinfra "github.com/Pelmeshek11/FlipEx/infra/repository/exchange"
	userinfra "github.com/Pelmeshek11/FlipEx/infra/repository/user"
	"github.com/Pelmeshek11/FlipEx/pkg/cache"
	"github.com/Pelmeshek11/FlipEx/pkg/config"
	"github.com/Pelmeshek11/FlipEx/pkg/currency"
	"github.com/Pelmeshek11/FlipEx/pkg/exchange/core"
	"github.com/Pelmeshek11/FlipEx/pkg/exchange/flow"
	"github.com/Pelmeshek11/FlipEx/pkg/oracle"
	exchangerepo "github.com/Pelmeshek11/FlipEx/pkg/repository/exchange"
	userrepo "github.com/Pelmeshek11/FlipEx/pkg/repository/user"
)

// App holds every assembled component of the running process.
type App struct {
	Config   *config.App
	DB       *gorm.DB
	Registry *currency.Registry
	Oracle   *oracle.Oracle
	Flow     *flow.Flow
	Ledger   exchangerepo.Repository
	Users    userrepo.Repository
	Logger   *slog.Logger
}

// New wires the application. Policy numbers were validated at config
// load, so the parse errors here are re-checks.
func New(cfg *config.App, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := infra.NewDBConnection(cfg.DB)
	if err != nil {
		return nil, err
	}

	ledger := exchangeinfra.New(db)
	users := userinfra.New(db)

	registry := currency.NewRegistry()
	maxAmounts, err := cfg.Exchange.MaxAmountsDecimal()
	if err != nil {
		return nil, err
	}
	for code, max := range maxAmounts {
		if meta, ok := registry.Get(code); ok {
			meta.MaxAmount = max
			registry.Register(meta)
		} else {
			logger.Warn("max amount override for unknown asset", "asset", code)
		}
	}

	gateway := cryptopay.NewClient(cfg.CryptoPay, logger)

	var rateCache cache.RateCache
	if cfg.Redis.Url != "" {
		redisCache, err := rediscache.NewRedisRateCache(cfg.Redis.Url, logger)
		if err != nil {
			return nil, err
		}
		rateCache = redisCache
		logger.Info("using redis rate cache")
	} else {
		rateCache = cache.NewMemoryRateCache()
		logger.Info("using in-memory rate cache")
	}

	fallback, err := cfg.Exchange.FallbackRatesDecimal()
	if err != nil {
		return nil, err
	}
	priceOracle := oracle.New(gateway, rateCache, oracle.Config{
		TTL:      cfg.Exchange.CacheTTL,
		Fallback: fallback,
	}, logger)

	minUSDT, err := cfg.Exchange.MinUSDTDecimal()
	if err != nil {
		return nil, err
	}
	commission, err := cfg.Exchange.CommissionRateDecimal()
	if err != nil {
		return nil, err
	}
	limits := core.Limits{MinUSDT: minUSDT, CommissionRate: commission}

	validator := core.NewValidator(priceOracle, registry, limits, logger)

	exchangeFlow := flow.New(flow.Deps{
		Validator:     validator,
		Resolver:      priceOracle,
		Registry:      registry,
		Ledger:        ledger,
		Users:         users,
		Gateway:       gateway,
		InvoiceExpiry: cfg.CryptoPay.InvoiceExpiry,
		Logger:        logger,
	})

	return &App{
		Config:   cfg,
		DB:       db,
		Registry: registry,
		Oracle:   priceOracle,
		Flow:     exchangeFlow,
		Ledger:   ledger,
		Users:    users,
		Logger:   logger,
	}, nil
}
