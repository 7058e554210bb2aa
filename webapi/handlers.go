package webapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Pelmeshek11/FlipEx/pkg/dto"
	"github.com/Pelmeshek11/FlipEx/pkg/oracle"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

// StatsReader is the slice of the ledger the stats endpoint needs.
type StatsReader interface {
	Stats(ctx context.Context) (*dto.ExchangeStats, error)
}

// HealthHandler reports process liveness and ledger connectivity.
func HealthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Context())
		}
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusServiceUnavailable, "Database Unreachable", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", nil)
	}
}

// StatsHandler exposes the aggregate ledger counts.
func StatsHandler(ledger StatsReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := ledger.Stats(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Stats Unavailable", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "exchange stats", stats)
	}
}

// rateView is the wire shape of one rate table entry.
type rateView struct {
	Pair      string `json:"pair"`
	Rate      string `json:"rate"`
	Provider  string `json:"provider"`
	FetchedAt string `json:"fetched_at"`
}

// RatesHandler exposes the oracle's current rate table.
func RatesHandler(o *oracle.Oracle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		table, err := o.Snapshot(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusServiceUnavailable, "Rates Unavailable", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "exchange rates", toRateViews(table))
	}
}

func toRateViews(table []rates.RateInfo) []rateView {
	out := make([]rateView, 0, len(table))
	for _, info := range table {
		out = append(out, rateView{
			Pair:      info.Pair(),
			Rate:      info.Rate.String(),
			Provider:  info.Provider,
			FetchedAt: info.FetchedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
