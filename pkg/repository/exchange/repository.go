// Package exchange declares the ledger contract for exchange requests.
// The implementation lives in infra/repository/exchange.
package exchange

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/dto"
)

// Repository is the durable exchange ledger. Rows are append-only:
// Update mutates lifecycle fields on an existing row, nothing is ever
// deleted.
type Repository interface {
	// Create inserts a new exchange request.
	Create(ctx context.Context, create dto.ExchangeCreate) error

	// Update applies the non-nil fields of update to the request.
	Update(ctx context.Context, id uuid.UUID, update dto.ExchangeUpdate) error

	// Get returns a request by id, or domain.ErrRequestNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.ExchangeRequest, error)

	// GetLatestByUser returns the user's most recent request, or
	// domain.ErrRequestNotFound when the user has none.
	GetLatestByUser(ctx context.Context, userID int64) (*domain.ExchangeRequest, error)

	// Stats returns the aggregate ledger counts.
	Stats(ctx context.Context) (*dto.ExchangeStats, error)
}
