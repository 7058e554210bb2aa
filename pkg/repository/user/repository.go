// Package user declares the user store contract.
package user

import (
	"context"

	"github.com/Pelmeshek11/FlipEx/pkg/dto"
)

// Repository persists user identities.
type Repository interface {
	// GetOrCreate returns the user with the given transport identity,
	// registering them on first contact.
	GetOrCreate(ctx context.Context, create dto.UserCreate) (*dto.UserRead, error)
}
