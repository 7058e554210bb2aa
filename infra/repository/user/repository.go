package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Pelmeshek11/FlipEx/pkg/dto"
	userrepo "github.com/Pelmeshek11/FlipEx/pkg/repository/user"
)

type repository struct {
	db *gorm.DB
}

// New creates the gorm-backed user repository.
func New(db *gorm.DB) userrepo.Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreate(
	ctx context.Context,
	create dto.UserCreate,
) (*dto.UserRead, error) {
	var user User
	err := r.db.WithContext(
		ctx,
	).Where("telegram_id = ?", create.TelegramID).First(&user).Error
	if err == nil {
		return mapModelToDTO(&user), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = User{
		TelegramID: create.TelegramID,
		Username:   create.Username,
		FullName:   create.FullName,
	}
	// Concurrent first contact can race the insert; the unique index
	// resolves it, so re-read on conflict.
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if readErr := r.db.WithContext(
			ctx,
		).Where("telegram_id = ?", create.TelegramID).First(&user).Error; readErr != nil {
			return nil, err
		}
	}
	return mapModelToDTO(&user), nil
}

func mapModelToDTO(user *User) *dto.UserRead {
	return &dto.UserRead{
		ID:           user.ID,
		TelegramID:   user.TelegramID,
		Username:     user.Username,
		FullName:     user.FullName,
		RegisteredAt: user.RegisteredAt,
	}
}
