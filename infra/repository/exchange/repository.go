package exchange

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/dto"
	exchangerepo "github.com/Pelmeshek11/FlipEx/pkg/repository/exchange"
)

type repository struct {
	db *gorm.DB
}

// New creates the gorm-backed exchange ledger.
func New(db *gorm.DB) exchangerepo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(
	ctx context.Context,
	create dto.ExchangeCreate,
) error {
	row := &Exchange{
		ID:          create.ID,
		Reference:   create.Reference,
		UserID:      create.UserID,
		Asset:       create.Asset,
		GrossAmount: create.GrossAmount,
		Rate:        create.Rate,
		USDTValue:   create.USDTValue,
		Commission:  create.Commission,
		NetPayout:   create.NetPayout,
		Status:      create.Status,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) Update(
	ctx context.Context,
	id uuid.UUID,
	update dto.ExchangeUpdate,
) error {
	updates := make(map[string]interface{})

	if update.Status != nil {
		updates["status"] = *update.Status
	}
	if update.InvoiceID != nil {
		updates["invoice_id"] = *update.InvoiceID
	}
	if update.InvoiceURL != nil {
		updates["invoice_url"] = *update.InvoiceURL
	}
	if update.CheckID != nil {
		updates["check_id"] = *update.CheckID
	}
	if update.CheckURL != nil {
		updates["check_url"] = *update.CheckURL
	}
	if update.SettledAt != nil {
		updates["settled_at"] = *update.SettledAt
	}

	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&Exchange{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *repository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*domain.ExchangeRequest, error) {
	var row Exchange
	if err := r.db.WithContext(
		ctx,
	).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return mapModelToDomain(&row), nil
}

func (r *repository) GetLatestByUser(
	ctx context.Context,
	userID int64,
) (*domain.ExchangeRequest, error) {
	var row Exchange
	if err := r.db.WithContext(
		ctx,
	).Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return mapModelToDomain(&row), nil
}

func (r *repository) Stats(ctx context.Context) (*dto.ExchangeStats, error) {
	var stats dto.ExchangeStats

	if err := r.db.WithContext(ctx).Model(&Exchange{}).
		Distinct("user_id").Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&Exchange{}).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&Exchange{}).
		Where("status = ?", string(domain.StatusCompleted)).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&Exchange{}).
		Where("status = ?", string(domain.StatusPending)).
		Count(&stats.Pending).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func mapModelToDomain(row *Exchange) *domain.ExchangeRequest {
	return &domain.ExchangeRequest{
		ID:          row.ID,
		Reference:   row.Reference,
		UserID:      row.UserID,
		Asset:       row.Asset,
		GrossAmount: row.GrossAmount,
		Rate:        row.Rate,
		USDTValue:   row.USDTValue,
		Commission:  row.Commission,
		NetPayout:   row.NetPayout,
		Status:      domain.Status(row.Status),
		InvoiceID:   row.InvoiceID,
		InvoiceURL:  row.InvoiceURL,
		CheckID:     row.CheckID,
		CheckURL:    row.CheckURL,
		CreatedAt:   row.CreatedAt,
		SettledAt:   row.SettledAt,
	}
}
