package exchange

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Exchange is one ledger row. Monetary columns use decimal so values
// round-trip without loss.
type Exchange struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Reference   string          `gorm:"uniqueIndex;not null;size:8"`
	UserID      int64           `gorm:"index;not null"`
	Asset       string          `gorm:"not null;size:10"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(30,18);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(30,18);not null"`
	USDTValue   decimal.Decimal `gorm:"type:decimal(30,18);not null"`
	Commission  decimal.Decimal `gorm:"type:decimal(30,18);not null"`
	NetPayout   decimal.Decimal `gorm:"type:decimal(30,18);not null"`
	Status      string          `gorm:"index;not null;size:20"`
	InvoiceID   int64
	InvoiceURL  string
	CheckID     int64
	CheckURL    string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	SettledAt   *time.Time
}

// TableName specifies the table name for the Exchange model.
func (Exchange) TableName() string {
	return "exchanges"
}
