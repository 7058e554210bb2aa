package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/dto"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func exchangeColumns() []string {
	return []string{
		"id", "reference", "user_id", "asset",
		"gross_amount", "rate", "usdt_value", "commission", "net_payout",
		"status", "invoice_id", "invoice_url", "check_id", "check_url",
		"created_at", "settled_at",
	}
}

func TestGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository{db: db}
	id := uuid.New()

	rows := sqlmock.NewRows(exchangeColumns()).AddRow(
		id, "a1b2c3d4", int64(42), "TON",
		"0.5", "2.0", "1.0", "0.05", "0.95",
		"pending", int64(12345), "https://pay", int64(0), "",
		time.Now().UTC(), nil,
	)
	mock.ExpectQuery(`SELECT \* FROM "exchanges" WHERE id = \$1(.+)LIMIT \$2`).
		WithArgs(id, 1).WillReturnRows(rows)

	read, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", read.Reference)
	assert.Equal(t, "TON", read.Asset)
	assert.True(t, read.NetPayout.Equal(decimal.RequireFromString("0.95")))
	assert.Equal(t, int64(12345), read.InvoiceID)

	mock.ExpectQuery(`SELECT \* FROM "exchanges" WHERE id = \$1(.+)LIMIT \$2`).
		WithArgs(sqlmock.AnyArg(), 1).WillReturnError(gorm.ErrRecordNotFound)

	_, err = repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestGetLatestByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository{db: db}

	rows := sqlmock.NewRows(exchangeColumns()).AddRow(
		uuid.New(), "ffee0011", int64(42), "BTC",
		"0.00001", "30000", "0.3", "0.015", "0.285",
		"completed", int64(1), "https://pay", int64(7), "https://check",
		time.Now().UTC(), time.Now().UTC(),
	)
	mock.ExpectQuery(`SELECT \* FROM "exchanges" WHERE user_id = \$1 ORDER BY created_at DESC(.+)LIMIT \$2`).
		WithArgs(int64(42), 1).WillReturnRows(rows)

	read, err := repo.GetLatestByUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, read.Status)
	assert.Equal(t, int64(7), read.CheckID)
	require.NotNil(t, read.SettledAt)

	mock.ExpectQuery(`SELECT \* FROM "exchanges" WHERE user_id = \$1 ORDER BY created_at DESC(.+)LIMIT \$2`).
		WithArgs(int64(99), 1).WillReturnError(gorm.ErrRecordNotFound)

	_, err = repo.GetLatestByUser(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository{db: db}
	id := uuid.New()
	status := "completed"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "exchanges" SET (.+) WHERE id = \$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), id, dto.ExchangeUpdate{Status: &status})
	require.NoError(t, err)

	// No matching row.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "exchanges" SET (.+) WHERE id = \$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = repo.Update(context.Background(), id, dto.ExchangeUpdate{Status: &status})
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	// Nothing to update short-circuits before touching the database.
	err = repo.Update(context.Background(), id, dto.ExchangeUpdate{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePropagatesDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository{db: db}
	status := "cancelled"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "exchanges" SET (.+) WHERE id = \$`).
		WillReturnError(errors.New("update error"))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), uuid.New(), dto.ExchangeUpdate{Status: &status})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository{db: db}

	mock.ExpectQuery(`(?i)SELECT COUNT\(DISTINCT\("user_id"\)\) FROM "exchanges"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM "exchanges"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(10)))
	mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM "exchanges" WHERE status = \$1`).
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(6)))
	mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM "exchanges" WHERE status = \$1`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Users)
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(6), stats.Completed)
	assert.Equal(t, int64(4), stats.Pending)
}
