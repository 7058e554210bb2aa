// Package infra wires the process to its external systems: the ledger
// database and the Redis rate cache.
package infra

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	exchangemodel "github.com/Pelmeshek11/FlipEx/infra/repository/exchange"
	usermodel "github.com/Pelmeshek11/FlipEx/infra/repository/user"
	"github.com/Pelmeshek11/FlipEx/pkg/config"
)

// NewDBConnection opens the ledger database and migrates its schema.
func NewDBConnection(cfg config.DB) (*gorm.DB, error) {
	connection, err := gorm.Open(
		postgres.Open(cfg.Url),
		&gorm.Config{SkipDefaultTransaction: true},
	)
	if err != nil {
		return nil, err
	}
	err = connection.AutoMigrate(&usermodel.User{}, &exchangemodel.Exchange{})
	if err != nil {
		return nil, err
	}
	return connection, nil
}
