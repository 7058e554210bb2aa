package user

import "time"

// User is a registered user keyed by their transport identity.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	TelegramID   int64     `gorm:"uniqueIndex;not null"`
	Username     string    `gorm:"size:255"`
	FullName     string    `gorm:"size:255"`
	RegisteredAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
