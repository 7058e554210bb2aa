package dto

import "time"

// UserCreate carries the identity fields delivered by the transport on
// first contact.
type UserCreate struct {
	TelegramID int64
	Username   string
	FullName   string
}

// UserRead is the read model of a registered user.
type UserRead struct {
	ID           int64
	TelegramID   int64
	Username     string
	FullName     string
	RegisteredAt time.Time
}
