package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the wallet owner. Accounts are created and authenticated by an
// external system; this server only moves Balance under lock.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
