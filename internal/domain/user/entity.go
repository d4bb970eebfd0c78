package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a persisted account. It only comes into existence through
// activation; before that the same data travels inside the activation token
// as a PendingUser.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	PhoneNumber  string
	Address      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PendingUser is a registration that has not been activated yet. It is never
// written to the store.
type PendingUser struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash"`
	PhoneNumber  string  `json:"phone_number"`
	Address      *string `json:"address,omitempty"`
}

func (p PendingUser) ToUser() *User {
	return &User{
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		PhoneNumber:  p.PhoneNumber,
		Address:      p.Address,
	}
}
