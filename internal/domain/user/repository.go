package user

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

// Repository defines the interface for user repository operations.
// Create reports unique violations as ErrUserAlreadyExists or
// ErrPhoneAlreadyExists; lookups report ErrUserNotFound. UpdatePassword only
// writes while the stored hash still equals currentHash and otherwise reports
// ErrPasswordChanged.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, currentHash, newHash string) (*User, error)
}
