package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"identity-service/internal/domain/user"
	"identity-service/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements the user.Repository interface on gorm.
type UserRepository struct {
	db  *DB
	now func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := r.now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now

	dbModel := toUserModel(u)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// uniqueConflict maps a unique violation on the email or phone index to the
// matching domain error.
func uniqueConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolation {
			return nil
		}
		if strings.Contains(pgErr.ConstraintName, "phone") {
			return user.ErrPhoneAlreadyExists
		}
		return user.ErrUserAlreadyExists
	}

	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "duplicate key") {
		return nil
	}
	if strings.Contains(errStr, "phone") {
		return user.ErrPhoneAlreadyExists
	}
	return user.ErrUserAlreadyExists
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	return r.first(ctx, "phone_number = ?", phone)
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return r.first(ctx, "id = ?", userID)
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	var dbModels []models.UserModel
	err := r.db.DB.WithContext(ctx).Order("created_at").Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]*user.User, len(dbModels))
	for i := range dbModels {
		users[i] = toUserEntity(&dbModels[i])
	}

	return users, nil
}

// UpdatePassword swaps the hash in a single conditional UPDATE so that two
// writers holding the same currentHash cannot both succeed.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, currentHash, newHash string) (*user.User, error) {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ? AND password_hash = ?", userID, currentHash).
		Updates(map[string]interface{}{
			"password_hash": newHash,
			"updated_at":    r.now().UTC(),
		})

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, user.ErrPasswordChanged
	}

	return r.GetByID(ctx, userID)
}

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		PhoneNumber:  u.PhoneNumber,
		Address:      u.Address,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		PhoneNumber:  m.PhoneNumber,
		Address:      m.Address,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
