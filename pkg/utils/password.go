package utils

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultHashCost = 10

	MinPasswordLength = 8
	// bcrypt ignores everything after the 72nd byte.
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
)

// PasswordHasher hashes and checks credentials with bcrypt. It is safe for
// concurrent use.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	cost = clampCost(cost)
	return &PasswordHasher{cost: cost, dummy: dummyDigest(cost)}
}

func clampCost(cost int) int {
	switch {
	case cost == 0:
		return DefaultHashCost
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}

// dummyDigest is the digest Equalize compares against.
func dummyDigest(cost int) []byte {
	seed := make([]byte, 32)
	_, _ = rand.Read(seed)
	// 32 random bytes stay under the bcrypt input limit.
	digest, err := bcrypt.GenerateFromPassword(seed, cost)
	if err != nil {
		panic(fmt.Sprintf("utils: building dummy bcrypt digest: %v", err))
	}
	return digest
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

func (h *PasswordHasher) Compare(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Equalize burns the same amount of work as Compare against a real account.
// Login calls it for unknown emails.
func (h *PasswordHasher) Equalize(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
