package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainUser "identity-service/internal/domain/user"
	"identity-service/pkg/utils"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Email       string     `json:"email" validate:"required,email,max=255"`
	Password    string     `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber PhoneInput `json:"phone_number" validate:"required,phone"`
	Address     *string    `json:"address" validate:"omitempty,max=500"`
}

func (r *RegisterRequest) sanitize() {
	r.Name = utils.SanitizeString(r.Name)
	r.Email = utils.SanitizeEmail(r.Email)
	r.PhoneNumber = PhoneInput(utils.SanitizePhone(string(r.PhoneNumber)))
	if r.Address != nil {
		sanitized := utils.SanitizeText(*r.Address)
		if sanitized == "" {
			r.Address = nil
		} else {
			r.Address = &sanitized
		}
	}
}

// PhoneInput is a phone number sent either as a JSON string or as a JSON
// integer such as 5551212.
type PhoneInput string

func (p *PhoneInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PhoneInput(s)
		return nil
	}

	for _, b := range data {
		if b < '0' || b > '9' {
			return fmt.Errorf("phone_number must be a string or a non-negative integer, got %s", data)
		}
	}
	*p = PhoneInput(data)
	return nil
}

type ActivateRequest struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code" validate:"required,otp"`
}

func (r *ActivateRequest) sanitize() {
	r.ActivationToken = strings.TrimSpace(r.ActivationToken)
	r.ActivationCode = strings.TrimSpace(r.ActivationCode)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Address     *string   `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RegisterResponse struct {
	Message         string    `json:"message"`
	ActivationToken string    `json:"activation_token"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type ActivateResponse struct {
	User *UserResponse `json:"user"`
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type LoginResponse struct {
	User *UserResponse `json:"user"`
	TokenPair
}

type SessionResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
}

type ResetPasswordResponse struct {
	User *UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// AuthenticatedContext is the result of a successful guard check. It lives
// for a single request and is handed to guarded operations explicitly.
type AuthenticatedContext struct {
	UserID       uuid.UUID
	User         *domainUser.User
	AccessToken  string
	RefreshToken string
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UserSnapshot is the account view embedded in password reset tokens.
type UserSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
}

func snapshotOf(u *domainUser.User) UserSnapshot {
	return UserSnapshot{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}
