package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid input data")

	ErrDuplicateEmail = errors.New("user already exist with this email")
	ErrDuplicatePhone = errors.New("user already exist with this phone number")

	ErrInvalidActivationCode      = errors.New("invalid activation code")
	ErrInvalidOrExpiredActivation = errors.New("activation token is invalid or expired")
	ErrInvalidOrExpiredToken      = errors.New("your token is invalid or expired")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("please login to access this resource")
	ErrUserNotFound       = errors.New("user not found with this email")

	ErrPersistence = errors.New("failed to persist user data")
	ErrDelivery    = errors.New("failed to deliver email")
)

// Stable codes rendered to clients next to the message.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeDuplicateEmail    = "DUPLICATE_EMAIL"
	CodeDuplicatePhone    = "DUPLICATE_PHONE"
	CodeInvalidCode       = "INVALID_ACTIVATION_CODE"
	CodeInvalidActivation = "INVALID_ACTIVATION_TOKEN"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeInvalidLogin      = "INVALID_CREDENTIALS"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodePersistence       = "PERSISTENCE_ERROR"
	CodeDelivery          = "DELIVERY_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

var codes = map[error]string{
	ErrValidation:                 CodeValidation,
	ErrDuplicateEmail:             CodeDuplicateEmail,
	ErrDuplicatePhone:             CodeDuplicatePhone,
	ErrInvalidActivationCode:      CodeInvalidCode,
	ErrInvalidOrExpiredActivation: CodeInvalidActivation,
	ErrInvalidOrExpiredToken:      CodeInvalidToken,
	ErrInvalidCredentials:         CodeInvalidLogin,
	ErrUnauthorized:               CodeUnauthorized,
	ErrUserNotFound:               CodeUserNotFound,
	ErrPersistence:                CodePersistence,
	ErrDelivery:                   CodeDelivery,
}

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches a sentinel to a lower level cause so that errors.Is matches
// both of them.
func Wrap(sentinel, cause error) *AppError {
	return &AppError{
		Code:    CodeOf(sentinel),
		Message: sentinel.Error(),
		Err:     errors.Join(sentinel, cause),
	}
}

// CodeOf returns the stable code for err, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	for sentinel, code := range codes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeInternal
}
