package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrPhoneAlreadyExists = errors.New("user with this phone number already exists")

	// ErrPasswordChanged means the stored hash no longer matches the one the
	// caller read, or the user is gone.
	ErrPasswordChanged = errors.New("password was changed concurrently")
)
