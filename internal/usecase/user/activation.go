package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"identity-service/internal/domain/notification"
	domainUser "identity-service/internal/domain/user"
	"identity-service/internal/logger"
	"identity-service/internal/token"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"go.uber.org/zap"
)

type activationPayload struct {
	User           domainUser.PendingUser `json:"user"`
	ActivationCode string                 `json:"activation_code"`
}

// Register validates a sign-up, mails a one-time code and returns the signed
// activation token holding the pending user. Nothing is persisted.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	req.sanitize()
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, validationError(err)
	}

	if err := s.ensureAvailable(ctx, req.Email, string(req.PhoneNumber)); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	code, err := generateActivationCode()
	if err != nil {
		return nil, err
	}

	pending := domainUser.PendingUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		PhoneNumber:  string(req.PhoneNumber),
		Address:      req.Address,
	}

	activationToken, expiresAt, err := token.Issue(s.codec, activationPayload{
		User:           pending,
		ActivationCode: code,
	}, token.Activation, s.config.Token.ActivationTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue activation token: %w", err)
	}

	err = s.mailer.Send(ctx, notification.Message{
		To:       pending.Email,
		Subject:  "Activate your account",
		Template: notification.TemplateActivation,
		Data: map[string]string{
			"name":           pending.Name,
			"activationCode": code,
		},
	})
	if err != nil {
		// Registration still succeeds without the email.
		logger.Error("Failed to send activation email",
			zap.String("email", pending.Email),
			zap.String("event", "activation_mail_failed"),
			zap.Error(err),
		)
	}

	logger.Info("User registration pending activation",
		zap.String("email", pending.Email),
		zap.Time("expires_at", expiresAt),
		zap.String("event", "user_registered"),
	)
	s.record(ctx, notification.ActivityEvent{
		Type:  notification.ActivityRegistered,
		Email: pending.Email,
	})

	return &RegisterResponse{
		Message:         fmt.Sprintf("Please check your email: %s to activate your account", pending.Email),
		ActivationToken: activationToken,
		ExpiresAt:       expiresAt,
	}, nil
}

// Activate redeems an activation token and its code into a stored user.
func (s *Service) Activate(ctx context.Context, req *ActivateRequest) (*ActivateResponse, error) {
	req.sanitize()
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	payload, err := token.Verify[activationPayload](s.codec, req.ActivationToken, token.Activation)
	if err != nil {
		logger.Warn("Activation with invalid token",
			zap.Bool("expired", errors.Is(err, token.ErrTokenExpired)),
			zap.String("event", "activation_failed_invalid_token"),
		)
		return nil, appErrors.ErrInvalidOrExpiredActivation
	}

	if subtle.ConstantTimeCompare([]byte(payload.ActivationCode), []byte(req.ActivationCode)) != 1 {
		logger.Warn("Activation with wrong code",
			zap.String("email", payload.User.Email),
			zap.String("event", "activation_failed_invalid_code"),
		)
		return nil, appErrors.ErrInvalidActivationCode
	}

	if err := s.ensureAvailable(ctx, payload.User.Email, payload.User.PhoneNumber); err != nil {
		return nil, err
	}

	newUser := payload.User.ToUser()
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		switch {
		case errors.Is(err, domainUser.ErrUserAlreadyExists):
			return nil, appErrors.ErrDuplicateEmail
		case errors.Is(err, domainUser.ErrPhoneAlreadyExists):
			return nil, appErrors.ErrDuplicatePhone
		default:
			logger.Error("Failed to create activated user",
				zap.String("email", newUser.Email),
				zap.String("event", "activation_failed_persistence"),
				zap.Error(err),
			)
			return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
		}
	}

	logger.Info("User activated",
		zap.String("user_id", newUser.ID.String()),
		zap.String("email", newUser.Email),
		zap.String("event", "user_activated"),
	)
	s.record(ctx, notification.ActivityEvent{
		Type:   notification.ActivityActivated,
		UserID: newUser.ID.String(),
		Email:  newUser.Email,
	})

	return &ActivateResponse{User: ToUserResponse(newUser)}, nil
}
