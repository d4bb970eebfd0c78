package user

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"

	"identity-service/internal/domain/notification"
	domainUser "identity-service/internal/domain/user"
	"identity-service/internal/logger"
	"identity-service/internal/token"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"go.uber.org/zap"
)

// resetPayload binds a reset link to the password hash it was issued
// against. Once the password changes the fingerprint no longer matches and
// the link is spent.
type resetPayload struct {
	User        UserSnapshot `json:"user"`
	Fingerprint string       `json:"fingerprint"`
}

func passwordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:])
}

func (s *Service) resetURL(resetToken string) string {
	return s.config.Client.BaseURL + "/reset-password?verify=" + url.QueryEscape(resetToken)
}

func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (*MessageResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Password reset requested for non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "password_reset_user_not_found"),
			)
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	resetToken, expiresAt, err := token.Issue(s.codec, resetPayload{
		User:        snapshotOf(user),
		Fingerprint: passwordFingerprint(user.PasswordHash),
	}, token.PasswordReset, s.config.Token.ResetTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue reset token: %w", err)
	}

	err = s.mailer.Send(ctx, notification.Message{
		To:       user.Email,
		Subject:  "Reset your Password!",
		Template: notification.TemplateForgotPassword,
		Data: map[string]string{
			"name":     user.Name,
			"resetURL": s.resetURL(resetToken),
		},
	})
	if err != nil {
		logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.String("email", user.Email),
			zap.String("event", "password_reset_mail_failed"),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(appErrors.ErrDelivery, err)
	}

	logger.Info("Password reset link sent",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.Time("expires_at", expiresAt),
		zap.String("event", "password_reset_requested"),
	)
	s.record(ctx, notification.ActivityEvent{
		Type:   notification.ActivityPasswordForgot,
		UserID: user.ID.String(),
		Email:  user.Email,
	})

	return &MessageResponse{Message: "Your forgot password request was successful"}, nil
}

// ResetPassword verifies the reset token's signature and expiry, checks it
// was issued against the current password and stores the new hash.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, validationError(err)
	}

	payload, err := token.Verify[resetPayload](s.codec, req.Token, token.PasswordReset)
	if err != nil {
		fields := []zap.Field{zap.String("event", "password_reset_invalid_token")}
		if meta, inspectErr := s.codec.Inspect(req.Token); inspectErr == nil {
			fields = append(fields,
				zap.Bool("expired", meta.Expired),
				zap.Strings("audience", meta.Audience),
			)
		}
		logger.Warn("Password reset with invalid token", fields...)
		return nil, appErrors.ErrInvalidOrExpiredToken
	}

	user, err := s.userRepo.GetByID(ctx, payload.User.ID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidOrExpiredToken
		}
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	current := passwordFingerprint(user.PasswordHash)
	if subtle.ConstantTimeCompare([]byte(current), []byte(payload.Fingerprint)) != 1 {
		logger.Warn("Password reset with spent token",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_reset_token_used"),
		)
		return nil, appErrors.ErrInvalidOrExpiredToken
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	// Of several concurrent redemptions of one link only the first passes this swap.
	updated, err := s.userRepo.UpdatePassword(ctx, user.ID, user.PasswordHash, hashedPassword)
	if err != nil {
		if errors.Is(err, domainUser.ErrPasswordChanged) || errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Password reset lost to a concurrent change",
				zap.String("user_id", user.ID.String()),
				zap.String("event", "password_reset_token_used"),
			)
			return nil, appErrors.ErrInvalidOrExpiredToken
		}
		logger.Error("Failed to update password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_reset_persistence"),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	logger.Info("Password reset successfully",
		zap.String("user_id", updated.ID.String()),
		zap.String("email", updated.Email),
		zap.String("event", "password_reset_completed"),
	)
	s.record(ctx, notification.ActivityEvent{
		Type:   notification.ActivityPasswordChanged,
		UserID: updated.ID.String(),
		Email:  updated.Email,
	})

	return &ResetPasswordResponse{User: ToUserResponse(updated)}, nil
}
