package user

import (
	"context"
	"errors"
	"fmt"

	"identity-service/internal/domain/notification"
	domainUser "identity-service/internal/domain/user"
	"identity-service/internal/logger"
	"identity-service/internal/token"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Access and refresh tokens carry the user id and nothing else.
type sessionPayload struct {
	ID uuid.UUID `json:"id"`
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			s.hasher.Equalize(req.Password)
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "user_not_found"),
			)
			s.record(ctx, notification.ActivityEvent{
				Type:     notification.ActivityLoginFailed,
				Email:    req.Email,
				Metadata: map[string]string{"reason": "unknown_email"},
			})
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	if !s.hasher.Compare(req.Password, user.PasswordHash) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", user.ID.String()),
			zap.String("email", req.Email),
			zap.String("event", "login_failed_invalid_password"),
		)
		s.record(ctx, notification.ActivityEvent{
			Type:     notification.ActivityLoginFailed,
			UserID:   user.ID.String(),
			Email:    user.Email,
			Metadata: map[string]string{"reason": "invalid_password"},
		})
		return nil, appErrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("event", "user_logged_in"),
	)
	s.record(ctx, notification.ActivityEvent{
		Type:   notification.ActivityLoggedIn,
		UserID: user.ID.String(),
		Email:  user.Email,
	})

	return &LoginResponse{
		User:      ToUserResponse(user),
		TokenPair: *pair,
	}, nil
}

// Refresh trades a valid refresh token for a new pair. There is no server
// side session, so older tokens stay valid until they expire.
func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	payload, err := token.Verify[sessionPayload](s.codec, req.RefreshToken, token.Refresh)
	if err != nil {
		logger.Warn("Refresh with invalid token",
			zap.Bool("expired", errors.Is(err, token.ErrTokenExpired)),
			zap.String("event", "refresh_failed_invalid_token"),
		)
		return nil, appErrors.ErrInvalidOrExpiredToken
	}

	user, err := s.userRepo.GetByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidOrExpiredToken
		}
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	pair, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, notification.ActivityEvent{
		Type:   notification.ActivityTokenRefreshed,
		UserID: user.ID.String(),
	})

	return pair, nil
}

func (s *Service) issueTokenPair(userID uuid.UUID) (*TokenPair, error) {
	payload := sessionPayload{ID: userID}

	accessToken, accessExpiresAt, err := token.Issue(s.codec, payload, token.Access, s.config.Token.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, refreshExpiresAt, err := token.Issue(s.codec, payload, token.Refresh, s.config.Token.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Authenticate verifies an access token and resolves its user. The refresh
// token is only carried along for GetCurrentSession.
func (s *Service) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthenticatedContext, error) {
	if accessToken == "" {
		return nil, appErrors.ErrUnauthorized
	}

	payload, err := token.Verify[sessionPayload](s.codec, accessToken, token.Access)
	if err != nil {
		logger.Debug("Rejected access token",
			zap.Bool("expired", errors.Is(err, token.ErrTokenExpired)),
			zap.String("event", "guard_rejected_token"),
		)
		return nil, appErrors.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Access token for unknown user",
				zap.String("user_id", payload.ID.String()),
				zap.String("event", "guard_unknown_user"),
			)
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	return &AuthenticatedContext{
		UserID:       user.ID,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) GetCurrentSession(_ context.Context, auth *AuthenticatedContext) (*SessionResponse, error) {
	if auth == nil || auth.User == nil {
		return nil, appErrors.ErrUnauthorized
	}

	return &SessionResponse{
		User:         ToUserResponse(auth.User),
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
	}, nil
}

// Logout acknowledges the request. Tokens are stateless and stay valid until
// they expire; clients drop them.
func (s *Service) Logout(ctx context.Context, auth *AuthenticatedContext) (*MessageResponse, error) {
	if auth == nil {
		return nil, appErrors.ErrUnauthorized
	}

	logger.Info("User logged out",
		zap.String("user_id", auth.UserID.String()),
		zap.String("event", "user_logged_out"),
	)
	s.record(ctx, notification.ActivityEvent{
		Type:   notification.ActivityLoggedOut,
		UserID: auth.UserID.String(),
	})

	return &MessageResponse{Message: "Logout successful"}, nil
}

func (s *Service) ListUsers(ctx context.Context, auth *AuthenticatedContext) ([]*UserResponse, error) {
	if auth == nil {
		return nil, appErrors.ErrUnauthorized
	}

	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	responses := make([]*UserResponse, len(users))
	for i, u := range users {
		responses[i] = ToUserResponse(u)
	}

	return responses, nil
}
