package user

import (
	"context"
	"errors"
	"time"

	"identity-service/internal/config"
	"identity-service/internal/domain/notification"
	domainUser "identity-service/internal/domain/user"
	"identity-service/internal/logger"
	"identity-service/internal/token"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"go.uber.org/zap"
)

// Service implements the registration, activation, session and password
// recovery use cases. It keeps no per-request state.
type Service struct {
	userRepo domainUser.Repository
	codec    *token.Codec
	hasher   *utils.PasswordHasher
	mailer   notification.Mailer
	activity notification.ActivitySink
	config   *config.Config
	now      func() time.Time
}

// NewService creates a new user service. activity may be nil.
func NewService(
	userRepo domainUser.Repository,
	codec *token.Codec,
	hasher *utils.PasswordHasher,
	mailer notification.Mailer,
	activity notification.ActivitySink,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo: userRepo,
		codec:    codec,
		hasher:   hasher,
		mailer:   mailer,
		activity: activity,
		config:   cfg,
		now:      time.Now,
	}
}

// NewCodec builds the token codec from the per-purpose secrets in cfg.
func NewCodec(cfg *config.Config, opts ...token.Option) (*token.Codec, error) {
	return token.NewCodec(cfg.Token.Issuer, map[token.Purpose][]byte{
		token.Activation:    []byte(cfg.Token.ActivationSecret),
		token.Access:        []byte(cfg.Token.AccessSecret),
		token.Refresh:       []byte(cfg.Token.RefreshSecret),
		token.PasswordReset: []byte(cfg.Token.ResetSecret),
	}, opts...)
}

func validationError(err error) error {
	return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", errors.Join(appErrors.ErrValidation, err))
}

// ensureAvailable fails when the email or the phone number already belongs to
// a stored user.
func (s *Service) ensureAvailable(ctx context.Context, email, phone string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		logger.Warn("Email already registered",
			zap.String("email", email),
			zap.String("event", "duplicate_email"),
		)
		return appErrors.ErrDuplicateEmail
	} else if !errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	if _, err := s.userRepo.GetByPhone(ctx, phone); err == nil {
		logger.Warn("Phone number already registered",
			zap.String("email", email),
			zap.String("event", "duplicate_phone"),
		)
		return appErrors.ErrDuplicatePhone
	} else if !errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.Wrap(appErrors.ErrPersistence, err)
	}

	return nil
}

func (s *Service) record(ctx context.Context, event notification.ActivityEvent) {
	if s.activity == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.activity.Record(ctx, event); err != nil {
		logger.Warn("Failed to record activity",
			zap.String("activity", string(event.Type)),
			zap.Error(err),
		)
	}
}
