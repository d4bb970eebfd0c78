package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"identity-service/internal/config"
	"identity-service/internal/domain/notification"
	domainUser "identity-service/internal/domain/user"
	"identity-service/internal/token"
	"identity-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domainUser.User
	now   func() time.Time
}

func newMemoryRepository(now func() time.Time) *memoryRepository {
	return &memoryRepository{users: make(map[uuid.UUID]*domainUser.User), now: now}
}

func (r *memoryRepository) Create(_ context.Context, u *domainUser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domainUser.ErrUserAlreadyExists
		}
		if existing.PhoneNumber == u.PhoneNumber {
			return domainUser.ErrPhoneAlreadyExists
		}
	}

	u.ID = uuid.New()
	u.CreatedAt = r.now()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memoryRepository) find(match func(*domainUser.User) bool) (*domainUser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, domainUser.ErrUserNotFound
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (*domainUser.User, error) {
	return r.find(func(u *domainUser.User) bool { return u.Email == email })
}

func (r *memoryRepository) GetByPhone(_ context.Context, phone string) (*domainUser.User, error) {
	return r.find(func(u *domainUser.User) bool { return u.PhoneNumber == phone })
}

func (r *memoryRepository) GetByID(_ context.Context, userID uuid.UUID) (*domainUser.User, error) {
	return r.find(func(u *domainUser.User) bool { return u.ID == userID })
}

func (r *memoryRepository) GetAll(_ context.Context) ([]*domainUser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*domainUser.User, 0, len(r.users))
	for _, u := range r.users {
		found := *u
		users = append(users, &found)
	}
	return users, nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, userID uuid.UUID, currentHash, newHash string) (*domainUser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok || u.PasswordHash != currentHash {
		return nil, domainUser.ErrPasswordChanged
	}
	u.PasswordHash = newHash
	u.UpdatedAt = r.now()
	updated := *u
	return &updated, nil
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type captureMailer struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last(t *testing.T) notification.Message {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

type recordingSink struct {
	mu     sync.Mutex
	events []notification.ActivityEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, event notification.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) types() []notification.ActivityType {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]notification.ActivityType, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			Issuer:           "identity-service",
			ActivationSecret: "activation-secret",
			AccessSecret:     "access-secret",
			RefreshSecret:    "refresh-secret",
			ResetSecret:      "forgot-password-secret",
			ActivationTTL:    5 * time.Minute,
			AccessTTL:        15 * time.Minute,
			RefreshTTL:       72 * time.Hour,
			ResetTTL:         5 * time.Minute,
		},
		Client: config.ClientConfig{BaseURL: "https://app.example.com"},
	}
}

type harness struct {
	service  *Service
	repo     *memoryRepository
	mailer   *captureMailer
	activity *recordingSink
	clock    *testClock
	codec    *token.Codec
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := testConfig()

	codec, err := NewCodec(cfg, token.WithClock(clock.Now))
	require.NoError(t, err)

	h := &harness{
		repo:     newMemoryRepository(clock.Now),
		mailer:   &captureMailer{},
		activity: &recordingSink{},
		clock:    clock,
		codec:    codec,
	}
	h.service = NewService(h.repo, codec, utils.NewPasswordHasher(bcrypt.MinCost), h.mailer, h.activity, cfg)
	h.service.now = clock.Now

	return h
}

func annRegistration() *RegisterRequest {
	return &RegisterRequest{
		Name:        "Ann",
		Email:       "ann@x.io",
		Password:    "s3cretpw",
		PhoneNumber: "5551212",
	}
}

// registerAndActivate runs the whole sign-up and returns the stored user.
func (h *harness) registerAndActivate(t *testing.T, req *RegisterRequest) *UserResponse {
	t.Helper()

	registered, err := h.service.Register(context.Background(), req)
	require.NoError(t, err)

	code := h.mailer.last(t).Data["activationCode"]
	activated, err := h.service.Activate(context.Background(), &ActivateRequest{
		ActivationToken: registered.ActivationToken,
		ActivationCode:  code,
	})
	require.NoError(t, err)
	return activated.User
}

var errBoom = errors.New("boom")
