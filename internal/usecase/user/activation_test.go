package user

import (
	"context"
	"strconv"
	"testing"
	"time"

	"identity-service/internal/domain/notification"
	domainUser "identity-service/internal/domain/user"
	"identity-service/internal/domain/user/mocks"
	"identity-service/internal/token"
	appErrors "identity-service/pkg/errors"
	"identity-service/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func wrongCode(code string) string {
	if code == "1000" {
		return "1001"
	}
	return "1000"
}

func TestRegister_IssuesTokenAndMailsCode(t *testing.T) {
	h := newHarness(t)

	resp, err := h.service.Register(context.Background(), annRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ActivationToken)
	assert.True(t, h.clock.Now().Add(5*time.Minute).Equal(resp.ExpiresAt))
	assert.Contains(t, resp.Message, "ann@x.io")
	assert.Zero(t, h.repo.count(), "registration must not persist")

	msg := h.mailer.last(t)
	assert.Equal(t, "ann@x.io", msg.To)
	assert.Equal(t, notification.TemplateActivation, msg.Template)
	assert.Equal(t, "Ann", msg.Data["name"])

	code, err := strconv.Atoi(msg.Data["activationCode"])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, code, 1000)
	assert.LessOrEqual(t, code, 9999)

	payload, err := token.Verify[activationPayload](h.codec, resp.ActivationToken, token.Activation)
	require.NoError(t, err)
	assert.Equal(t, msg.Data["activationCode"], payload.ActivationCode)
	assert.Equal(t, "ann@x.io", payload.User.Email)
	assert.NotEqual(t, "s3cretpw", payload.User.PasswordHash)
	assert.NotContains(t, resp.ActivationToken, "s3cretpw")

	assert.Equal(t, []notification.ActivityType{notification.ActivityRegistered}, h.activity.types())
}

func TestRegisterActivateLogin_Scenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registered, err := h.service.Register(ctx, annRegistration())
	require.NoError(t, err)
	code := h.mailer.last(t).Data["activationCode"]

	activated, err := h.service.Activate(ctx, &ActivateRequest{
		ActivationToken: registered.ActivationToken,
		ActivationCode:  code,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", activated.User.Name)
	assert.Equal(t, "ann@x.io", activated.User.Email)
	assert.Equal(t, "5551212", activated.User.PhoneNumber)
	assert.Equal(t, 1, h.repo.count())

	login, err := h.service.Login(ctx, &LoginRequest{Email: "ann@x.io", Password: "s3cretpw"})
	require.NoError(t, err)
	assert.Equal(t, activated.User.ID, login.User.ID)
	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)
}

func TestRegister_StoresNamesAsPlainText(t *testing.T) {
	h := newHarness(t)
	req := annRegistration()
	req.Name = "  O'Brien & Sons "
	address := "Flat 2 & 3, O'Connell St"
	req.Address = &address

	activated := h.registerAndActivate(t, req)

	assert.Equal(t, "O'Brien & Sons", activated.Name)
	require.NotNil(t, activated.Address)
	assert.Equal(t, "Flat 2 & 3, O'Connell St", *activated.Address)
	assert.Equal(t, "O'Brien & Sons", h.mailer.last(t).Data["name"])
}

func TestRegister_Duplicates(t *testing.T) {
	h := newHarness(t)
	h.registerAndActivate(t, annRegistration())

	sameEmail := annRegistration()
	sameEmail.Email = "ANN@x.io "
	sameEmail.PhoneNumber = "5550000"
	_, err := h.service.Register(context.Background(), sameEmail)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEmail)

	samePhone := annRegistration()
	samePhone.Email = "bob@x.io"
	samePhone.PhoneNumber = "555-1212"
	_, err = h.service.Register(context.Background(), samePhone)
	assert.ErrorIs(t, err, appErrors.ErrDuplicatePhone)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }},
		{"missing phone", func(r *RegisterRequest) { r.PhoneNumber = "" }},
		{"bad phone", func(r *RegisterRequest) { r.PhoneNumber = "0" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := annRegistration()
			tt.mutate(req)

			_, err := h.service.Register(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
			assert.Empty(t, h.mailer.sent)
		})
	}
}

func TestRegister_MailFailureStillReturnsToken(t *testing.T) {
	h := newHarness(t)
	h.mailer.err = errBoom

	resp, err := h.service.Register(context.Background(), annRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ActivationToken)
}

func TestRegister_ActivitySinkFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.activity.err = errBoom

	_, err := h.service.Register(context.Background(), annRegistration())
	assert.NoError(t, err)
}

func TestActivate_WrongCodeLeavesTokenUsable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registered, err := h.service.Register(ctx, annRegistration())
	require.NoError(t, err)
	code := h.mailer.last(t).Data["activationCode"]

	for i := 0; i < 5; i++ {
		_, err := h.service.Activate(ctx, &ActivateRequest{
			ActivationToken: registered.ActivationToken,
			ActivationCode:  wrongCode(code),
		})
		assert.ErrorIs(t, err, appErrors.ErrInvalidActivationCode)
	}
	assert.Zero(t, h.repo.count())

	_, err = h.service.Activate(ctx, &ActivateRequest{
		ActivationToken: registered.ActivationToken,
		ActivationCode:  code,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.repo.count())
}

func TestActivate_Twice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registered, err := h.service.Register(ctx, annRegistration())
	require.NoError(t, err)
	req := &ActivateRequest{
		ActivationToken: registered.ActivationToken,
		ActivationCode:  h.mailer.last(t).Data["activationCode"],
	}

	_, err = h.service.Activate(ctx, req)
	require.NoError(t, err)

	_, err = h.service.Activate(ctx, req)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEmail)
	assert.Equal(t, 1, h.repo.count())
}

func TestActivate_ExpiredToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registered, err := h.service.Register(ctx, annRegistration())
	require.NoError(t, err)
	code := h.mailer.last(t).Data["activationCode"]

	h.clock.Advance(5*time.Minute + time.Second)

	_, err = h.service.Activate(ctx, &ActivateRequest{
		ActivationToken: registered.ActivationToken,
		ActivationCode:  code,
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidOrExpiredActivation)
	assert.Zero(t, h.repo.count())
}

func TestActivate_RejectsForeignTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Same payload shape, wrong purpose.
	resetToken, _, err := token.Issue(h.codec, activationPayload{
		User:           domainUser.PendingUser{Email: "eve@x.io", PhoneNumber: "5550001"},
		ActivationCode: "1234",
	}, token.PasswordReset, time.Minute)
	require.NoError(t, err)

	for _, candidate := range []string{resetToken, "garbage"} {
		_, err := h.service.Activate(ctx, &ActivateRequest{ActivationToken: candidate, ActivationCode: "1234"})
		assert.ErrorIs(t, err, appErrors.ErrInvalidOrExpiredActivation)
	}
	assert.Zero(t, h.repo.count())
}

func TestActivate_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Activate(context.Background(), &ActivateRequest{ActivationToken: "x", ActivationCode: "12a4"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = h.service.Activate(context.Background(), &ActivateRequest{ActivationCode: "1234"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestActivate_StoreConflicts(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		want      error
	}{
		{"email race", domainUser.ErrUserAlreadyExists, appErrors.ErrDuplicateEmail},
		{"phone race", domainUser.ErrPhoneAlreadyExists, appErrors.ErrDuplicatePhone},
		{"store down", errBoom, appErrors.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockRepository(ctrl)

			clock := &testClock{now: time.Now()}
			codec, err := NewCodec(testConfig(), token.WithClock(clock.Now))
			require.NoError(t, err)
			svc := NewService(repo, codec, utils.NewPasswordHasher(bcrypt.MinCost), &captureMailer{}, nil, testConfig())

			activationToken, _, err := token.Issue(codec, activationPayload{
				User: domainUser.PendingUser{
					Name:         "Ann",
					Email:        "ann@x.io",
					PasswordHash: "$2a$04$hash",
					PhoneNumber:  "5551212",
				},
				ActivationCode: "4821",
			}, token.Activation, 5*time.Minute)
			require.NoError(t, err)

			gomock.InOrder(
				repo.EXPECT().GetByEmail(gomock.Any(), "ann@x.io").Return(nil, domainUser.ErrUserNotFound),
				repo.EXPECT().GetByPhone(gomock.Any(), "5551212").Return(nil, domainUser.ErrUserNotFound),
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(tt.createErr),
			)

			_, err = svc.Activate(context.Background(), &ActivateRequest{
				ActivationToken: activationToken,
				ActivationCode:  "4821",
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_LookupFailureIsPersistenceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)

	codec, err := NewCodec(testConfig())
	require.NoError(t, err)
	svc := NewService(repo, codec, utils.NewPasswordHasher(bcrypt.MinCost), &captureMailer{}, nil, testConfig())

	repo.EXPECT().GetByEmail(gomock.Any(), "ann@x.io").Return(nil, errBoom)

	_, err = svc.Register(context.Background(), annRegistration())
	assert.ErrorIs(t, err, appErrors.ErrPersistence)
	assert.ErrorIs(t, err, errBoom)
}

func TestGenerateActivationCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateActivationCode()
		require.NoError(t, err)
		require.Len(t, code, 4)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}
