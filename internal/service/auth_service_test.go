package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/repository/postgres"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*service.AuthService, *service.SessionService, *testutil.TestDB) {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	sessions := service.NewSessionService(repos.Session, cfg.Session.Secret, cfg.Session.TTL)
	return service.NewAuthService(repos.User, sessions), sessions, testDB
}

func TestAuthService_Register(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	authService, sessions, testDB := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     service.RegisterInput
		setup     func()
		wantErr   error
		checkUser bool
	}{
		{
			name: "successful registration",
			input: service.RegisterInput{
				Email:     "New@Example.com",
				Password:  "password123",
				FirstName: "New",
			},
			checkUser: true,
		},
		{
			name: "duplicate email",
			input: service.RegisterInput{
				Email:    "existing@example.com",
				Password: "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithEmail("existing@example.com").
					Build(t, testDB.DB)
			},
			wantErr: domain.ErrConflict,
		},
		{
			name: "invalid email",
			input: service.RegisterInput{
				Email:    "not-an-email",
				Password: "password123",
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "short password",
			input: service.RegisterInput{
				Email:    "short@example.com",
				Password: "abc",
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			result, err := authService.Register(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			if tt.checkUser {
				assert.Equal(t, "new@example.com", result.User.Email)
				assert.Equal(t, domain.RoleUser, result.User.Role)
				assert.NotEmpty(t, result.Token)

				principal, err := sessions.Resolve(ctx, result.Token)
				require.NoError(t, err)
				assert.Equal(t, result.User.ID, principal.UserID)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	authService, sessions, testDB := newAuthService(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().
		WithEmail("login@example.com").
		Build(t, testDB.DB)

	tests := []struct {
		name    string
		input   service.LoginInput
		wantErr error
	}{
		{
			name:  "successful login",
			input: service.LoginInput{Email: "login@example.com", Password: password},
		},
		{
			name:  "email is case insensitive",
			input: service.LoginInput{Email: " LOGIN@example.com", Password: password},
		},
		{
			name:    "wrong password",
			input:   service.LoginInput{Email: "login@example.com", Password: "wrongpassword"},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:    "unknown user",
			input:   service.LoginInput{Email: "nobody@example.com", Password: password},
			wantErr: domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := authService.Login(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
			assert.WithinDuration(t, time.Now().Add(60*time.Second), result.Session.ExpiresAt, 5*time.Second)

			principal, err := sessions.Resolve(ctx, result.Token)
			require.NoError(t, err)
			assert.Equal(t, user.ID, principal.UserID)
		})
	}
}

func TestAuthService_GetUserByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	authService, _, testDB := newAuthService(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	got, err := authService.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = authService.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	authService, sessions, testDB := newAuthService(t)
	ctx := context.Background()

	_, password := testutil.NewUserBuilder().
		WithEmail("logout@example.com").
		Build(t, testDB.DB)

	result, err := authService.Login(ctx, service.LoginInput{Email: "logout@example.com", Password: password})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, result.Token))

	_, err = sessions.Resolve(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthService_ChangePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	authService, sessions, testDB := newAuthService(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().
		WithEmail("rotate@example.com").
		Build(t, testDB.DB)

	first, err := authService.Login(ctx, service.LoginInput{Email: "rotate@example.com", Password: password})
	require.NoError(t, err)
	second, err := authService.Login(ctx, service.LoginInput{Email: "rotate@example.com", Password: password})
	require.NoError(t, err)

	t.Run("WrongCurrentPassword", func(t *testing.T) {
		_, err := authService.ChangePassword(ctx, user.ID, service.ChangePasswordInput{
			CurrentPassword: "not-it",
			NewPassword:     "brandnewpass",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

		_, err = sessions.Resolve(ctx, first.Token)
		assert.NoError(t, err)
	})

	t.Run("ShortNewPassword", func(t *testing.T) {
		_, err := authService.ChangePassword(ctx, user.ID, service.ChangePasswordInput{
			CurrentPassword: password,
			NewPassword:     "abc",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := authService.ChangePassword(ctx, uuid.New(), service.ChangePasswordInput{
			CurrentPassword: password,
			NewPassword:     "brandnewpass",
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		result, err := authService.ChangePassword(ctx, user.ID, service.ChangePasswordInput{
			CurrentPassword: password,
			NewPassword:     "brandnewpass",
		})
		require.NoError(t, err)

		for _, old := range []string{first.Token, second.Token} {
			_, err := sessions.Resolve(ctx, old)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		}

		principal, err := sessions.Resolve(ctx, result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.UserID)

		_, err = authService.Login(ctx, service.LoginInput{Email: "rotate@example.com", Password: password})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

		_, err = authService.Login(ctx, service.LoginInput{Email: "rotate@example.com", Password: "brandnewpass"})
		assert.NoError(t, err)
	})
}
