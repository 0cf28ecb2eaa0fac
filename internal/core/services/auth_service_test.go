package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/config"
	"landstede-printlab/internal/core/domain"
)

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
	return NewAuthService(env.users, repositories.NewRefreshTokenRepository(env.db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	result, err := auth.Register(ctx, &RegisterInput{
		Email:         "arm@student.landstede.nl",
		Name:          "Arm de Vries",
		Password:      "sterkwachtwoord",
		StudentNumber: "12345678",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, result.User.Role)
	assert.Equal(t, "12345678", result.User.StudentNumber)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	// Duplicate email is rejected.
	_, err = auth.Register(ctx, &RegisterInput{
		Email:    "arm@student.landstede.nl",
		Name:     "Another",
		Password: "sterkwachtwoord",
	})
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	// Duplicate student number is rejected.
	_, err = auth.Register(ctx, &RegisterInput{
		Email:         "eva@student.landstede.nl",
		Name:          "Eva",
		Password:      "sterkwachtwoord",
		StudentNumber: "12345678",
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	// Short password is rejected.
	_, err = auth.Register(ctx, &RegisterInput{
		Email:    "kort@student.landstede.nl",
		Name:     "Kort",
		Password: "kort",
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	login, err := auth.Login(ctx, &LoginInput{
		Email:    "arm@student.landstede.nl",
		Password: "sterkwachtwoord",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = auth.Login(ctx, &LoginInput{
		Email:    "arm@student.landstede.nl",
		Password: "verkeerd",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = auth.Login(ctx, &LoginInput{
		Email:    "onbekend@student.landstede.nl",
		Password: "sterkwachtwoord",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	result, err := auth.Register(ctx, &RegisterInput{
		Email:    "arm@student.landstede.nl",
		Name:     "Arm de Vries",
		Password: "sterkwachtwoord",
	})
	require.NoError(t, err)

	require.NoError(t, env.users.Deactivate(ctx, result.User.ID))

	_, err = auth.Login(ctx, &LoginInput{
		Email:    "arm@student.landstede.nl",
		Password: "sterkwachtwoord",
	})
	require.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	result, err := auth.Register(ctx, &RegisterInput{
		Email:    "arm@student.landstede.nl",
		Name:     "Arm de Vries",
		Password: "sterkwachtwoord",
	})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, result.RefreshToken, refreshed.RefreshToken)

	// The old token was rotated out and cannot be replayed.
	_, err = auth.Refresh(ctx, result.RefreshToken)
	require.ErrorIs(t, err, domain.ErrTokenRevoked)

	// Garbage tokens are invalid.
	_, err = auth.Refresh(ctx, "not-a-jwt")
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	result, err := auth.Register(ctx, &RegisterInput{
		Email:    "arm@student.landstede.nl",
		Name:     "Arm de Vries",
		Password: "sterkwachtwoord",
	})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, result.RefreshToken))

	_, err = auth.Refresh(ctx, result.RefreshToken)
	require.ErrorIs(t, err, domain.ErrTokenRevoked)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	result, err := auth.Register(ctx, &RegisterInput{
		Email:    "arm@student.landstede.nl",
		Name:     "Arm de Vries",
		Password: "sterkwachtwoord",
	})
	require.NoError(t, err)

	second, err := auth.Login(ctx, &LoginInput{
		Email:    "arm@student.landstede.nl",
		Password: "sterkwachtwoord",
	})
	require.NoError(t, err)

	require.NoError(t, auth.LogoutAll(ctx, result.User.ID))

	_, err = auth.Refresh(ctx, result.RefreshToken)
	require.ErrorIs(t, err, domain.ErrTokenRevoked)
	_, err = auth.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, domain.ErrTokenRevoked)
}
