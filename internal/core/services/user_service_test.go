package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/core/domain"
	"landstede-printlab/internal/pkg/pagination"
)

func newUserService(env *testEnv) *UserService {
	return NewUserService(env.users, env.credits)
}

func TestUserGetIncludesBalance(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 25)

	resp, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Credits)

	_, err = svc.Get(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 0)

	resp, err := svc.SetRole(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	_, err = svc.SetRole(ctx, user.ID, "superuser")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeactivatePreservesLedger(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 25)

	require.NoError(t, svc.Deactivate(ctx, user.ID))

	// The account is flagged, not deleted: its ledger still folds.
	resp, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Equal(t, 25, resp.Credits)
}

func TestUserListPagination(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	env.createUser(t, "a@student.landstede.nl", 0)
	env.createUser(t, "b@student.landstede.nl", 0)
	env.createUser(t, "c@student.landstede.nl", 0)

	result, err := svc.List(ctx, &pagination.Params{Page: 1, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, result.Users, 2)
	assert.Equal(t, int64(3), result.Meta.Total)
	assert.Equal(t, 2, result.Meta.TotalPages)
	assert.True(t, result.Meta.HasNext)
}
