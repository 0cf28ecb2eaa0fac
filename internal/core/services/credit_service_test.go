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

func TestBalanceIsLedgerFold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 0)

	balance, err := env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	require.NoError(t, env.credSvc.Record(ctx, user.ID, 50, models.TxTypePurchase, "standard pack", nil))
	require.NoError(t, env.credSvc.Record(ctx, user.ID, -8, models.TxTypePrintJob, "Print job: bracket.stl", nil))
	require.NoError(t, env.credSvc.Record(ctx, user.ID, 5, models.TxTypeAdminAdjustment, "goodwill", nil))

	balance, err = env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 47, balance)

	_, err = env.credSvc.Balance(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurchasePacks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 0)

	tx, err := env.credSvc.Purchase(ctx, user.ID, "standard")
	require.NoError(t, err)
	assert.Equal(t, 50, tx.Amount)
	assert.Equal(t, models.TxTypePurchase, tx.Type)

	_, err = env.credSvc.Purchase(ctx, user.ID, "mega")
	require.ErrorIs(t, err, domain.ErrValidation)

	balance, err := env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
}

func TestAdminAdjustBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 10)

	_, err := env.credSvc.AdminAdjust(ctx, admin.ID, user.ID, 0, "noop")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.credSvc.AdminAdjust(ctx, admin.ID, user.ID, -5, "")
	require.ErrorIs(t, err, domain.ErrValidation)

	// Removing more than the user has is rejected.
	_, err = env.credSvc.AdminAdjust(ctx, admin.ID, user.ID, -11, "correction")
	require.ErrorIs(t, err, domain.ErrConflict)

	// Down to exactly zero is fine.
	tx, err := env.credSvc.AdminAdjust(ctx, admin.ID, user.ID, -10, "correction")
	require.NoError(t, err)
	assert.Equal(t, -10, tx.Amount)

	balance, err := env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestAdminAdjustRespectsCommittedCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 10)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	// An active job commits 8 credits, leaving 2 available.
	_, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	_, err = env.credSvc.AdminAdjust(ctx, admin.ID, user.ID, -3, "correction")
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = env.credSvc.AdminAdjust(ctx, admin.ID, user.ID, -2, "correction")
	require.NoError(t, err)
}

func TestHistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 0)
	require.NoError(t, env.credSvc.Record(ctx, user.ID, 25, models.TxTypePurchase, "first", nil))
	require.NoError(t, env.credSvc.Record(ctx, user.ID, 50, models.TxTypePurchase, "second", nil))
	require.NoError(t, env.credSvc.Record(ctx, user.ID, -8, models.TxTypePrintJob, "third", nil))

	params := &pagination.Params{Page: 1, Limit: 2, Offset: 0}
	result, err := env.credSvc.History(ctx, user.ID, params)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "third", result.Transactions[0].Description)
	assert.Equal(t, "second", result.Transactions[1].Description)
	assert.Equal(t, int64(3), result.Meta.Total)
	assert.True(t, result.Meta.HasNext)
}
