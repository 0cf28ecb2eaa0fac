package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/core/domain"
)

func TestSubmitInsufficientCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 5)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	// 800KB prices at 8 credits, the user has 5.
	_, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCredits)

	// Nothing changed: no job, no ledger entry beyond the seed.
	var jobCount, txCount int64
	env.db.Model(&models.PrintJob{}).Count(&jobCount)
	env.db.Model(&models.CreditTransaction{}).Count(&txCount)
	assert.Equal(t, int64(0), jobCount)
	assert.Equal(t, int64(1), txCount)

	balance, err := env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestSubmitCommitsAvailableBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 10)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	// First job commits 8 of the 10 credits.
	_, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "first.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	// A second 8-credit job no longer fits: only 2 credits remain available
	// even though the stored balance is still 10.
	_, err = env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "second.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCredits)

	available, err := env.credSvc.AvailableBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestJobLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 8, job.CreditCost)
	assert.Equal(t, 1, job.Priority)

	job, err = env.jobSvc.Approve(ctx, admin.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApproved, job.Status)
	require.NotNil(t, job.ApprovedBy)
	assert.Equal(t, admin.ID, *job.ApprovedBy)

	job, err = env.jobSvc.Start(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPrinting, job.Status)
	assert.NotNil(t, job.StartedAt)

	// Printer is occupied by the job.
	var occupied models.Printer
	require.NoError(t, env.db.First(&occupied, printer.ID).Error)
	assert.Equal(t, models.PrinterStatusPrinting, occupied.Status)
	require.NotNil(t, occupied.CurrentJobID)
	assert.Equal(t, job.ID, *occupied.CurrentJobID)
	assert.NotNil(t, occupied.EstimatedCompletionTime)

	job, err = env.jobSvc.Complete(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)

	// Exactly one debit of -8 referencing the job.
	var debits []models.CreditTransaction
	require.NoError(t, env.db.Where("type = ?", models.TxTypePrintJob).Find(&debits).Error)
	require.Len(t, debits, 1)
	assert.Equal(t, -8, debits[0].Amount)
	require.NotNil(t, debits[0].PrintJobID)
	assert.Equal(t, job.ID, *debits[0].PrintJobID)

	linked, err := env.credits.CountByJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), linked)

	balance, err := env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, balance)

	// Printer is freed and back online.
	var freed models.Printer
	require.NoError(t, env.db.First(&freed, printer.ID).Error)
	assert.Equal(t, models.PrinterStatusOnline, freed.Status)
	assert.Nil(t, freed.CurrentJobID)
	assert.Nil(t, freed.EstimatedCompletionTime)
}

func TestFailHasNoLedgerEffect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	_, err = env.jobSvc.Approve(ctx, admin.ID, job.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.Start(ctx, job.ID)
	require.NoError(t, err)

	job, err = env.jobSvc.Fail(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)

	// Nothing was charged, so nothing is refunded: the seed purchase is the
	// only ledger row and the balance is untouched.
	var txCount int64
	env.db.Model(&models.CreditTransaction{}).Count(&txCount)
	assert.Equal(t, int64(1), txCount)

	balance, err := env.credSvc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	var freed models.Printer
	require.NoError(t, env.db.First(&freed, printer.ID).Error)
	assert.Equal(t, models.PrinterStatusOnline, freed.Status)
	assert.Nil(t, freed.CurrentJobID)
}

func TestCancelRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	owner := env.createUser(t, "arm@student.landstede.nl", 25)
	stranger := env.createUser(t, "eva@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, owner.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	// A different student cannot cancel someone else's job.
	_, err = env.jobSvc.Cancel(ctx, stranger.ID, models.RoleStudent, job.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	// The owner can cancel while pending.
	job, err = env.jobSvc.Cancel(ctx, owner.ID, models.RoleStudent, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, job.Status)

	// A printing job cannot be cancelled, even by an admin.
	job2, err := env.jobSvc.Submit(ctx, owner.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "second.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	_, err = env.jobSvc.Approve(ctx, admin.ID, job2.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.Start(ctx, job2.ID)
	require.NoError(t, err)

	_, err = env.jobSvc.Cancel(ctx, admin.ID, models.RoleAdmin, job2.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestOnePrintingJobPerPrinter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 50)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	first, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "first.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	second, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "second.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	_, err = env.jobSvc.Approve(ctx, admin.ID, first.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.Approve(ctx, admin.ID, second.ID)
	require.NoError(t, err)

	_, err = env.jobSvc.Start(ctx, first.ID)
	require.NoError(t, err)

	// The printer is busy: starting the second job is rejected.
	_, err = env.jobSvc.Start(ctx, second.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	// After completion the second job can start.
	_, err = env.jobSvc.Complete(ctx, first.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.Start(ctx, second.ID)
	require.NoError(t, err)
}

func TestStartRequiresOnlinePrinter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	_, err = env.jobSvc.Approve(ctx, admin.ID, job.ID)
	require.NoError(t, err)

	// Printer goes down for maintenance before the job starts.
	_, err = env.printSvc.SetStatus(printer.ID, models.PrinterStatusMaintenance)
	require.NoError(t, err)

	_, err = env.jobSvc.Start(ctx, job.ID)
	require.ErrorIs(t, err, domain.ErrPrinterUnavailable)
}

func TestSubmitRejectsUnavailablePrinter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Ultimaker #3", models.PrinterStatusOffline)

	_, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.ErrorIs(t, err, domain.ErrPrinterUnavailable)
}

func TestSetPriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 50)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	first, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "first.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	second, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "second.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	// Insertion order: first=1, second=2.
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, 2, second.Priority)

	// Bump the second job ahead of the first.
	_, err = env.jobSvc.SetPriority(ctx, second.ID, 1)
	require.NoError(t, err)

	entries, err := env.queue.Queue(printer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Equal priority falls back to submission time: first still leads unless
	// it is pushed back.
	_, err = env.jobSvc.SetPriority(ctx, first.ID, 5)
	require.NoError(t, err)

	entries, err = env.queue.Queue(printer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].Job.ID)
	assert.Equal(t, first.ID, entries[1].Job.ID)

	_, err = env.jobSvc.SetPriority(ctx, first.ID, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAppendNoteOnTerminalJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	job, err = env.jobSvc.Cancel(ctx, user.ID, models.RoleStudent, job.ID)
	require.NoError(t, err)

	// Notes are the one mutation terminal jobs still accept.
	job, err = env.jobSvc.AppendNote(ctx, admin.ID, job.ID, "student requested cancellation")
	require.NoError(t, err)
	assert.Contains(t, job.Notes, "student requested cancellation")
	assert.Equal(t, models.JobStatusCancelled, job.Status)

	_, err = env.jobSvc.AppendNote(ctx, admin.ID, job.ID, "   ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "arm@student.landstede.nl", 25)
	stranger := env.createUser(t, "eva@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, owner.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	_, err = env.jobSvc.Get(ctx, owner.ID, models.RoleStudent, job.ID)
	require.NoError(t, err)

	_, err = env.jobSvc.Get(ctx, stranger.ID, models.RoleStudent, job.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.jobSvc.Get(ctx, stranger.ID, models.RoleAdmin, job.ID)
	require.NoError(t, err)

	_, err = env.jobSvc.Get(ctx, owner.ID, models.RoleStudent, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentSubmitsShareOneBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 10)
	p1 := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)
	p2 := env.createPrinter(t, "Bambu #2", models.PrinterStatusOnline)

	// Two simultaneous 8-credit submissions to different printers, 10 credits
	// in the ledger. Per-user serialization must let exactly one through.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, printerID := range []uint{p1.ID, p2.ID} {
		wg.Add(1)
		go func(i int, printerID uint) {
			defer wg.Done()
			_, errs[i] = env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
				PrinterID:     printerID,
				FileName:      "bracket.stl",
				FileSizeBytes: 800 * 1024,
			})
		}(i, printerID)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientCredits)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	var jobCount int64
	require.NoError(t, env.db.Model(&models.PrintJob{}).Count(&jobCount).Error)
	assert.Equal(t, int64(1), jobCount)
}
