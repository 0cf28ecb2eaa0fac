package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/core/domain"
)

func TestCreatePrinter(t *testing.T) {
	env := newTestEnv(t)

	printer, err := env.printSvc.Create(&CreatePrinterInput{
		Name:     "Bambu #1",
		Brand:    "Bambu Lab X1C",
		Location: "Lab A",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PrinterStatusOnline, printer.Status)

	_, err = env.printSvc.Create(&CreatePrinterInput{Name: "", Brand: "Bambu Lab X1C"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeletePrinterWithActiveJobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	err = env.printSvc.Delete(printer.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	// Once the job is resolved the printer can go.
	_, err = env.jobSvc.Cancel(ctx, user.ID, models.RoleStudent, job.ID)
	require.NoError(t, err)
	require.NoError(t, env.printSvc.Delete(printer.ID))

	_, err = env.printSvc.Get(printer.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetStatusRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 25)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)

	_, err := env.printSvc.SetStatus(printer.ID, "broken")
	require.ErrorIs(t, err, domain.ErrValidation)

	// printing belongs to the job lifecycle, not the admin API.
	_, err = env.printSvc.SetStatus(printer.ID, models.PrinterStatusPrinting)
	require.ErrorIs(t, err, domain.ErrConflict)

	// Occupy the printer, then try to force it out of printing.
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

	_, err = env.printSvc.SetStatus(printer.ID, models.PrinterStatusOffline)
	require.ErrorIs(t, err, domain.ErrConflict)

	// Resolving the job frees the printer; now the transition is allowed.
	_, err = env.jobSvc.Complete(ctx, job.ID)
	require.NoError(t, err)

	updated, err := env.printSvc.SetStatus(printer.ID, models.PrinterStatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, models.PrinterStatusMaintenance, updated.Status)
}

func TestPrinterListWithQueueInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "arm@student.landstede.nl", 50)
	printer := env.createPrinter(t, "Bambu #1", models.PrinterStatusOnline)
	env.createPrinter(t, "Ultimaker #1", models.PrinterStatusOnline)

	job, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "bracket.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)

	printers, err := env.printSvc.List()
	require.NoError(t, err)
	require.Len(t, printers, 2)

	for _, p := range printers {
		if p.ID == printer.ID {
			assert.Equal(t, 1, p.QueueLength)
			assert.Equal(t, job.EstimatedDuration, p.EstimatedWaitMin)
		} else {
			assert.Equal(t, 0, p.QueueLength)
		}
	}
}

func TestPrinterStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "beheer@landstede.nl", 0)
	user := env.createUser(t, "arm@student.landstede.nl", 50)
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
	_, err = env.jobSvc.Complete(ctx, job.ID)
	require.NoError(t, err)

	stats, err := env.printSvc.Stats(printer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalJobs)
	assert.Equal(t, int64(job.CreditCost), stats.TotalCreditsUsed)
	assert.Equal(t, int64(job.EstimatedDuration), stats.TotalPrintTime)
	assert.Equal(t, int64(0), stats.FailedJobs)
	assert.Equal(t, 100, stats.SuccessRate)

	// A failed job lowers the success rate but never the credit totals.
	failing, err := env.jobSvc.Submit(ctx, user.ID, &SubmitInput{
		PrinterID:     printer.ID,
		FileName:      "warped.stl",
		FileSizeBytes: 800 * 1024,
	})
	require.NoError(t, err)
	_, err = env.jobSvc.Approve(ctx, admin.ID, failing.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.Start(ctx, failing.ID)
	require.NoError(t, err)
	_, err = env.jobSvc.Fail(ctx, failing.ID)
	require.NoError(t, err)

	stats, err = env.printSvc.Stats(printer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalJobs)
	assert.Equal(t, int64(1), stats.FailedJobs)
	assert.Equal(t, 50, stats.SuccessRate)
	assert.Equal(t, int64(job.CreditCost), stats.TotalCreditsUsed)
}
