package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
)

// newTestDB opens an isolated in-memory SQLite database and migrates the
// schema. The DSN is keyed by test name so parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testEnv struct {
	db       *gorm.DB
	users    repositories.UserRepository
	printers *repositories.PrinterRepository
	jobs     *repositories.JobRepository
	credits  *repositories.CreditRepository

	queue    *QueueService
	jobSvc   *JobService
	credSvc  *CreditService
	printSvc *PrinterService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	users := repositories.NewUserRepository(db)
	printers := repositories.NewPrinterRepository(db)
	jobs := repositories.NewJobRepository(db)
	credits := repositories.NewCreditRepository(db)

	queue := NewQueueService(jobs, printers)
	return &testEnv{
		db:       db,
		users:    users,
		printers: printers,
		jobs:     jobs,
		credits:  credits,
		queue:    queue,
		jobSvc:   NewJobService(db, jobs, users, credits, queue),
		credSvc:  NewCreditService(credits, users, jobs),
		printSvc: NewPrinterService(printers, queue),
	}
}

func (e *testEnv) createUser(t *testing.T, email string, credits int) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Name:     "Test Student",
		Password: "hashed",
		Role:     models.RoleStudent,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(user).Error)

	if credits != 0 {
		require.NoError(t, e.db.Create(&models.CreditTransaction{
			UserID:      user.ID,
			Amount:      credits,
			Type:        models.TxTypePurchase,
			Description: "seed",
		}).Error)
	}
	return user
}

func (e *testEnv) createPrinter(t *testing.T, name, status string) *models.Printer {
	t.Helper()

	printer := &models.Printer{
		Name:   name,
		Brand:  "Bambu Lab X1C",
		Status: status,
	}
	require.NoError(t, e.db.Create(printer).Error)
	return printer
}
