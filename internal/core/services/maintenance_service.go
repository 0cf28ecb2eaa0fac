package services

import (
	"context"
	"log"

	"landstede-printlab/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// MaintenanceService runs scheduled housekeeping: nightly purge of expired
// and revoked refresh tokens.
type MaintenanceService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	cron             *cron.Cron
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(refreshTokenRepo repositories.RefreshTokenRepository) *MaintenanceService {
	return &MaintenanceService{
		refreshTokenRepo: refreshTokenRepo,
		cron:             cron.New(),
	}
}

// Start registers and launches the scheduled jobs
func (s *MaintenanceService) Start() {
	// 03:30 daily, low-traffic window.
	if _, err := s.cron.AddFunc("30 3 * * *", s.purgeTokens); err != nil {
		log.Printf("⚠️ Failed to schedule token purge: %v", err)
		return
	}
	s.cron.Start()
	log.Println("🚀 MaintenanceService started")
}

// Stop stops the scheduler
func (s *MaintenanceService) Stop() {
	s.cron.Stop()
	log.Println("🛑 MaintenanceService stopped")
}

func (s *MaintenanceService) purgeTokens() {
	removed, err := s.refreshTokenRepo.DeleteExpired(context.Background())
	if err != nil {
		log.Printf("⚠️ Token purge failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("✅ Purged %d expired refresh tokens", removed)
	}
}
