package services

import (
	"context"
	"time"

	"landstede-printlab/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// DashboardService aggregates admin dashboard figures
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// Printer statistics
	TotalPrinters       int64 `json:"total_printers"`
	OnlinePrinters      int64 `json:"online_printers"`
	PrintingPrinters    int64 `json:"printing_printers"`
	MaintenancePrinters int64 `json:"maintenance_printers"`

	// Job statistics
	ActivePrints  int64 `json:"active_prints"`
	PendingJobs   int64 `json:"pending_jobs"`
	ApprovedJobs  int64 `json:"approved_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`

	// User statistics
	TotalStudents int64 `json:"total_students"`
	TotalAdmins   int64 `json:"total_admins"`

	// Ledger statistics
	CreditsPurchased int64 `json:"credits_purchased"`
	CreditsSpent     int64 `json:"credits_spent"`
	SpentThisMonth   int64 `json:"spent_this_month"`

	// Recent activity
	RecentJobs []JobSummary `json:"recent_jobs"`
}

// JobSummary represents a job line on the dashboard
type JobSummary struct {
	ID        uint      `json:"id"`
	FileName  string    `json:"file_name"`
	UserName  string    `json:"user_name"`
	Printer   string    `json:"printer"`
	Status    string    `json:"status"`
	Cost      int       `json:"credit_cost"`
	CreatedAt time.Time `json:"created_at"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}
	db := s.db.WithContext(ctx)

	// Printer counts
	db.Model(&models.Printer{}).Count(&data.TotalPrinters)
	db.Model(&models.Printer{}).Where("status = ?", models.PrinterStatusOnline).Count(&data.OnlinePrinters)
	db.Model(&models.Printer{}).Where("status = ?", models.PrinterStatusPrinting).Count(&data.PrintingPrinters)
	db.Model(&models.Printer{}).Where("status = ?", models.PrinterStatusMaintenance).Count(&data.MaintenancePrinters)

	// Job counts
	db.Model(&models.PrintJob{}).Where("status = ?", models.JobStatusPrinting).Count(&data.ActivePrints)
	db.Model(&models.PrintJob{}).Where("status = ?", models.JobStatusPending).Count(&data.PendingJobs)
	db.Model(&models.PrintJob{}).Where("status = ?", models.JobStatusApproved).Count(&data.ApprovedJobs)
	db.Model(&models.PrintJob{}).Where("status = ?", models.JobStatusCompleted).Count(&data.CompletedJobs)
	db.Model(&models.PrintJob{}).Where("status = ?", models.JobStatusFailed).Count(&data.FailedJobs)

	// User counts by role
	db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&data.TotalStudents)
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&data.TotalAdmins)

	// Ledger totals
	db.Model(&models.CreditTransaction{}).
		Where("amount > 0 AND type = ?", models.TxTypePurchase).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.CreditsPurchased)
	db.Model(&models.CreditTransaction{}).
		Where("amount < 0").
		Select("COALESCE(SUM(-amount), 0)").
		Scan(&data.CreditsSpent)

	monthStart := time.Now().AddDate(0, 0, -30)
	db.Model(&models.CreditTransaction{}).
		Where("amount < 0 AND created_at >= ?", monthStart).
		Select("COALESCE(SUM(-amount), 0)").
		Scan(&data.SpentThisMonth)

	// Recent jobs
	var recent []models.PrintJob
	if err := db.
		Preload("User").
		Preload("Printer").
		Order("created_at DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	data.RecentJobs = make([]JobSummary, 0, len(recent))
	for _, job := range recent {
		summary := JobSummary{
			ID:        job.ID,
			FileName:  job.FileName,
			Status:    job.Status,
			Cost:      job.CreditCost,
			CreatedAt: job.CreatedAt,
		}
		if job.User != nil {
			summary.UserName = job.User.Name
		}
		if job.Printer != nil {
			summary.Printer = job.Printer.Name
		}
		data.RecentJobs = append(data.RecentJobs, summary)
	}

	return data, nil
}
