package repositories

import (
	"math"

	"landstede-printlab/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PrinterRepository handles printer registry database operations
type PrinterRepository struct {
	db *gorm.DB
}

// NewPrinterRepository creates a new printer repository
func NewPrinterRepository(db *gorm.DB) *PrinterRepository {
	return &PrinterRepository{db: db}
}

// Create creates a new printer
func (r *PrinterRepository) Create(printer *models.Printer) error {
	return r.db.Create(printer).Error
}

// GetByID returns a printer by ID
func (r *PrinterRepository) GetByID(id uint) (*models.Printer, error) {
	var printer models.Printer
	err := r.db.First(&printer, id).Error
	if err != nil {
		return nil, err
	}
	return &printer, nil
}

// List returns all printers ordered by ID
func (r *PrinterRepository) List() ([]models.Printer, error) {
	var printers []models.Printer
	err := r.db.Order("id ASC").Find(&printers).Error
	return printers, err
}

// Update saves printer fields
func (r *PrinterRepository) Update(printer *models.Printer) error {
	return r.db.Save(printer).Error
}

// Delete removes a printer. Callers must first check for active jobs.
func (r *PrinterRepository) Delete(id uint) error {
	return r.db.Delete(&models.Printer{}, id).Error
}

// CountActiveJobs counts jobs occupying the printer's queue
func (r *PrinterRepository) CountActiveJobs(printerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PrintJob{}).
		Where("printer_id = ? AND status IN ?", printerID, models.ActiveJobStatuses).
		Count(&count).Error
	return count, err
}

// Stats aggregates finished-job figures for a printer
func (r *PrinterRepository) Stats(printerID uint) (*models.PrinterStats, error) {
	stats := &models.PrinterStats{PrinterID: printerID}

	err := r.db.Model(&models.PrintJob{}).
		Where("printer_id = ? AND status = ?", printerID, models.JobStatusCompleted).
		Count(&stats.TotalJobs).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.PrintJob{}).
		Where("printer_id = ? AND status = ?", printerID, models.JobStatusFailed).
		Count(&stats.FailedJobs).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.PrintJob{}).
		Where("printer_id = ? AND status = ?", printerID, models.JobStatusCompleted).
		Select("COALESCE(SUM(estimated_duration), 0)").
		Scan(&stats.TotalPrintTime).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.PrintJob{}).
		Where("printer_id = ? AND status = ?", printerID, models.JobStatusCompleted).
		Select("COALESCE(SUM(credit_cost), 0)").
		Scan(&stats.TotalCreditsUsed).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalJobs > 0 {
		stats.AverageJobTime = float64(stats.TotalPrintTime) / float64(stats.TotalJobs)
	}
	if finished := stats.TotalJobs + stats.FailedJobs; finished > 0 {
		stats.SuccessRate = int(math.Round(float64(stats.TotalJobs) / float64(finished) * 100))
	}
	return stats, nil
}
