package repositories

import (
	"landstede-printlab/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// queueOrder is the canonical queue ordering: priority ascending (lower value
// served first), ties broken by submission time, then ID for a strict total
// order. Recomputing over an unchanged job set always yields the same sequence.
const queueOrder = "priority ASC, created_at ASC, id ASC"

// JobRepository handles print job database operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// WithTx returns a repository bound to tx so its queries join the caller's
// transaction.
func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository {
	return &JobRepository{db: tx}
}

// GetByID returns a job by ID with relations
func (r *JobRepository) GetByID(id uint) (*models.PrintJob, error) {
	var job models.PrintJob
	err := r.db.
		Preload("User").
		Preload("Printer").
		First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ActiveQueue returns the live queue projection for a printer: all jobs in
// pending/approved/printing state in canonical order.
func (r *JobRepository) ActiveQueue(printerID uint) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	err := r.db.
		Preload("User").
		Where("printer_id = ? AND status IN ?", printerID, models.ActiveJobStatuses).
		Order(queueOrder).
		Find(&jobs).Error
	return jobs, err
}

// ListByUser returns all jobs of a user, newest first
func (r *JobRepository) ListByUser(userID uint) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	err := r.db.
		Preload("Printer").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

// List returns jobs with optional status filter and pagination
func (r *JobRepository) List(status string, offset, limit int) ([]models.PrintJob, int64, error) {
	var jobs []models.PrintJob
	var total int64

	q := r.db.Model(&models.PrintJob{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("User").
		Preload("Printer").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&jobs).Error
	return jobs, total, err
}

// MaxActivePriority returns the highest priority value among a printer's
// active jobs, 0 when the queue is empty.
func (r *JobRepository) MaxActivePriority(printerID uint) (int, error) {
	var max int
	err := r.db.Model(&models.PrintJob{}).
		Where("printer_id = ? AND status IN ?", printerID, models.ActiveJobStatuses).
		Select("COALESCE(MAX(priority), 0)").
		Scan(&max).Error
	return max, err
}

// SumActiveCost returns the summed credit cost of a user's active jobs:
// credits committed but not yet debited under the debit-on-completion policy.
func (r *JobRepository) SumActiveCost(userID uint) (int, error) {
	var sum int
	err := r.db.Model(&models.PrintJob{}).
		Where("user_id = ? AND status IN ?", userID, models.ActiveJobStatuses).
		Select("COALESCE(SUM(credit_cost), 0)").
		Scan(&sum).Error
	return sum, err
}

// PrintingJob returns the job currently printing on a printer, nil when idle.
func (r *JobRepository) PrintingJob(printerID uint) (*models.PrintJob, error) {
	var job models.PrintJob
	err := r.db.
		Where("printer_id = ? AND status = ?", printerID, models.JobStatusPrinting).
		First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}
