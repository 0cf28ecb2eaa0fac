package repositories

import (
	"landstede-printlab/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// CreditRepository handles the append-only credit ledger. Rows are only ever
// inserted; corrections are new offsetting transactions.
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// WithTx returns a repository bound to tx so its queries join the caller's
// transaction.
func (r *CreditRepository) WithTx(tx *gorm.DB) *CreditRepository {
	return &CreditRepository{db: tx}
}

// Append inserts a new transaction
func (r *CreditRepository) Append(tx *models.CreditTransaction) error {
	return r.db.Create(tx).Error
}

// Balance folds a user's transaction amounts into their current balance
func (r *CreditRepository) Balance(userID uint) (int, error) {
	var balance int
	err := r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	return balance, err
}

// History returns a user's transactions, newest first, with pagination
func (r *CreditRepository) History(userID uint, offset, limit int) ([]models.CreditTransaction, int64, error) {
	var txs []models.CreditTransaction
	var total int64

	if err := r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, total, err
}

// CountByJob counts ledger rows linked to a print job (one debit max)
func (r *CreditRepository) CountByJob(jobID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CreditTransaction{}).
		Where("print_job_id = ?", jobID).
		Count(&count).Error
	return count, err
}
