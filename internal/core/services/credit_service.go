package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/core/domain"
	"landstede-printlab/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Credit packs students can buy (payment processing is out of scope; the
// portal records the purchase in the ledger).
var CreditPacks = map[string]int{
	"starter":  25,
	"standard": 50,
	"premium":  100,
}

// CreditService handles the credit ledger. Balances are never stored: every
// balance read is a fold over the user's transaction history.
type CreditService struct {
	creditRepo *repositories.CreditRepository
	userRepo   repositories.UserRepository
	jobRepo    *repositories.JobRepository
}

// NewCreditService creates a new credit service
func NewCreditService(
	creditRepo *repositories.CreditRepository,
	userRepo repositories.UserRepository,
	jobRepo *repositories.JobRepository,
) *CreditService {
	return &CreditService{
		creditRepo: creditRepo,
		userRepo:   userRepo,
		jobRepo:    jobRepo,
	}
}

// Balance returns the user's current balance: sum of all their transactions.
func (s *CreditService) Balance(ctx context.Context, userID uint) (int, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
		}
		return 0, err
	}
	return s.creditRepo.Balance(userID)
}

// AvailableBalance returns balance minus the summed cost of the user's active
// jobs. Submissions validate against this figure so that later
// debit-on-completion can never drive the balance negative.
func (s *CreditService) AvailableBalance(ctx context.Context, userID uint) (int, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	committed, err := s.jobRepo.SumActiveCost(userID)
	if err != nil {
		return 0, err
	}
	return balance - committed, nil
}

// Record appends a transaction to the ledger.
func (s *CreditService) Record(ctx context.Context, userID uint, amount int, txType, description string, jobID *uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
		}
		return err
	}
	return s.creditRepo.Append(&models.CreditTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		PrintJobID:  jobID,
	})
}

// Purchase buys a credit pack for the user.
func (s *CreditService) Purchase(ctx context.Context, userID uint, pack string) (*models.CreditTransaction, error) {
	amount, ok := CreditPacks[pack]
	if !ok {
		return nil, fmt.Errorf("%w: unknown credit pack %q", domain.ErrValidation, pack)
	}

	tx := &models.CreditTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        models.TxTypePurchase,
		Description: fmt.Sprintf("Credit purchase - %s pack (%d credits)", pack, amount),
	}
	if err := s.creditRepo.Append(tx); err != nil {
		return nil, err
	}

	log.Printf("✅ Credits purchased: user %d +%d (%s)", userID, amount, pack)
	return tx, nil
}

// AdminAdjust records a manual correction. Negative adjustments are bounded
// by the user's available balance so pending job debits stay covered.
func (s *CreditService) AdminAdjust(ctx context.Context, adminID, userID uint, amount int, description string) (*models.CreditTransaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: adjustment amount must be non-zero", domain.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	available, err := s.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount < 0 && available+amount < 0 {
		return nil, fmt.Errorf("%w: adjustment would make balance negative", domain.ErrConflict)
	}

	tx := &models.CreditTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        models.TxTypeAdminAdjustment,
		Description: description,
	}
	if err := s.creditRepo.Append(tx); err != nil {
		return nil, err
	}

	log.Printf("✅ Credit adjustment: user %d %+d by admin %d", userID, amount, adminID)
	return tx, nil
}

// HistoryResult bundles a transaction page with pagination metadata.
type HistoryResult struct {
	Transactions []models.CreditTransaction `json:"transactions"`
	Meta         *pagination.Meta           `json:"meta"`
}

// History returns the user's transactions, newest first.
func (s *CreditService) History(ctx context.Context, userID uint, params *pagination.Params) (*HistoryResult, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
		}
		return nil, err
	}

	txs, total, err := s.creditRepo.History(userID, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{
		Transactions: txs,
		Meta:         pagination.GetMeta(params, total),
	}, nil
}
