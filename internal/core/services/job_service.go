package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/core/domain"
	"landstede-printlab/internal/pkg/pagination"

	"gorm.io/gorm"
)

// JobService drives a print job from submission to a terminal state. Every
// transition runs inside a database transaction under a per-printer mutex, so
// no two lifecycle mutations for the same printer (and therefore the same
// job) ever interleave. Submissions additionally serialize per user, so the
// balance check cannot be raced from two printers at once. Either the whole
// job/printer/ledger update set applies or none of it does.
type JobService struct {
	db         *gorm.DB
	jobRepo    *repositories.JobRepository
	userRepo   repositories.UserRepository
	creditRepo *repositories.CreditRepository
	queue      *QueueService

	printerLocks sync.Map // printer id → *sync.Mutex
	userLocks    sync.Map // user id → *sync.Mutex
}

// NewJobService creates a new job lifecycle service
func NewJobService(
	db *gorm.DB,
	jobRepo *repositories.JobRepository,
	userRepo repositories.UserRepository,
	creditRepo *repositories.CreditRepository,
	queue *QueueService,
) *JobService {
	return &JobService{
		db:         db,
		jobRepo:    jobRepo,
		userRepo:   userRepo,
		creditRepo: creditRepo,
		queue:      queue,
	}
}

// SubmitInput represents a job submission payload
type SubmitInput struct {
	PrinterID     uint   `json:"printer_id" validate:"required"`
	FileName      string `json:"file_name" validate:"required,max=255"`
	FileSizeBytes int64  `json:"file_size_bytes" validate:"required,gt=0"`
	Notes         string `json:"notes"`
}

// Submit creates a pending job. Credits are not debited here: the debit is
// recorded on completion, and submission only checks that the user's
// available balance (balance minus cost committed to other active jobs)
// covers the estimated cost.
func (s *JobService) Submit(ctx context.Context, userID uint, input *SubmitInput) (*models.PrintJob, error) {
	if err := ValidateSubmission(input.FileName, input.FileSizeBytes); err != nil {
		return nil, err
	}
	cost, duration := EstimateJob(input.FileSizeBytes)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", domain.ErrForbidden)
	}

	// Submissions by the same user serialize even across printers, so two
	// in-flight jobs can never both pass the balance check on the same
	// credits. The user lock is always taken before the printer lock.
	unlockUser := s.lockUser(userID)
	defer unlockUser()

	unlock := s.lockPrinter(input.PrinterID)
	defer unlock()

	var job *models.PrintJob
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		printer, err := printerForUpdate(tx, input.PrinterID)
		if err != nil {
			return err
		}
		if !printer.AcceptingJobs() {
			return fmt.Errorf("%w: printer %s is %s", domain.ErrPrinterUnavailable, printer.Name, printer.Status)
		}

		available, err := s.availableBalance(tx, userID)
		if err != nil {
			return err
		}
		if available < cost {
			return fmt.Errorf("%w: job costs %d, available balance is %d", domain.ErrInsufficientCredits, cost, available)
		}

		// Priority is insertion order within the printer's active queue;
		// admins may reprioritize afterwards.
		maxPriority, err := s.jobRepo.WithTx(tx).MaxActivePriority(input.PrinterID)
		if err != nil {
			return err
		}

		job = &models.PrintJob{
			UserID:            userID,
			PrinterID:         input.PrinterID,
			FileName:          input.FileName,
			FileSizeBytes:     input.FileSizeBytes,
			Status:            models.JobStatusPending,
			Priority:          maxPriority + 1,
			CreditCost:        cost,
			EstimatedDuration: duration,
			Notes:             input.Notes,
		}
		return tx.Create(job).Error
	})
	if err != nil {
		return nil, err
	}

	s.queue.Invalidate(input.PrinterID)
	log.Printf("✅ Job submitted: %s (user %d, printer %d, %d credits)", job.FileName, userID, job.PrinterID, cost)
	return job, nil
}

// Approve moves a pending job to approved and records the approving admin.
func (s *JobService) Approve(ctx context.Context, adminID, jobID uint) (*models.PrintJob, error) {
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		if job.Status != models.JobStatusPending {
			return fmt.Errorf("%w: cannot approve a %s job", domain.ErrInvalidState, job.Status)
		}
		job.Status = models.JobStatusApproved
		job.ApprovedBy = &adminID
		return tx.Save(job).Error
	})
}

// Start moves an approved job to printing and occupies the printer. Only one
// job per printer may be printing at a time.
func (s *JobService) Start(ctx context.Context, jobID uint) (*models.PrintJob, error) {
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		if job.Status != models.JobStatusApproved {
			return fmt.Errorf("%w: cannot start a %s job", domain.ErrInvalidState, job.Status)
		}
		printing, err := s.jobRepo.WithTx(tx).PrintingJob(printer.ID)
		if err != nil {
			return err
		}
		if printing != nil {
			return fmt.Errorf("%w: printer %s is already printing job %d", domain.ErrConflict, printer.Name, printing.ID)
		}
		if printer.Status != models.PrinterStatusOnline {
			return fmt.Errorf("%w: printer %s is %s", domain.ErrPrinterUnavailable, printer.Name, printer.Status)
		}

		now := time.Now()
		job.Status = models.JobStatusPrinting
		job.StartedAt = &now
		if err := tx.Save(job).Error; err != nil {
			return err
		}

		eta := now.Add(time.Duration(jobDuration(job)) * time.Minute)
		printer.Status = models.PrinterStatusPrinting
		printer.CurrentJobID = &job.ID
		printer.EstimatedCompletionTime = &eta
		return tx.Save(printer).Error
	})
}

// Complete finishes a printing job, debits the ledger and frees the printer.
func (s *JobService) Complete(ctx context.Context, jobID uint) (*models.PrintJob, error) {
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		if job.Status != models.JobStatusPrinting {
			return fmt.Errorf("%w: cannot complete a %s job", domain.ErrInvalidState, job.Status)
		}

		now := time.Now()
		job.Status = models.JobStatusCompleted
		job.CompletedAt = &now
		if err := tx.Save(job).Error; err != nil {
			return err
		}

		// Debit-on-completion: the one and only ledger effect of a job.
		credits := s.creditRepo.WithTx(tx)
		debited, err := credits.CountByJob(job.ID)
		if err != nil {
			return err
		}
		if debited > 0 {
			return fmt.Errorf("%w: job %d has already been debited", domain.ErrConflict, job.ID)
		}
		if err := credits.Append(&models.CreditTransaction{
			UserID:      job.UserID,
			Amount:      -job.CreditCost,
			Type:        models.TxTypePrintJob,
			Description: fmt.Sprintf("Print job: %s", job.FileName),
			PrintJobID:  &job.ID,
		}); err != nil {
			return err
		}

		return freePrinter(tx, printer)
	})
}

// Fail marks a printing job failed and frees the printer. No ledger effect:
// under the debit-on-completion policy nothing was charged, so there is
// nothing to refund.
func (s *JobService) Fail(ctx context.Context, jobID uint) (*models.PrintJob, error) {
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		if job.Status != models.JobStatusPrinting {
			return fmt.Errorf("%w: cannot fail a %s job", domain.ErrInvalidState, job.Status)
		}

		now := time.Now()
		job.Status = models.JobStatusFailed
		job.CompletedAt = &now
		if err := tx.Save(job).Error; err != nil {
			return err
		}

		return freePrinter(tx, printer)
	})
}

// Cancel withdraws a pending or approved job. Allowed to the owning user and
// to admins; printing jobs must be failed or completed instead.
func (s *JobService) Cancel(ctx context.Context, actorID uint, actorRole string, jobID uint) (*models.PrintJob, error) {
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		if actorRole != models.RoleAdmin && job.UserID != actorID {
			return fmt.Errorf("%w: only the owner or an admin can cancel this job", domain.ErrForbidden)
		}
		if job.Status != models.JobStatusPending && job.Status != models.JobStatusApproved {
			return fmt.Errorf("%w: cannot cancel a %s job", domain.ErrInvalidState, job.Status)
		}
		job.Status = models.JobStatusCancelled
		return tx.Save(job).Error
	})
}

// SetPriority reprioritizes a queued (pending/approved) job.
func (s *JobService) SetPriority(ctx context.Context, jobID uint, priority int) (*models.PrintJob, error) {
	if priority < 1 {
		return nil, fmt.Errorf("%w: priority must be >= 1", domain.ErrValidation)
	}
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		if job.Status != models.JobStatusPending && job.Status != models.JobStatusApproved {
			return fmt.Errorf("%w: cannot reprioritize a %s job", domain.ErrInvalidState, job.Status)
		}
		job.Priority = priority
		return tx.Save(job).Error
	})
}

// AppendNote adds an administrative audit note. This is the only mutation
// permitted on terminal jobs.
func (s *JobService) AppendNote(ctx context.Context, adminID, jobID uint, note string) (*models.PrintJob, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("%w: note is required", domain.ErrValidation)
	}
	return s.transition(ctx, jobID, func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error {
		stamp := fmt.Sprintf("[admin %d] %s", adminID, note)
		if job.Notes == "" {
			job.Notes = stamp
		} else {
			job.Notes = job.Notes + "\n" + stamp
		}
		return tx.Model(job).Update("notes", job.Notes).Error
	})
}

// Get returns one job; students may only read their own.
func (s *JobService) Get(ctx context.Context, actorID uint, actorRole string, jobID uint) (*models.PrintJob, error) {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job %d", domain.ErrNotFound, jobID)
		}
		return nil, err
	}
	if actorRole != models.RoleAdmin && job.UserID != actorID {
		return nil, fmt.Errorf("%w: not your job", domain.ErrForbidden)
	}
	return job, nil
}

// MyJobs partitions a user's jobs for the portal: active first, then
// completed, then the rest.
type MyJobs struct {
	Active    []models.PrintJob `json:"active"`
	Completed []models.PrintJob `json:"completed"`
	Other     []models.PrintJob `json:"other"`
}

// ListMine returns the calling user's jobs partitioned by status group.
func (s *JobService) ListMine(ctx context.Context, userID uint) (*MyJobs, error) {
	jobs, err := s.jobRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	out := &MyJobs{
		Active:    []models.PrintJob{},
		Completed: []models.PrintJob{},
		Other:     []models.PrintJob{},
	}
	for _, job := range jobs {
		switch {
		case models.JobStatusActive(job.Status):
			out.Active = append(out.Active, job)
		case job.Status == models.JobStatusCompleted:
			out.Completed = append(out.Completed, job)
		default:
			out.Other = append(out.Other, job)
		}
	}
	return out, nil
}

// JobPage bundles a job page with pagination metadata.
type JobPage struct {
	Jobs []models.PrintJob `json:"jobs"`
	Meta *pagination.Meta  `json:"meta"`
}

// ListAll returns jobs across all users, optionally filtered by status.
// Admin surface.
func (s *JobService) ListAll(ctx context.Context, status string, params *pagination.Params) (*JobPage, error) {
	if status != "" && !models.ValidJobStatus(status) {
		return nil, fmt.Errorf("%w: unknown job status %q", domain.ErrValidation, status)
	}
	jobs, total, err := s.jobRepo.List(status, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return &JobPage{Jobs: jobs, Meta: pagination.GetMeta(params, total)}, nil
}

// transition runs fn on the job and its printer inside a transaction under
// the printer's mutex, then invalidates the queue projection.
func (s *JobService) transition(
	ctx context.Context,
	jobID uint,
	fn func(tx *gorm.DB, job *models.PrintJob, printer *models.Printer) error,
) (*models.PrintJob, error) {
	// Resolve the printer outside the transaction so we know which lock to
	// take; the job is re-read inside the transaction after locking.
	peek, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job %d", domain.ErrNotFound, jobID)
		}
		return nil, err
	}

	unlock := s.lockPrinter(peek.PrinterID)
	defer unlock()

	var job models.PrintJob
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: job %d", domain.ErrNotFound, jobID)
			}
			return err
		}
		printer, err := printerForUpdate(tx, job.PrinterID)
		if err != nil {
			return err
		}
		return fn(tx, &job, printer)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Invalidate(peek.PrinterID)
	log.Printf("✅ Job %d → %s", job.ID, job.Status)
	return &job, nil
}

func (s *JobService) lockPrinter(printerID uint) func() {
	v, _ := s.printerLocks.LoadOrStore(printerID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *JobService) lockUser(userID uint) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func printerForUpdate(tx *gorm.DB, printerID uint) (*models.Printer, error) {
	var printer models.Printer
	if err := tx.First(&printer, printerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: printer %d", domain.ErrNotFound, printerID)
		}
		return nil, err
	}
	return &printer, nil
}

// freePrinter clears the active-job reference and puts the printer back
// online. Admins can override the status afterwards.
func freePrinter(tx *gorm.DB, printer *models.Printer) error {
	return tx.Model(printer).Updates(map[string]interface{}{
		"status":                    models.PrinterStatusOnline,
		"current_job_id":            nil,
		"estimated_completion_time": nil,
	}).Error
}

// availableBalance computes balance minus committed active-job cost inside
// the caller's transaction.
func (s *JobService) availableBalance(tx *gorm.DB, userID uint) (int, error) {
	balance, err := s.creditRepo.WithTx(tx).Balance(userID)
	if err != nil {
		return 0, err
	}
	committed, err := s.jobRepo.WithTx(tx).SumActiveCost(userID)
	if err != nil {
		return 0, err
	}
	return balance - committed, nil
}
