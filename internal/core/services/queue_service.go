package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/core/domain"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// queueCacheTTL keeps the projection hot between polls without letting a
// stale view survive a missed invalidation for long.
const queueCacheTTL = 5 * time.Second

// QueueService exposes the per-printer queue projection. A queue is not a
// stored structure: it is the set of active jobs for a printer in canonical
// order (priority asc, created_at asc, id asc), memoized per printer id.
type QueueService struct {
	jobRepo     *repositories.JobRepository
	printerRepo *repositories.PrinterRepository
	cache       *gocache.Cache
}

// NewQueueService creates a new queue service
func NewQueueService(jobRepo *repositories.JobRepository, printerRepo *repositories.PrinterRepository) *QueueService {
	return &QueueService{
		jobRepo:     jobRepo,
		printerRepo: printerRepo,
		cache:       gocache.New(queueCacheTTL, time.Minute),
	}
}

// Invalidate drops the cached projection for a printer. Called by the job
// lifecycle service after every mutation touching that printer.
func (s *QueueService) Invalidate(printerID uint) {
	s.cache.Delete(cacheKey(printerID))
}

// Queue returns the live queue for a printer with 1-based positions and the
// cumulative estimated wait ahead of each entry.
func (s *QueueService) Queue(printerID uint) ([]models.QueueEntry, error) {
	key := cacheKey(printerID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.QueueEntry), nil
	}

	if _, err := s.printerRepo.GetByID(printerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: printer %d", domain.ErrNotFound, printerID)
		}
		return nil, err
	}

	jobs, err := s.jobRepo.ActiveQueue(printerID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.QueueEntry, 0, len(jobs))
	waitAhead := 0
	for i := range jobs {
		job := jobs[i]
		entries = append(entries, models.QueueEntry{
			Position:         i + 1,
			Job:              &job,
			EstimatedWaitMin: waitAhead,
		})
		waitAhead += jobDuration(&job)
	}

	s.cache.Set(key, entries, queueCacheTTL)
	return entries, nil
}

// PositionOf returns the 1-based index of a job within its printer's queue.
// Terminal jobs are no longer queued and report NotFound.
func (s *QueueService) PositionOf(jobID uint) (*models.QueueEntry, error) {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job %d", domain.ErrNotFound, jobID)
		}
		return nil, err
	}
	if !models.JobStatusActive(job.Status) {
		return nil, fmt.Errorf("%w: job %d is not queued", domain.ErrNotFound, jobID)
	}

	entries, err := s.Queue(job.PrinterID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Job.ID == jobID {
			return &entries[i], nil
		}
	}
	// Job went terminal between the two reads.
	return nil, fmt.Errorf("%w: job %d is not queued", domain.ErrNotFound, jobID)
}

// EstimatedWait sums the estimated durations of every queued job: the
// advisory wait a new submission would face.
func (s *QueueService) EstimatedWait(printerID uint) (int, error) {
	entries, err := s.Queue(printerID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range entries {
		total += jobDuration(entries[i].Job)
	}
	return total, nil
}

func jobDuration(job *models.PrintJob) int {
	if job.EstimatedDuration <= 0 {
		return DefaultJobDurationMin
	}
	return job.EstimatedDuration
}

func cacheKey(printerID uint) string {
	return "queue:" + strconv.FormatUint(uint64(printerID), 10)
}
