package services

import (
	"errors"
	"fmt"
	"log"

	"landstede-printlab/internal/adapters/persistence/models"
	"landstede-printlab/internal/adapters/persistence/repositories"
	"landstede-printlab/internal/core/domain"

	"gorm.io/gorm"
)

// PrinterService handles the printer registry
type PrinterService struct {
	printerRepo *repositories.PrinterRepository
	queue       *QueueService
}

// NewPrinterService creates a new printer service
func NewPrinterService(printerRepo *repositories.PrinterRepository, queue *QueueService) *PrinterService {
	return &PrinterService{
		printerRepo: printerRepo,
		queue:       queue,
	}
}

// CreatePrinterInput represents printer creation input
type CreatePrinterInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Brand       string `json:"brand" validate:"required,max=100"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description"`
}

// UpdatePrinterInput represents printer patch input
type UpdatePrinterInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Brand       *string `json:"brand" validate:"omitempty,min=1,max=100"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Description *string `json:"description"`
}

// Create registers a new printer, status defaults to online.
func (s *PrinterService) Create(input *CreatePrinterInput) (*models.Printer, error) {
	if input.Name == "" || input.Brand == "" {
		return nil, fmt.Errorf("%w: name and brand are required", domain.ErrValidation)
	}

	printer := &models.Printer{
		Name:        input.Name,
		Brand:       input.Brand,
		Status:      models.PrinterStatusOnline,
		Location:    input.Location,
		Description: input.Description,
	}
	if err := s.printerRepo.Create(printer); err != nil {
		return nil, err
	}

	log.Printf("✅ Printer created: %s (%s)", printer.Name, printer.Brand)
	return printer, nil
}

// Get returns one printer with derived queue figures.
func (s *PrinterService) Get(id uint) (*models.PrinterResponse, error) {
	printer, err := s.getPrinter(id)
	if err != nil {
		return nil, err
	}
	return s.withQueueInfo(printer)
}

// List returns all printers with derived queue figures.
func (s *PrinterService) List() ([]models.PrinterResponse, error) {
	printers, err := s.printerRepo.List()
	if err != nil {
		return nil, err
	}

	resp := make([]models.PrinterResponse, 0, len(printers))
	for i := range printers {
		pr, err := s.withQueueInfo(&printers[i])
		if err != nil {
			return nil, err
		}
		resp = append(resp, *pr)
	}
	return resp, nil
}

// Update patches printer metadata.
func (s *PrinterService) Update(id uint, input *UpdatePrinterInput) (*models.Printer, error) {
	printer, err := s.getPrinter(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		printer.Name = *input.Name
	}
	if input.Brand != nil {
		printer.Brand = *input.Brand
	}
	if input.Location != nil {
		printer.Location = *input.Location
	}
	if input.Description != nil {
		printer.Description = *input.Description
	}
	if printer.Name == "" || printer.Brand == "" {
		return nil, fmt.Errorf("%w: name and brand are required", domain.ErrValidation)
	}

	if err := s.printerRepo.Update(printer); err != nil {
		return nil, err
	}
	return printer, nil
}

// Delete removes a printer. Forbidden while any job is pending, approved or
// printing on it.
func (s *PrinterService) Delete(id uint) error {
	if _, err := s.getPrinter(id); err != nil {
		return err
	}

	active, err := s.printerRepo.CountActiveJobs(id)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: printer has %d active job(s)", domain.ErrConflict, active)
	}

	if err := s.printerRepo.Delete(id); err != nil {
		return err
	}
	s.queue.Invalidate(id)
	log.Printf("✅ Printer %d deleted", id)
	return nil
}

// SetStatus performs an administrative status transition. The printing status
// is owned by the job lifecycle: it cannot be entered manually, and leaving it
// requires the active job to be resolved first.
func (s *PrinterService) SetStatus(id uint, status string) (*models.Printer, error) {
	if !models.ValidPrinterStatus(status) {
		return nil, fmt.Errorf("%w: unknown printer status %q", domain.ErrValidation, status)
	}
	if status == models.PrinterStatusPrinting {
		return nil, fmt.Errorf("%w: printing status is set by starting a job", domain.ErrConflict)
	}

	printer, err := s.getPrinter(id)
	if err != nil {
		return nil, err
	}
	if printer.Status == models.PrinterStatusPrinting && printer.CurrentJobID != nil {
		return nil, fmt.Errorf("%w: resolve the active job before changing status", domain.ErrConflict)
	}

	printer.Status = status
	if err := s.printerRepo.Update(printer); err != nil {
		return nil, err
	}

	log.Printf("✅ Printer %d status set to %s", id, status)
	return printer, nil
}

// Stats returns completed-job aggregates for one printer.
func (s *PrinterService) Stats(id uint) (*models.PrinterStats, error) {
	if _, err := s.getPrinter(id); err != nil {
		return nil, err
	}
	return s.printerRepo.Stats(id)
}

func (s *PrinterService) getPrinter(id uint) (*models.Printer, error) {
	printer, err := s.printerRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: printer %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return printer, nil
}

func (s *PrinterService) withQueueInfo(printer *models.Printer) (*models.PrinterResponse, error) {
	entries, err := s.queue.Queue(printer.ID)
	if err != nil {
		return nil, err
	}
	wait := 0
	for i := range entries {
		wait += jobDuration(entries[i].Job)
	}
	return &models.PrinterResponse{
		Printer:          *printer,
		QueueLength:      len(entries),
		EstimatedWaitMin: wait,
	}, nil
}
