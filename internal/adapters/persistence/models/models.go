package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// Role values
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents users table. Credit balance is never stored here; it is
// always derived from the credit_transactions ledger.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Password      string         `gorm:"size:255;not null" json:"-"`
	Role          string         `gorm:"size:20;default:'student'" json:"role"`
	StudentNumber *string        `gorm:"size:20;uniqueIndex" json:"student_number,omitempty"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse DTO
type UserResponse struct {
	ID            uint      `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	StudentNumber string    `json:"student_number,omitempty"`
	IsActive      bool      `json:"is_active"`
	Credits       int       `json:"credits"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.StudentNumber != nil {
		resp.StudentNumber = *u.StudentNumber
	}
	return resp
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Printer Registry
// ============================================================

// Printer statuses
const (
	PrinterStatusOnline      = "online"
	PrinterStatusOffline     = "offline"
	PrinterStatusPrinting    = "printing"
	PrinterStatusMaintenance = "maintenance"
	PrinterStatusDisabled    = "disabled"
)

// ValidPrinterStatus reports whether s is a known printer status.
func ValidPrinterStatus(s string) bool {
	switch s {
	case PrinterStatusOnline, PrinterStatusOffline, PrinterStatusPrinting,
		PrinterStatusMaintenance, PrinterStatusDisabled:
		return true
	}
	return false
}

// Printer represents printers table.
// Invariant: Status == printing ⇔ CurrentJobID references the single job in
// printing state on this printer. Enforced by the job lifecycle service.
type Printer struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	Name                    string     `gorm:"size:100;not null" json:"name"`
	Brand                   string     `gorm:"size:100;not null" json:"brand"`
	Status                  string     `gorm:"size:20;default:'online';index" json:"status"`
	Location                string     `gorm:"size:200" json:"location"`
	Description             string     `gorm:"type:text" json:"description"`
	CurrentJobID            *uint      `json:"current_job_id,omitempty"`
	EstimatedCompletionTime *time.Time `json:"estimated_completion_time,omitempty"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Printer) TableName() string {
	return "printers"
}

// AcceptingJobs reports whether new submissions may target this printer.
func (p *Printer) AcceptingJobs() bool {
	return p.Status == PrinterStatusOnline || p.Status == PrinterStatusPrinting
}

// PrinterResponse DTO with derived queue info
type PrinterResponse struct {
	Printer
	QueueLength      int `json:"queue_length"`
	EstimatedWaitMin int `json:"estimated_wait_min"`
}

// PrinterStats aggregates finished-job figures for one printer. SuccessRate
// is completed over finished (completed + failed), as a rounded percentage.
type PrinterStats struct {
	PrinterID        uint    `json:"printer_id"`
	TotalJobs        int64   `json:"total_jobs_completed"`
	FailedJobs       int64   `json:"total_jobs_failed"`
	TotalPrintTime   int64   `json:"total_print_time_min"`
	AverageJobTime   float64 `json:"average_job_time_min"`
	TotalCreditsUsed int64   `json:"total_credits_used"`
	SuccessRate      int     `json:"success_rate_pct"`
}

// ============================================================
// Print Jobs
// ============================================================

// Job statuses. pending, approved and printing are active; the rest are
// terminal and immutable (except admin audit notes).
const (
	JobStatusPending   = "pending"
	JobStatusApproved  = "approved"
	JobStatusPrinting  = "printing"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// ActiveJobStatuses are the statuses that occupy a printer's queue.
var ActiveJobStatuses = []string{JobStatusPending, JobStatusApproved, JobStatusPrinting}

// JobStatusActive reports whether status counts toward a printer's queue.
func JobStatusActive(status string) bool {
	return status == JobStatusPending || status == JobStatusApproved || status == JobStatusPrinting
}

// ValidJobStatus reports whether s is a known job status.
func ValidJobStatus(s string) bool {
	return JobStatusActive(s) || JobStatusTerminal(s)
}

// JobStatusTerminal reports whether status permits no further transitions.
func JobStatusTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled
}

// PrintJob represents print_jobs table
type PrintJob struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	PrinterID         uint       `gorm:"index;not null" json:"printer_id"`
	FileName          string     `gorm:"size:255;not null" json:"file_name"`
	FileSizeBytes     int64      `gorm:"not null" json:"file_size_bytes"`
	Status            string     `gorm:"size:20;default:'pending';index" json:"status"`
	Priority          int        `gorm:"not null" json:"priority"`
	CreditCost        int        `gorm:"not null" json:"credit_cost"`
	EstimatedDuration int        `json:"estimated_duration"`
	Notes             string     `gorm:"type:text" json:"notes"`
	ApprovedBy        *uint      `json:"approved_by,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User     *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Printer  *Printer `gorm:"foreignKey:PrinterID" json:"printer,omitempty"`
	Approver *User    `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (PrintJob) TableName() string {
	return "print_jobs"
}

// QueueEntry is one row of a printer's live queue projection.
type QueueEntry struct {
	Position         int       `json:"position"`
	Job              *PrintJob `json:"job"`
	EstimatedWaitMin int       `json:"estimated_wait_min"`
}

// ============================================================
// Credit Ledger
// ============================================================

// Transaction types
const (
	TxTypePurchase        = "purchase"
	TxTypePrintJob        = "print_job"
	TxTypeRefund          = "refund"
	TxTypeAdminAdjustment = "admin_adjustment"
)

// CreditTransaction represents credit_transactions table. Append-only: rows
// are never updated or deleted, corrections are new offsetting rows. A user's
// balance is the sum of their amounts.
type CreditTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Amount      int       `gorm:"not null" json:"amount"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	Description string    `gorm:"size:255;not null" json:"description"`
	PrintJobID  *uint     `gorm:"index" json:"print_job_id,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	User     *User     `gorm:"foreignKey:UserID" json:"-"`
	PrintJob *PrintJob `gorm:"foreignKey:PrintJobID" json:"-"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// ============================================================
// Migration
// ============================================================

// AutoMigrate creates/updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Printer{},
		&PrintJob{},
		&CreditTransaction{},
	)
}
