// Package repository persists clients, reports and attachments.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrVersionMismatch  = errors.New("version mismatch")
	ErrAlreadyClaimed   = errors.New("attachment already claimed")
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// DateField selects which report date a range filter applies to.
type DateField string

const (
	DateFieldIssue  DateField = "issueDate"
	DateFieldSample DateField = "sampleDate"
)

// ReportQuery filters the admin report listing. Zero values mean no filter;
// Limit <= 0 returns every match.
type ReportQuery struct {
	From         models.Date
	To           models.Date
	DateField    DateField
	Status       models.ReportStatus
	AnalysisType models.AnalysisType
	Search       string
	Limit        int
	Offset       int
}

// StatusUpdate changes a report status. ExpectedVersion 0 skips the
// optimistic concurrency check.
type StatusUpdate struct {
	Status          models.ReportStatus
	ExpectedVersion int
}

type Repository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	FindClientByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindClientByEmail(ctx context.Context, email string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)

	// CreateReport inserts report and, when attachmentID is set, claims that
	// attachment for it in the same transaction.
	CreateReport(ctx context.Context, report *models.Report, attachmentID *uuid.UUID) error
	FindReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	FindReportByIdempotencyKey(ctx context.Context, key string) (*models.Report, error)
	ListReports(ctx context.Context, q ReportQuery) ([]models.Report, int64, error)
	ListReportsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Report, error)
	UpdateReportStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*models.Report, error)

	CreateAttachment(ctx context.Context, att *models.Attachment) error
	FindAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
}

var (
	_ Repository = (*GormRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
