package portal

import (
	"context"
	"io"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/models"
)

// Store is the system of record the portal talks to. HTTPStore reaches the
// report API; LocalStore runs the same services in process.
type Store interface {
	LoginClient(ctx context.Context, email string) (*Session, error)
	LoginAdmin(ctx context.Context, email, password string) (*Session, error)
	// Resume returns the session behind still-held credentials, or nil.
	Resume(ctx context.Context) (*Session, error)
	Logout()

	GetReport(ctx context.Context, id string) (*models.Report, error)
	ClientReports(ctx context.Context, email string) ([]models.Report, error)
	ListReports(ctx context.Context, f ReportFilter) (*ReportPage, error)
	ListClients(ctx context.Context) ([]models.Client, error)

	UploadAttachment(ctx context.Context, r io.Reader, filename string) (*Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
	CreateReport(ctx context.Context, req dto.CreateReportRequest, idempotencyKey string) (*models.Report, error)
	UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, version int) (*models.Report, error)
	CreateClient(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error)
}

// Attachment is an uploaded PDF not yet, or already, claimed by a report.
type Attachment struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ReportPage is one page of the admin listing. TotalPages is 1 for an
// unpaginated, non-empty result.
type ReportPage struct {
	Reports    []models.Report
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}
