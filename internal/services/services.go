package services

import (
	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/storage"
)

// Services groups the application services built over one repository and
// file store.
type Services struct {
	Auth        *AuthService
	Clients     *ClientService
	Attachments *AttachmentService
	Reports     *ReportService
}

func New(cfg *config.Config, repo repository.Repository, files storage.FileStore, m *metrics.Metrics) *Services {
	attachments := NewAttachmentService(repo, files, m, int64(cfg.MaxUploadBytes), cfg.PublicFilesBaseURL, cfg.S3PresignTTL)
	return &Services{
		Auth:        NewAuthService(repo, cfg),
		Clients:     NewClientService(repo, m),
		Attachments: attachments,
		Reports:     NewReportService(repo, attachments, m, cfg.StrictStatusLifecycle),
	}
}
