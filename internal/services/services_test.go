package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/storage"
)

const testSecret = "test-secret"

type fixture struct {
	cfg         *config.Config
	repo        *repository.MemoryRepository
	files       *storage.MemoryStore
	metrics     *metrics.Metrics
	auth        *AuthService
	clients     *ClientService
	attachments *AttachmentService
	reports     *ReportService
}

func newFixture(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      testSecret,
		JWTExpiry:      time.Hour,
		AdminEmails:    "admin@labanalytica.com",
		AdminName:      "Administrador",
		MaxUploadBytes: 1024,
		S3PresignTTL:   time.Minute,
	}
	for _, o := range opts {
		o(cfg)
	}

	f := &fixture{
		cfg:     cfg,
		repo:    repository.NewMemory(),
		files:   storage.NewMemory(),
		metrics: metrics.New(),
	}
	svc := New(cfg, f.repo, f.files, f.metrics)
	f.auth = svc.Auth
	f.clients = svc.Clients
	f.attachments = svc.Attachments
	f.reports = svc.Reports
	return f
}

func (f *fixture) client(t *testing.T, name, email string) *models.Client {
	t.Helper()
	c, err := f.clients.Create(context.Background(), &dto.CreateClientRequest{Name: name, Email: email})
	require.NoError(t, err)
	return c
}

func reportRequest(clientID string) *dto.CreateReportRequest {
	return &dto.CreateReportRequest{
		Code:                   "LAB-001",
		ClientID:               clientID,
		AnalysisType:           "agua",
		Description:            "Potabilidade",
		ResponsibleTechnician:  "Maria Souza",
		TechnicianRegistration: "CRQ 12345",
		SampleDate:             "2025-01-05",
		IssueDate:              "2025-01-10",
		Status:                 "valido",
	}
}

func (f *fixture) report(t *testing.T, req *dto.CreateReportRequest) *models.Report {
	t.Helper()
	r, created, err := f.reports.Create(context.Background(), req, "")
	require.NoError(t, err)
	require.True(t, created)
	return r
}

func pdfUpload(name string) Upload {
	body := []byte("%PDF-1.7\nsigned laudo")
	return Upload{
		Filename:    name,
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}
