package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/services"
	"github.com/labmoura/laudos/internal/storage"
	"github.com/labmoura/laudos/internal/validate"
)

// LocalStore runs the report services in process. With the memory
// repository and file store it is the fake behind portal tests; it applies
// the same access rules as the HTTP API.
type LocalStore struct {
	svc *services.Services

	mu    sync.RWMutex
	actor *models.Actor
}

func NewLocalStore(cfg *config.Config, repo repository.Repository, files storage.FileStore) *LocalStore {
	return &LocalStore{svc: services.New(cfg, repo, files, metrics.New())}
}

// NewMemoryStore is a LocalStore over fresh in-memory storage.
func NewMemoryStore(cfg *config.Config) *LocalStore {
	return NewLocalStore(cfg, repository.NewMemory(), storage.NewMemory())
}

func (s *LocalStore) LoginClient(ctx context.Context, email string) (*Session, error) {
	auth, err := s.svc.Auth.LoginClient(ctx, &dto.ClientLoginRequest{Email: email})
	if err != nil {
		return nil, localError(err)
	}
	return s.begin(auth), nil
}

func (s *LocalStore) LoginAdmin(ctx context.Context, email, password string) (*Session, error) {
	auth, err := s.svc.Auth.LoginAdmin(ctx, &dto.AdminLoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, localError(err)
	}
	return s.begin(auth), nil
}

func (s *LocalStore) begin(auth *dto.AuthResponse) *Session {
	actor := auth.Actor
	s.mu.Lock()
	s.actor = &actor
	s.mu.Unlock()
	return &Session{Actor: actor, ExpiresAt: auth.ExpiresAt}
}

func (s *LocalStore) Resume(context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.actor == nil {
		return nil, nil
	}
	return &Session{Actor: *s.actor}, nil
}

func (s *LocalStore) Logout() {
	s.Expire()
}

// Expire drops the store-side credentials, as a lapsed token would.
func (s *LocalStore) Expire() {
	s.mu.Lock()
	s.actor = nil
	s.mu.Unlock()
}

func (s *LocalStore) current() (models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.actor == nil {
		return models.Actor{}, ErrAuthExpired
	}
	return *s.actor, nil
}

func (s *LocalStore) admin() error {
	actor, err := s.current()
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *LocalStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	report, err := s.svc.Reports.GetPublic(ctx, rid)
	if err != nil {
		return nil, localError(err)
	}
	return report, nil
}

func (s *LocalStore) ClientReports(ctx context.Context, email string) ([]models.Report, error) {
	actor, err := s.current()
	if err != nil {
		return nil, err
	}
	email = validate.NormalizeEmail(email)
	if email == "" && !actor.IsAdmin() {
		email = actor.Email
	}
	if email == "" {
		return nil, &ValidationError{Fields: map[string]string{"email": "is required"}}
	}
	if !actor.IsAdmin() && email != validate.NormalizeEmail(actor.Email) {
		return nil, ErrForbidden
	}

	reports, err := s.svc.Reports.ListForClient(ctx, email)
	if err != nil {
		return nil, localError(err)
	}
	return reports, nil
}

func (s *LocalStore) ListReports(ctx context.Context, f ReportFilter) (*ReportPage, error) {
	if err := s.admin(); err != nil {
		return nil, err
	}
	params := services.ReportListParams{
		StartDate:    f.From.String(),
		EndDate:      f.To.String(),
		DateField:    string(f.DateField),
		Status:       string(f.Status),
		AnalysisType: string(f.AnalysisType),
		Search:       f.Search,
	}
	if f.PageSize > 0 {
		params.Page, params.Limit = f.Page, f.PageSize
	}
	resp, err := s.svc.Reports.List(ctx, params)
	if err != nil {
		return nil, localError(err)
	}
	return &ReportPage{
		Reports:    resp.Reports,
		Total:      resp.Total,
		Page:       resp.Page,
		PageSize:   resp.Limit,
		TotalPages: resp.TotalPages,
	}, nil
}

func (s *LocalStore) ListClients(ctx context.Context) ([]models.Client, error) {
	if err := s.admin(); err != nil {
		return nil, err
	}
	clients, err := s.svc.Clients.List(ctx)
	if err != nil {
		return nil, localError(err)
	}
	return clients, nil
}

func (s *LocalStore) UploadAttachment(ctx context.Context, r io.Reader, filename string) (*Attachment, error) {
	if err := s.admin(); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	att, err := s.svc.Attachments.Upload(ctx, services.Upload{
		Filename:    filename,
		ContentType: "application/pdf",
		Size:        int64(len(b)),
		Body:        bytes.NewReader(b),
	})
	if err != nil {
		return nil, localError(err)
	}
	return &Attachment{
		ID:          att.ID.String(),
		URL:         s.svc.Attachments.URL(att),
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Size:        att.Size,
	}, nil
}

func (s *LocalStore) DeleteAttachment(ctx context.Context, id string) error {
	if err := s.admin(); err != nil {
		return err
	}
	aid, err := uuid.Parse(id)
	if err != nil {
		return &ValidationError{Message: "Invalid upload id"}
	}
	return localError(s.svc.Attachments.Delete(ctx, aid))
}

func (s *LocalStore) CreateReport(ctx context.Context, req dto.CreateReportRequest, idempotencyKey string) (*models.Report, error) {
	if err := s.admin(); err != nil {
		return nil, err
	}
	report, _, err := s.svc.Reports.Create(ctx, &req, idempotencyKey)
	if err != nil {
		return nil, localError(err)
	}
	return report, nil
}

func (s *LocalStore) UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, version int) (*models.Report, error) {
	if err := s.admin(); err != nil {
		return nil, err
	}
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid report id"}
	}
	report, err := s.svc.Reports.UpdateStatus(ctx, rid, &dto.UpdateStatusRequest{Status: string(status), Version: version})
	if err != nil {
		return nil, localError(err)
	}
	return report, nil
}

func (s *LocalStore) CreateClient(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	if err := s.admin(); err != nil {
		return nil, err
	}
	client, err := s.svc.Clients.Create(ctx, &req)
	if err != nil {
		return nil, localError(err)
	}
	return client, nil
}

// localError maps service errors onto the portal taxonomy the same way the
// HTTP API maps them onto status codes.
func localError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for k, v := range verrs {
			fields[k] = v
		}
		return &ValidationError{Message: "Validation failed", Fields: fields}
	case errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrClientNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrFileNotFound):
		return ErrNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrVersionConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAttachmentClaimed):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, services.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	}
	return &TransportError{Err: err}
}
