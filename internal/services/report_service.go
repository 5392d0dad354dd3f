package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/validate"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ReportListParams are the admin listing query parameters as received.
// Limit 0 returns every match on one page.
type ReportListParams struct {
	StartDate    string
	EndDate      string
	DateField    string
	Status       string
	AnalysisType string
	Search       string
	Page         int
	Limit        int
}

type ReportService struct {
	repo        repository.Repository
	attachments *AttachmentService
	metrics     *metrics.Metrics
	strict      bool
}

func NewReportService(repo repository.Repository, attachments *AttachmentService, m *metrics.Metrics, strictLifecycle bool) *ReportService {
	return &ReportService{repo: repo, attachments: attachments, metrics: m, strict: strictLifecycle}
}

// GetPublic returns the report as shown to anonymous validators.
func (s *ReportService) GetPublic(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.repo.FindReport(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLookup(false)
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	s.metrics.RecordLookup(true)
	view := report.PublicView()
	return &view, nil
}

// ListForClient returns the reports of the client with email, oldest first.
// An unknown email yields an empty list.
func (s *ReportService) ListForClient(ctx context.Context, email string) ([]models.Report, error) {
	client, err := s.repo.FindClientByEmail(ctx, validate.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []models.Report{}, nil
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	reports, err := s.repo.ListReportsByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client reports: %w", err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

func (s *ReportService) List(ctx context.Context, p ReportListParams) (*dto.ReportListResponse, error) {
	q, page, limit, err := parseListParams(p)
	if err != nil {
		return nil, err
	}

	reports, total, err := s.repo.ListReports(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if reports == nil {
		reports = []models.Report{}
	}

	resp := &dto.ReportListResponse{
		Reports: reports,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}
	switch {
	case limit > 0:
		resp.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	case total > 0:
		resp.TotalPages = 1
	}
	return resp, nil
}

func parseListParams(p ReportListParams) (repository.ReportQuery, int, int, error) {
	errs := validate.Errors{}
	q := repository.ReportQuery{Search: strings.TrimSpace(p.Search)}

	var err error
	if p.StartDate != "" {
		if q.From, err = models.ParseDate(p.StartDate); err != nil {
			errs.Add("startDate", "must be a date in YYYY-MM-DD format")
		}
	}
	if p.EndDate != "" {
		if q.To, err = models.ParseDate(p.EndDate); err != nil {
			errs.Add("endDate", "must be a date in YYYY-MM-DD format")
		}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To.Time) {
		errs.Add("startDate", "must not be after endDate")
	}

	switch repository.DateField(p.DateField) {
	case "", repository.DateFieldIssue:
		q.DateField = repository.DateFieldIssue
	case repository.DateFieldSample:
		q.DateField = repository.DateFieldSample
	default:
		errs.Add("dateField", "must be issueDate or sampleDate")
	}

	if p.Status != "" {
		q.Status = models.ReportStatus(p.Status)
		if !q.Status.Valid() {
			errs.Add("status", "is not a known status")
		}
	}
	if p.AnalysisType != "" {
		q.AnalysisType = models.AnalysisType(p.AnalysisType)
		if !q.AnalysisType.Valid() {
			errs.Add("analysisType", "is not a known analysis type")
		}
	}
	if p.Page < 0 {
		errs.Add("page", "must be positive")
	}
	if p.Limit < 0 {
		errs.Add("limit", "must be positive")
	}
	if err := errs.Err(); err != nil {
		return q, 0, 0, err
	}

	page, limit := p.Page, p.Limit
	if page == 0 {
		page = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if limit > 0 {
		q.Limit = limit
		q.Offset = (page - 1) * limit
	}
	return q, page, limit, nil
}

// Create issues a report. When idempotencyKey was already used the report
// created then is returned with created false.
func (s *ReportService) Create(ctx context.Context, req *dto.CreateReportRequest, idempotencyKey string) (report *models.Report, created bool, err error) {
	defer func() { s.metrics.RecordMutation("create_report", err) }()

	if existing, ok, err := s.findByKey(ctx, idempotencyKey); err != nil || ok {
		return existing, false, err
	}

	report, attachmentID, err := buildReport(req)
	if err != nil {
		return nil, false, err
	}
	return s.insert(ctx, report, attachmentID, idempotencyKey)
}

// CreateWithFile stores the PDF and issues the report as one step. The
// stored file is removed again if the report cannot be created.
func (s *ReportService) CreateWithFile(ctx context.Context, req *dto.CreateReportRequest, file Upload, idempotencyKey string) (report *models.Report, created bool, err error) {
	defer func() { s.metrics.RecordMutation("create_report", err) }()

	if existing, ok, err := s.findByKey(ctx, idempotencyKey); err != nil || ok {
		return existing, false, err
	}

	report, _, err = buildReport(req)
	if err != nil {
		return nil, false, err
	}
	if err := s.checkClient(ctx, report.ClientID); err != nil {
		return nil, false, err
	}

	att, err := s.attachments.Upload(ctx, file)
	if err != nil {
		return nil, false, err
	}

	report, created, err = s.insert(ctx, report, &att.ID, idempotencyKey)
	if err != nil || !created {
		if derr := s.attachments.Delete(ctx, att.ID); derr != nil {
			slog.Error("failed to discard upload after create failure", "attachment_id", att.ID, "error", derr)
		}
	}
	return report, created, err
}

func (s *ReportService) findByKey(ctx context.Context, key string) (*models.Report, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	existing, err := s.repo.FindReportByIdempotencyKey(ctx, key)
	if err == nil {
		return existing, true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("failed to check idempotency key: %w", err)
}

func (s *ReportService) checkClient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindClientByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validate.Errors{"clientId": "client does not exist"}
		}
		return fmt.Errorf("failed to find client: %w", err)
	}
	return nil
}

func (s *ReportService) insert(ctx context.Context, report *models.Report, attachmentID *uuid.UUID, key string) (*models.Report, bool, error) {
	if err := s.checkClient(ctx, report.ClientID); err != nil {
		return nil, false, err
	}

	if attachmentID != nil {
		att, err := s.repo.FindAttachment(ctx, *attachmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, false, validate.Errors{"attachmentId": "upload does not exist"}
			}
			return nil, false, fmt.Errorf("failed to find attachment: %w", err)
		}
		if att.ReportID != nil {
			return nil, false, ErrAttachmentClaimed
		}
		report.SignedPDFURL = s.attachments.URL(att)
	}
	if key != "" {
		report.IdempotencyKey = &key
	}

	if err := s.repo.CreateReport(ctx, report, attachmentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate) && key != "":
			// Lost a race with a retry carrying the same key.
			existing, err := s.repo.FindReportByIdempotencyKey(ctx, key)
			if err != nil {
				return nil, false, fmt.Errorf("failed to load report for idempotency key: %w", err)
			}
			return existing, false, nil
		case errors.Is(err, repository.ErrInvalidReference):
			return nil, false, validate.Errors{"clientId": "client does not exist"}
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, false, ErrAttachmentClaimed
		case errors.Is(err, repository.ErrNotFound):
			return nil, false, validate.Errors{"attachmentId": "upload does not exist"}
		}
		return nil, false, fmt.Errorf("failed to create report: %w", err)
	}

	created, err := s.repo.FindReport(ctx, report.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload report: %w", err)
	}
	slog.Info("report created", "report_id", created.ID, "code", created.Code)
	return created, true, nil
}

func buildReport(req *dto.CreateReportRequest) (*models.Report, *uuid.UUID, error) {
	errs := validate.Errors{}
	errs.Required("code", req.Code)
	errs.Required("clientId", req.ClientID)
	errs.Required("analysisType", req.AnalysisType)
	errs.Required("responsibleTechnician", req.ResponsibleTechnician)
	errs.Required("technicianRegistration", req.TechnicianRegistration)
	errs.Required("sampleDate", req.SampleDate)
	errs.Required("issueDate", req.IssueDate)
	errs.Required("status", req.Status)

	report := &models.Report{
		Code:                   strings.TrimSpace(req.Code),
		AnalysisType:           models.AnalysisType(req.AnalysisType),
		Description:            strings.TrimSpace(req.Description),
		ResponsibleTechnician:  strings.TrimSpace(req.ResponsibleTechnician),
		TechnicianRegistration: strings.TrimSpace(req.TechnicianRegistration),
		Status:                 models.ReportStatus(req.Status),
		SignedPDFURL:           strings.TrimSpace(req.SignedPDFURL),
	}

	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			errs.Add("clientId", "must be a valid id")
		}
		report.ClientID = id
	}
	if req.AnalysisType != "" && !report.AnalysisType.Valid() {
		errs.Add("analysisType", "must be agua, solo or ambiental")
	}
	if req.Status != "" && !report.Status.Valid() {
		errs.Add("status", "is not a known status")
	}

	var err error
	if req.SampleDate != "" {
		if report.SampleDate, err = models.ParseDate(req.SampleDate); err != nil {
			errs.Add("sampleDate", "must be a date in YYYY-MM-DD format")
		}
	}
	if req.IssueDate != "" {
		if report.IssueDate, err = models.ParseDate(req.IssueDate); err != nil {
			errs.Add("issueDate", "must be a date in YYYY-MM-DD format")
		}
	}
	if !report.SampleDate.IsZero() && !report.IssueDate.IsZero() && report.SampleDate.After(report.IssueDate.Time) {
		errs.Add("sampleDate", "must not be after issueDate")
	}

	var attachmentID *uuid.UUID
	if req.AttachmentID != "" {
		id, err := uuid.Parse(req.AttachmentID)
		if err != nil {
			errs.Add("attachmentId", "must be a valid id")
		} else {
			attachmentID = &id
		}
	}

	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	return report, attachmentID, nil
}

// UpdateStatus changes a report's status. A non-zero version must match the
// stored one. Under the strict lifecycle the check is always applied.
func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (report *models.Report, err error) {
	defer func() { s.metrics.RecordMutation("update_status", err) }()

	status := models.ReportStatus(req.Status)
	errs := validate.Errors{}
	errs.Required("status", req.Status)
	if req.Status != "" && !status.Valid() {
		errs.Add("status", "is not a known status")
	}
	if req.Version < 0 {
		errs.Add("version", "must be positive")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	current, err := s.repo.FindReport(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	if req.Version > 0 && req.Version != current.Version {
		return nil, ErrVersionConflict
	}
	if !models.CanTransition(current.Status, status, s.strict) {
		return nil, ErrInvalidTransition
	}

	expected := req.Version
	if s.strict && expected == 0 {
		expected = current.Version
	}

	updated, err := s.repo.UpdateReportStatus(ctx, id, repository.StatusUpdate{Status: status, ExpectedVersion: expected})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrReportNotFound
		case errors.Is(err, repository.ErrVersionMismatch):
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to update report status: %w", err)
	}
	slog.Info("report status updated", "report_id", id, "from", current.Status, "to", status)
	return updated, nil
}
