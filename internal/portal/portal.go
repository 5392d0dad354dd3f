// Package portal is the client side of the report system: a session gate
// plus the query and mutation calls the public site, client portal and
// admin dashboard make against a Store.
package portal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/validate"
)

// DefaultTimeout bounds every store call unless WithTimeout says otherwise.
const DefaultTimeout = 15 * time.Second

type Portal struct {
	store   Store
	gate    *Gate
	baseURL string
	timeout time.Duration
}

type Option func(*portalOptions)

type portalOptions struct {
	timeout  time.Duration
	baseURL  *string
	redirect func(string)
}

func WithTimeout(d time.Duration) Option {
	return func(o *portalOptions) { o.timeout = d }
}

// WithBaseURL sets the base relative attachment URLs are resolved against.
// It defaults to the store's own base URL when the store has one.
func WithBaseURL(base string) Option {
	return func(o *portalOptions) { o.baseURL = &base }
}

// WithRedirect is called with AdminLoginPath when the session expires.
func WithRedirect(fn func(path string)) Option {
	return func(o *portalOptions) { o.redirect = fn }
}

func New(store Store, opts ...Option) *Portal {
	o := portalOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Portal{
		store:   store,
		gate:    NewGate(store, o.redirect),
		timeout: o.timeout,
	}
	switch {
	case o.baseURL != nil:
		p.baseURL = *o.baseURL
	default:
		if b, ok := store.(interface{ BaseURL() string }); ok {
			p.baseURL = b.BaseURL()
		}
	}
	return p
}

func (p *Portal) Gate() *Gate {
	return p.gate
}

// call runs fn under the portal timeout and routes session expiry to the
// gate.
func call[T any](ctx context.Context, p *Portal, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrAuthExpired) {
		err = ErrTimeout
	}
	return v, p.gate.observe(err)
}

func (p *Portal) resolve(reports []models.Report) []models.Report {
	for i := range reports {
		resolveReport(p.baseURL, &reports[i])
	}
	return reports
}

// GetPublicReport looks a report up by id without a session. Unknown and
// malformed ids yield ErrNotFound; an unreachable store yields a
// *TransportError or ErrTimeout instead.
func (p *Portal) GetPublicReport(ctx context.Context, id string) (*models.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	report, err := call(ctx, p, func(ctx context.Context) (*models.Report, error) {
		return p.store.GetReport(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	resolveReport(p.baseURL, report)
	return report, nil
}

// GetClientReports lists the reports of the client behind email. Clients may
// only ask for their own; an empty email means the signed-in client.
func (p *Portal) GetClientReports(ctx context.Context, email string) ([]models.Report, error) {
	s, err := p.gate.require(false)
	if err != nil {
		return nil, err
	}
	email = validate.NormalizeEmail(email)
	if !s.Actor.IsAdmin() {
		own := validate.NormalizeEmail(s.Actor.Email)
		if email == "" {
			email = own
		}
		if email != own {
			return nil, ErrForbidden
		}
	}

	reports, err := call(ctx, p, func(ctx context.Context) ([]models.Report, error) {
		return p.store.ClientReports(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	return p.resolve(reports), nil
}

// GetAllReports is the admin listing, newest issue date first.
func (p *Portal) GetAllReports(ctx context.Context, f ReportFilter) (*ReportPage, error) {
	if _, err := p.gate.require(true); err != nil {
		return nil, err
	}
	page, err := call(ctx, p, func(ctx context.Context) (*ReportPage, error) {
		return p.store.ListReports(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	p.resolve(page.Reports)
	return page, nil
}

func (p *Portal) GetAllClients(ctx context.Context) ([]models.Client, error) {
	if _, err := p.gate.require(true); err != nil {
		return nil, err
	}
	return call(ctx, p, func(ctx context.Context) ([]models.Client, error) {
		return p.store.ListClients(ctx)
	})
}

// UploadAttachment stores a signed PDF. The store decides whether the
// content really is a PDF.
func (p *Portal) UploadAttachment(ctx context.Context, r io.Reader, filename string) (*Attachment, error) {
	if _, err := p.gate.require(true); err != nil {
		return nil, err
	}
	att, err := call(ctx, p, func(ctx context.Context) (*Attachment, error) {
		return p.store.UploadAttachment(ctx, r, filename)
	})
	if err != nil {
		return nil, err
	}
	att.URL = ResolveAttachmentURL(p.baseURL, att.URL)
	return att, nil
}

func (p *Portal) DeleteAttachment(ctx context.Context, id string) error {
	if _, err := p.gate.require(true); err != nil {
		return err
	}
	_, err := call(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.store.DeleteAttachment(ctx, id)
	})
	return err
}

// CreateReport issues a report. The request carries an idempotency key, so
// a transport failure is retried once without risk of a duplicate.
func (p *Portal) CreateReport(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error) {
	if _, err := p.gate.require(true); err != nil {
		return nil, err
	}
	return p.create(ctx, req, uuid.NewString())
}

func (p *Portal) create(ctx context.Context, req dto.CreateReportRequest, key string) (*models.Report, error) {
	attempt := func(ctx context.Context) (*models.Report, error) {
		return p.store.CreateReport(ctx, req, key)
	}

	report, err := call(ctx, p, attempt)
	if err != nil && IsRetryable(err) && ctx.Err() == nil {
		slog.Warn("retrying report create", "idempotency_key", key, "error", err)
		report, err = call(ctx, p, attempt)
	}
	if err != nil {
		return nil, err
	}
	resolveReport(p.baseURL, report)
	return report, nil
}

// CreateReportWithAttachment uploads the PDF and issues the report that
// claims it. If the report cannot be created the upload is deleted, so no
// orphaned file is left behind. When the upload turns out to be claimed
// after a retryable failure, the report did commit and is returned.
func (p *Portal) CreateReportWithAttachment(ctx context.Context, req dto.CreateReportRequest, file io.Reader, filename string) (*models.Report, error) {
	att, err := p.UploadAttachment(ctx, file, filename)
	if err != nil {
		return nil, err
	}

	req.AttachmentID = att.ID
	req.SignedPDFURL = ""
	key := uuid.NewString()
	report, err := p.create(ctx, req, key)
	if err == nil {
		return report, nil
	}

	cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	derr := p.store.DeleteAttachment(cleanup, att.ID)
	switch {
	case derr == nil, errors.Is(derr, ErrNotFound):
	case errors.Is(derr, ErrConflict) && IsRetryable(err):
		// Replaying the key returns the report that claimed the upload.
		existing, rerr := p.store.CreateReport(cleanup, req, key)
		if rerr == nil {
			slog.Info("report committed despite create failure", "report_id", existing.ID, "idempotency_key", key)
			resolveReport(p.baseURL, existing)
			return existing, nil
		}
		slog.Warn("upload claimed but report lookup failed", "attachment_id", att.ID, "error", rerr)
	default:
		slog.Warn("failed to discard upload after create failure", "attachment_id", att.ID, "error", derr)
	}
	return nil, err
}

// UpdateReportStatus changes a report's status. A version above zero must
// match the stored one or ErrConflict is returned.
func (p *Portal) UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, version int) (*models.Report, error) {
	if _, err := p.gate.require(true); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, &ValidationError{Message: "Validation failed", Fields: map[string]string{"status": "is not a known status"}}
	}
	report, err := call(ctx, p, func(ctx context.Context) (*models.Report, error) {
		return p.store.UpdateReportStatus(ctx, id, status, version)
	})
	if err != nil {
		return nil, err
	}
	resolveReport(p.baseURL, report)
	return report, nil
}

func (p *Portal) CreateClient(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	if _, err := p.gate.require(true); err != nil {
		return nil, err
	}
	return call(ctx, p, func(ctx context.Context) (*models.Client, error) {
		return p.store.CreateClient(ctx, req)
	})
}
