package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/services"
)

// HeaderIdempotencyKey marks repeated create requests as the same attempt.
const HeaderIdempotencyKey = "Idempotency-Key"

// HTTPStore talks to the report API. BaseURL includes the API prefix, for
// example https://laudos.example.com/api.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	tokens  TokenStore
}

type HTTPOption func(*HTTPStore)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) { s.client = c }
}

func WithTokenStore(t TokenStore) HTTPOption {
	return func(s *HTTPStore) { s.tokens = t }
}

func NewHTTPStore(baseURL string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		tokens:  &MemoryTokenStore{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *HTTPStore) BaseURL() string {
	return s.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	header      http.Header
	// login requests answer 401 for bad credentials, not for an expired token
	login bool
}

func (s *HTTPStore) jsonRequest(method, path string, payload any) (request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to encode request: %w", err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

func (s *HTTPStore) do(ctx context.Context, r request, out any) error {
	u := s.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range r.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if !r.login {
		token, err := s.tokens.Load()
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response body: %w", err)}
		}
		return nil
	}
	return s.statusError(resp.StatusCode, body, r.login)
}

func transportFailure(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return ErrTimeout
	}
	return &TransportError{Err: err}
}

func (s *HTTPStore) statusError(status int, body []byte, login bool) error {
	var e dto.ErrorResponse
	_ = json.Unmarshal(body, &e)
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized && login:
		return ErrInvalidCredentials
	case status == http.StatusUnauthorized:
		if err := s.tokens.Clear(); err != nil {
			slog.Warn("failed to clear token", "error", err)
		}
		return ErrAuthExpired
	case status == http.StatusBadRequest:
		return &ValidationError{Message: msg, Fields: e.Fields}
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case status == http.StatusRequestEntityTooLarge:
		return &ValidationError{Message: msg, Fields: map[string]string{"file": "is too large"}}
	}
	return &TransportError{StatusCode: status, Err: errors.New(msg)}
}

func (s *HTTPStore) login(ctx context.Context, path string, payload any) (*Session, error) {
	r, err := s.jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	r.login = true

	var auth dto.AuthResponse
	if err := s.do(ctx, r, &auth); err != nil {
		return nil, err
	}
	if err := s.tokens.Save(auth.Token); err != nil {
		return nil, err
	}
	return &Session{Actor: auth.Actor, ExpiresAt: auth.ExpiresAt}, nil
}

func (s *HTTPStore) LoginClient(ctx context.Context, email string) (*Session, error) {
	return s.login(ctx, "/auth/client/login", dto.ClientLoginRequest{Email: email})
}

func (s *HTTPStore) LoginAdmin(ctx context.Context, email, password string) (*Session, error) {
	return s.login(ctx, "/auth/admin/login", dto.AdminLoginRequest{Email: email, Password: password})
}

// Resume rebuilds the session from the stored token's claims. The signature
// is the server's to check; an expired token is discarded.
func (s *HTTPStore) Resume(_ context.Context) (*Session, error) {
	token, err := s.tokens.Load()
	if err != nil || token == "" {
		return nil, err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		s.forget()
		return nil, nil
	}
	actor, err := services.ActorFromClaims(claims)
	if err != nil {
		s.forget()
		return nil, nil
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
		if !time.Now().Before(expiresAt) {
			s.forget()
			return nil, nil
		}
	}
	return &Session{Actor: actor, ExpiresAt: expiresAt}, nil
}

func (s *HTTPStore) Logout() {
	s.forget()
}

func (s *HTTPStore) forget() {
	if err := s.tokens.Clear(); err != nil {
		slog.Warn("failed to clear token", "error", err)
	}
}

func (s *HTTPStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.do(ctx, request{method: http.MethodGet, path: "/reports/" + url.PathEscape(id)}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *HTTPStore) ClientReports(ctx context.Context, email string) ([]models.Report, error) {
	q := url.Values{}
	if email != "" {
		q.Set("email", email)
	}
	reports := []models.Report{}
	if err := s.do(ctx, request{method: http.MethodGet, path: "/clients/reports", query: q}, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *HTTPStore) ListReports(ctx context.Context, f ReportFilter) (*ReportPage, error) {
	var resp dto.ReportListResponse
	if err := s.do(ctx, request{method: http.MethodGet, path: "/reports", query: filterQuery(f)}, &resp); err != nil {
		return nil, err
	}
	if resp.Reports == nil {
		resp.Reports = []models.Report{}
	}
	return &ReportPage{
		Reports:    resp.Reports,
		Total:      resp.Total,
		Page:       resp.Page,
		PageSize:   resp.Limit,
		TotalPages: resp.TotalPages,
	}, nil
}

func filterQuery(f ReportFilter) url.Values {
	q := url.Values{}
	if !f.From.IsZero() {
		q.Set("startDate", f.From.String())
	}
	if !f.To.IsZero() {
		q.Set("endDate", f.To.String())
	}
	if f.DateField != "" {
		q.Set("dateField", string(f.DateField))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.AnalysisType != "" {
		q.Set("analysisType", string(f.AnalysisType))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.PageSize > 0 {
		q.Set("limit", strconv.Itoa(f.PageSize))
		if f.Page > 0 {
			q.Set("page", strconv.Itoa(f.Page))
		}
	}
	return q
}

func (s *HTTPStore) ListClients(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	if err := s.do(ctx, request{method: http.MethodGet, path: "/clients"}, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *HTTPStore) UploadAttachment(ctx context.Context, file io.Reader, filename string) (*Attachment, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var up dto.UploadResponse
	r := request{method: http.MethodPost, path: "/reports/upload-pdf", body: buf, contentType: w.FormDataContentType()}
	if err := s.do(ctx, r, &up); err != nil {
		return nil, err
	}
	return &Attachment{ID: up.ID, URL: up.URL, Filename: up.Filename, ContentType: up.ContentType, Size: up.Size}, nil
}

func (s *HTTPStore) DeleteAttachment(ctx context.Context, id string) error {
	return s.do(ctx, request{method: http.MethodDelete, path: "/reports/uploads/" + url.PathEscape(id)}, nil)
}

func (s *HTTPStore) CreateReport(ctx context.Context, req dto.CreateReportRequest, idempotencyKey string) (*models.Report, error) {
	r, err := s.jsonRequest(http.MethodPost, "/reports", req)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		r.header = http.Header{HeaderIdempotencyKey: {idempotencyKey}}
	}

	var report models.Report
	if err := s.do(ctx, r, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *HTTPStore) UpdateReportStatus(ctx context.Context, id string, status models.ReportStatus, version int) (*models.Report, error) {
	r, err := s.jsonRequest(http.MethodPatch, "/reports/"+url.PathEscape(id)+"/status", dto.UpdateStatusRequest{Status: string(status), Version: version})
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := s.do(ctx, r, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *HTTPStore) CreateClient(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	r, err := s.jsonRequest(http.MethodPost, "/clients", req)
	if err != nil {
		return nil, err
	}
	var client models.Client
	if err := s.do(ctx, r, &client); err != nil {
		return nil, err
	}
	return &client, nil
}
