package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labmoura/laudos/internal/models"
)

// MemoryRepository keeps everything in process memory. It is the fake used
// by tests and by local development without PostgreSQL. Values handed out
// are copies; callers never alias stored records.
type MemoryRepository struct {
	mu          sync.RWMutex
	seq         int64
	clients     map[uuid.UUID]*memClient
	reports     map[uuid.UUID]*memReport
	attachments map[uuid.UUID]models.Attachment
	now         func() time.Time
}

type memClient struct {
	seq    int64
	client models.Client
}

type memReport struct {
	seq    int64
	report models.Report
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		clients:     make(map[uuid.UUID]*memClient),
		reports:     make(map[uuid.UUID]*memReport),
		attachments: make(map[uuid.UUID]models.Attachment),
		now:         time.Now,
	}
}

func (m *MemoryRepository) CreateClient(_ context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		if c.client.Email == client.Email {
			return ErrDuplicate
		}
	}
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	now := m.now()
	client.CreatedAt, client.UpdatedAt = now, now

	m.seq++
	m.clients[client.ID] = &memClient{seq: m.seq, client: *client}
	return nil
}

func (m *MemoryRepository) FindClientByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	client := c.client
	return &client, nil
}

func (m *MemoryRepository) FindClientByEmail(_ context.Context, email string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		if c.client.Email == email {
			client := c.client
			return &client, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListClients(_ context.Context) ([]models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := make([]models.Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c.client)
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Name != clients[j].Name {
			return clients[i].Name < clients[j].Name
		}
		return clients[i].ID.String() < clients[j].ID.String()
	})
	return clients, nil
}

func (m *MemoryRepository) CreateReport(_ context.Context, report *models.Report, attachmentID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[report.ClientID]; !ok {
		return ErrInvalidReference
	}
	if report.IdempotencyKey != nil {
		for _, r := range m.reports {
			if r.report.IdempotencyKey != nil && *r.report.IdempotencyKey == *report.IdempotencyKey {
				return ErrDuplicate
			}
		}
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	var att models.Attachment
	if attachmentID != nil {
		var ok bool
		att, ok = m.attachments[*attachmentID]
		if !ok {
			return ErrNotFound
		}
		if att.ReportID != nil {
			return ErrAlreadyClaimed
		}
	}

	if report.Version == 0 {
		report.Version = 1
	}
	if report.Status == "" {
		report.Status = models.StatusUnderReview
	}
	now := m.now()
	report.CreatedAt, report.UpdatedAt = now, now

	stored := *report
	stored.Client = nil
	if stored.IdempotencyKey != nil {
		key := strings.Clone(*stored.IdempotencyKey)
		stored.IdempotencyKey = &key
	}

	m.seq++
	m.reports[report.ID] = &memReport{seq: m.seq, report: stored}

	if attachmentID != nil {
		reportID := report.ID
		att.ReportID = &reportID
		m.attachments[att.ID] = att
	}
	return nil
}

// withClient returns a copy of the stored report joined with its client.
// Callers hold m.mu.
func (m *MemoryRepository) withClient(r *memReport) models.Report {
	report := r.report
	if c, ok := m.clients[report.ClientID]; ok {
		client := c.client
		report.Client = &client
	}
	return report
}

func (m *MemoryRepository) FindReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	report := m.withClient(r)
	return &report, nil
}

func (m *MemoryRepository) FindReportByIdempotencyKey(_ context.Context, key string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reports {
		if r.report.IdempotencyKey != nil && *r.report.IdempotencyKey == key {
			report := m.withClient(r)
			return &report, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListReports(_ context.Context, q ReportQuery) ([]models.Report, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]*memReport, 0, len(m.reports))
	for _, r := range m.reports {
		report := r.report
		day := report.IssueDate
		if q.DateField == DateFieldSample {
			day = report.SampleDate
		}
		if !day.Between(q.From, q.To) {
			continue
		}
		if q.Status != "" && report.Status != q.Status {
			continue
		}
		if q.AnalysisType != "" && report.AnalysisType != q.AnalysisType {
			continue
		}
		if search != "" {
			name := ""
			if c, ok := m.clients[report.ClientID]; ok {
				name = c.client.Name
			}
			if !strings.Contains(strings.ToLower(report.Code), search) &&
				!strings.Contains(strings.ToLower(name), search) {
				continue
			}
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.report.IssueDate.Equal(b.report.IssueDate.Time) {
			return a.report.IssueDate.After(b.report.IssueDate.Time)
		}
		if !a.report.CreatedAt.Equal(b.report.CreatedAt) {
			return a.report.CreatedAt.After(b.report.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := int64(len(matched))
	if q.Limit > 0 {
		start := q.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	reports := make([]models.Report, 0, len(matched))
	for _, r := range matched {
		reports = append(reports, m.withClient(r))
	}
	return reports, total, nil
}

func (m *MemoryRepository) ListReportsByClient(_ context.Context, clientID uuid.UUID) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*memReport, 0)
	for _, r := range m.reports {
		if r.report.ClientID == clientID {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	reports := make([]models.Report, 0, len(matched))
	for _, r := range matched {
		reports = append(reports, m.withClient(r))
	}
	return reports, nil
}

func (m *MemoryRepository) UpdateReportStatus(_ context.Context, id uuid.UUID, upd StatusUpdate) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.ExpectedVersion > 0 && r.report.Version != upd.ExpectedVersion {
		return nil, ErrVersionMismatch
	}
	r.report.Status = upd.Status
	r.report.Version++
	r.report.UpdatedAt = m.now()

	report := m.withClient(r)
	return &report, nil
}

func (m *MemoryRepository) CreateAttachment(_ context.Context, att *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.attachments {
		if a.Key == att.Key {
			return ErrDuplicate
		}
	}
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	att.CreatedAt = m.now()
	m.attachments[att.ID] = *att
	return nil
}

func (m *MemoryRepository) FindAttachment(_ context.Context, id uuid.UUID) (*models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	att, ok := m.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &att, nil
}

func (m *MemoryRepository) DeleteAttachment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	att, ok := m.attachments[id]
	if !ok {
		return ErrNotFound
	}
	if att.ReportID != nil {
		return ErrAlreadyClaimed
	}
	delete(m.attachments, id)
	return nil
}

func (m *MemoryRepository) Ping(context.Context) error {
	return nil
}
