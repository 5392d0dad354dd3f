package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labmoura/laudos/internal/models"
)

func seedClient(t *testing.T, repo *MemoryRepository, name, email string) *models.Client {
	t.Helper()
	c := &models.Client{Name: name, Email: email}
	require.NoError(t, repo.CreateClient(context.Background(), c))
	return c
}

func seedReport(t *testing.T, repo *MemoryRepository, clientID uuid.UUID, code string, issue models.Date) *models.Report {
	t.Helper()
	r := &models.Report{
		Code:                   code,
		ClientID:               clientID,
		AnalysisType:           models.AnalysisWater,
		ResponsibleTechnician:  "Maria",
		TechnicianRegistration: "CRQ-1",
		SampleDate:             issue,
		IssueDate:              issue,
		Status:                 models.StatusValid,
	}
	require.NoError(t, repo.CreateReport(context.Background(), r, nil))
	return r
}

func TestMemoryClients(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	ana := seedClient(t, repo, "Ana", "ana@x.com")
	seedClient(t, repo, "Bruno", "bruno@x.com")

	err := repo.CreateClient(ctx, &models.Client{Name: "Ana 2", Email: "ana@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindClientByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, found.ID)

	_, err = repo.FindClientByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	clients, err := repo.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Ana", clients[0].Name)
	assert.Equal(t, "Bruno", clients[1].Name)
}

func TestMemoryReportCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ana := seedClient(t, repo, "Ana", "ana@x.com")
	r := seedReport(t, repo, ana.ID, "LAB-001", models.NewDate(2025, 1, 10))

	found, err := repo.FindReport(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Client)
	assert.Equal(t, "Ana", found.Client.Name)
	assert.Equal(t, 1, found.Version)

	found.Code = "mutated"
	again, err := repo.FindReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "LAB-001", again.Code)
}

func TestMemoryCreateReportUnknownClient(t *testing.T) {
	repo := NewMemory()
	err := repo.CreateReport(context.Background(), &models.Report{ClientID: uuid.New()}, nil)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestMemoryListReports(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ana := seedClient(t, repo, "Ana", "ana@x.com")
	bia := seedClient(t, repo, "Beatriz Souza", "bia@x.com")

	seedReport(t, repo, ana.ID, "LAB-001", models.NewDate(2025, 1, 10))
	seedReport(t, repo, ana.ID, "LAB-002", models.NewDate(2025, 2, 10))
	seedReport(t, repo, bia.ID, "LAB-003", models.NewDate(2025, 3, 10))
	seedReport(t, repo, bia.ID, "SOLO-004", models.NewDate(2025, 3, 10))

	t.Run("sorted by issue date desc then newest first", func(t *testing.T) {
		reports, total, err := repo.ListReports(ctx, ReportQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		codes := []string{}
		for _, r := range reports {
			codes = append(codes, r.Code)
		}
		assert.Equal(t, []string{"SOLO-004", "LAB-003", "LAB-002", "LAB-001"}, codes)
	})

	t.Run("inclusive date window", func(t *testing.T) {
		reports, total, err := repo.ListReports(ctx, ReportQuery{
			From: models.NewDate(2025, 2, 10),
			To:   models.NewDate(2025, 3, 10),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		for _, r := range reports {
			assert.True(t, r.IssueDate.Between(models.NewDate(2025, 2, 10), models.NewDate(2025, 3, 10)))
		}
	})

	t.Run("search by client name", func(t *testing.T) {
		reports, total, err := repo.ListReports(ctx, ReportQuery{Search: "beatriz"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, r := range reports {
			assert.Equal(t, bia.ID, r.ClientID)
		}
	})

	t.Run("search by code", func(t *testing.T) {
		_, total, err := repo.ListReports(ctx, ReportQuery{Search: "solo"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("pagination", func(t *testing.T) {
		reports, total, err := repo.ListReports(ctx, ReportQuery{Limit: 3, Offset: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, reports, 1)
		assert.Equal(t, "LAB-001", reports[0].Code)

		reports, _, err = repo.ListReports(ctx, ReportQuery{Limit: 3, Offset: 30})
		require.NoError(t, err)
		assert.Empty(t, reports)
	})
}

func TestMemoryListReportsByClientInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ana := seedClient(t, repo, "Ana", "ana@x.com")
	seedReport(t, repo, ana.ID, "B", models.NewDate(2025, 5, 1))
	seedReport(t, repo, ana.ID, "A", models.NewDate(2024, 5, 1))

	reports, err := repo.ListReportsByClient(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "B", reports[0].Code)
	assert.Equal(t, "A", reports[1].Code)
	assert.NotNil(t, reports[0].Client)
}

func TestMemoryUpdateStatusVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ana := seedClient(t, repo, "Ana", "ana@x.com")
	r := seedReport(t, repo, ana.ID, "LAB-001", models.NewDate(2025, 1, 10))

	updated, err := repo.UpdateReportStatus(ctx, r.ID, StatusUpdate{Status: models.StatusCancelled, ExpectedVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, 2, updated.Version)

	_, err = repo.UpdateReportStatus(ctx, r.ID, StatusUpdate{Status: models.StatusValid, ExpectedVersion: 1})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	updated, err = repo.UpdateReportStatus(ctx, r.ID, StatusUpdate{Status: models.StatusValid})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)

	_, err = repo.UpdateReportStatus(ctx, uuid.New(), StatusUpdate{Status: models.StatusValid})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAttachmentClaim(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ana := seedClient(t, repo, "Ana", "ana@x.com")

	att := &models.Attachment{Key: "reports/a.pdf", Filename: "a.pdf", ContentType: "application/pdf", Size: 10}
	require.NoError(t, repo.CreateAttachment(ctx, att))

	report := &models.Report{Code: "LAB-001", ClientID: ana.ID, AnalysisType: models.AnalysisSoil, Status: models.StatusValid}
	require.NoError(t, repo.CreateReport(ctx, report, &att.ID))

	claimed, err := repo.FindAttachment(ctx, att.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.ReportID)
	assert.Equal(t, report.ID, *claimed.ReportID)

	second := &models.Report{Code: "LAB-002", ClientID: ana.ID, AnalysisType: models.AnalysisSoil}
	assert.ErrorIs(t, repo.CreateReport(ctx, second, &att.ID), ErrAlreadyClaimed)
	assert.ErrorIs(t, repo.DeleteAttachment(ctx, att.ID), ErrAlreadyClaimed)

	missing := uuid.New()
	assert.ErrorIs(t, repo.CreateReport(ctx, second, &missing), ErrNotFound)

	loose := &models.Attachment{Key: "reports/b.pdf", Filename: "b.pdf"}
	require.NoError(t, repo.CreateAttachment(ctx, loose))
	require.NoError(t, repo.DeleteAttachment(ctx, loose.ID))
	assert.ErrorIs(t, repo.DeleteAttachment(ctx, loose.ID), ErrNotFound)
}

func TestMemoryIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	ana := seedClient(t, repo, "Ana", "ana@x.com")

	key := "create-1"
	first := &models.Report{Code: "LAB-001", ClientID: ana.ID, IdempotencyKey: &key}
	require.NoError(t, repo.CreateReport(ctx, first, nil))

	dup := &models.Report{Code: "LAB-001", ClientID: ana.ID, IdempotencyKey: &key}
	assert.ErrorIs(t, repo.CreateReport(ctx, dup, nil), ErrDuplicate)

	found, err := repo.FindReportByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}
