package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labmoura/laudos/internal/models"
)

// dryRunDB renders PostgreSQL statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=laudos dbname=laudos sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestReportFiltersSQL(t *testing.T) {
	db := dryRunDB(t)
	render := func(q ReportQuery) string {
		return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return applyReportFilters(tx.Model(&models.Report{}), q).Find(&[]models.Report{})
		})
	}

	t.Run("no filters", func(t *testing.T) {
		sql := render(ReportQuery{})
		assert.NotContains(t, sql, "WHERE")
	})

	t.Run("issue date window", func(t *testing.T) {
		sql := render(ReportQuery{From: models.NewDate(2025, 1, 1), To: models.NewDate(2025, 1, 31)})
		assert.Contains(t, sql, "reports.issue_date >= '2025-01-01'")
		assert.Contains(t, sql, "reports.issue_date <= '2025-01-31'")
		assert.NotContains(t, sql, "sample_date")
	})

	t.Run("sample date window", func(t *testing.T) {
		sql := render(ReportQuery{From: models.NewDate(2025, 1, 1), DateField: DateFieldSample})
		assert.Contains(t, sql, "reports.sample_date >= '2025-01-01'")
		assert.NotContains(t, sql, "issue_date")
	})

	t.Run("status and type", func(t *testing.T) {
		sql := render(ReportQuery{Status: models.StatusValid, AnalysisType: models.AnalysisSoil})
		assert.Contains(t, sql, "reports.status = 'valido'")
		assert.Contains(t, sql, "reports.analysis_type = 'solo'")
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		sql := render(ReportQuery{Search: "  50%_a  "})
		assert.Contains(t, sql, `reports.code ILIKE '%50\%\_a%'`)
		assert.Contains(t, sql, `clients.name ILIKE '%50\%\_a%'`)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "LAB-001", escapeLike("LAB-001"))
}

func TestUpdateStatusSQL(t *testing.T) {
	db := dryRunDB(t)
	id := uuid.New()

	checked := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return updateStatus(tx, id, StatusUpdate{Status: models.StatusCancelled, ExpectedVersion: 3})
	})
	assert.Contains(t, checked, "id = '"+id.String()+"'")
	assert.Contains(t, checked, "version = 3")
	assert.Contains(t, checked, `"status"='cancelado'`)
	assert.Contains(t, checked, "version + 1")

	unchecked := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return updateStatus(tx, id, StatusUpdate{Status: models.StatusValid})
	})
	assert.NotContains(t, unchecked, "version = ")
	assert.Contains(t, unchecked, "version + 1")
}

func TestClaimAttachmentSQL(t *testing.T) {
	db := dryRunDB(t)
	attachmentID, reportID := uuid.New(), uuid.New()

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return claimAttachment(tx, attachmentID, reportID)
	})
	assert.Contains(t, sql, `"report_id"='`+reportID.String()+`'`)
	assert.Contains(t, sql, "id = '"+attachmentID.String()+"' AND report_id IS NULL")
}
