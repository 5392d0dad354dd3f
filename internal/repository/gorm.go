package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/labmoura/laudos/internal/models"
)

// GormRepository is the PostgreSQL-backed Repository. The *gorm.DB must be
// opened with TranslateError so driver errors map onto gorm sentinels.
type GormRepository struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepository) FindClientByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (r *GormRepository) FindClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&client).Error; err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (r *GormRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *GormRepository) CreateReport(ctx context.Context, report *models.Report, attachmentID *uuid.UUID) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.Version == 0 {
		report.Version = 1
	}
	client := report.Client
	report.Client = nil
	defer func() { report.Client = client }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(report).Error; err != nil {
			return translate(err)
		}
		if attachmentID == nil {
			return nil
		}

		res := claimAttachment(tx, *attachmentID, report.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to claim attachment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			tx.Model(&models.Attachment{}).Where("id = ?", *attachmentID).Count(&count)
			if count == 0 {
				return ErrNotFound
			}
			return ErrAlreadyClaimed
		}
		return nil
	})
}

// claimAttachment links an unclaimed attachment to reportID. Zero rows
// affected means it is missing or already claimed.
func claimAttachment(tx *gorm.DB, attachmentID, reportID uuid.UUID) *gorm.DB {
	return tx.Model(&models.Attachment{}).
		Where("id = ? AND report_id IS NULL", attachmentID).
		Update("report_id", reportID)
}

func (r *GormRepository) FindReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Client").First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *GormRepository) FindReportByIdempotencyKey(ctx context.Context, key string) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Client").Where("idempotency_key = ?", key).First(&report).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *GormRepository) ListReports(ctx context.Context, q ReportQuery) ([]models.Report, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Report{}).
		Joins("LEFT JOIN clients ON clients.id = reports.client_id")
	base = applyReportFilters(base, q)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := base.Session(&gorm.Session{}).
		Preload("Client").
		Order("reports.issue_date DESC, reports.created_at DESC, reports.id DESC")
	if q.Limit > 0 {
		find = find.Limit(q.Limit).Offset(q.Offset)
	}

	var reports []models.Report
	if err := find.Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func applyReportFilters(db *gorm.DB, q ReportQuery) *gorm.DB {
	column := "reports.issue_date"
	if q.DateField == DateFieldSample {
		column = "reports.sample_date"
	}
	if !q.From.IsZero() {
		db = db.Where(column+" >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where(column+" <= ?", q.To)
	}
	if q.Status != "" {
		db = db.Where("reports.status = ?", q.Status)
	}
	if q.AnalysisType != "" {
		db = db.Where("reports.analysis_type = ?", q.AnalysisType)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		db = db.Where("(reports.code ILIKE ? OR clients.name ILIKE ?)", pattern, pattern)
	}
	return db
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *GormRepository) ListReportsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("client_id = ?", clientID).
		Order("created_at ASC, id ASC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *GormRepository) UpdateReportStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*models.Report, error) {
	res := updateStatus(r.db.WithContext(ctx), id, upd)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update report status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindReport(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrVersionMismatch
	}
	return r.FindReport(ctx, id)
}

func updateStatus(db *gorm.DB, id uuid.UUID, upd StatusUpdate) *gorm.DB {
	query := db.Model(&models.Report{}).Where("id = ?", id)
	if upd.ExpectedVersion > 0 {
		query = query.Where("version = ?", upd.ExpectedVersion)
	}
	return query.Updates(map[string]interface{}{
		"status":     upd.Status,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	})
}

func (r *GormRepository) CreateAttachment(ctx context.Context, att *models.Attachment) error {
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(att).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepository) FindAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var att models.Attachment
	if err := r.db.WithContext(ctx).First(&att, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &att, nil
}

func (r *GormRepository) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND report_id IS NULL", id).Delete(&models.Attachment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindAttachment(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyClaimed
	}
	return nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInvalidReference
	}
	return err
}
