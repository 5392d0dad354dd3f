package portal

import (
	"sort"
	"strings"

	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
)

// ReportFilter narrows the admin listing. Zero values mean no filter and
// PageSize 0 returns everything.
type ReportFilter struct {
	From         models.Date
	To           models.Date
	DateField    repository.DateField
	Status       models.ReportStatus
	AnalysisType models.AnalysisType
	Search       string
	Page         int
	PageSize     int
}

// FilterReports applies f to reports already in memory, the way the
// dashboards filter a fetched list. The result is ordered by issue date,
// newest first, and the input slice is left untouched.
func FilterReports(reports []models.Report, f ReportFilter) *ReportPage {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		day := r.IssueDate
		if f.DateField == repository.DateFieldSample {
			day = r.SampleDate
		}
		if !day.Between(f.From, f.To) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.AnalysisType != "" && r.AnalysisType != f.AnalysisType {
			continue
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		matched = append(matched, r)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.IssueDate.Equal(b.IssueDate.Time) {
			return a.IssueDate.After(b.IssueDate.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})

	page := &ReportPage{Total: int64(len(matched)), Page: 1}
	if f.PageSize <= 0 {
		page.Reports = matched
		if len(matched) > 0 {
			page.TotalPages = 1
		}
		return page
	}

	if f.Page > 1 {
		page.Page = f.Page
	}
	page.PageSize = f.PageSize
	page.TotalPages = (len(matched) + f.PageSize - 1) / f.PageSize
	start := (page.Page - 1) * f.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page.Reports = matched[start:end]
	return page
}

func matchesSearch(r models.Report, search string) bool {
	if strings.Contains(strings.ToLower(r.Code), search) {
		return true
	}
	return r.Client != nil && strings.Contains(strings.ToLower(r.Client.Name), search)
}
